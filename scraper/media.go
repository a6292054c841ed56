package scraper

import "inmo_scrooper/models"

const (
	altListingImage = "Imagen de propiedad"
	altMainImage    = "Imagen principal"
	altPhoto        = "Foto de propiedad"
)

type imageSource struct {
	extract func(raw models.RawListing) []models.Image
	// front puts the source's image first, moving it there if already present
	front bool
}

var imageSources = []imageSource{
	{extract: generalImages},
	{extract: mainImage, front: true},
	{extract: photoImages},
}

// collectImages merges every source into one list with a single entry per
// URL. The first entry seen for a URL is the one kept.
func collectImages(raw models.RawListing) []models.Image {
	images := []models.Image{}
	seen := make(map[string]bool)

	for _, src := range imageSources {
		for _, img := range src.extract(raw) {
			if img.URL == "" {
				continue
			}
			if src.front {
				images = toFront(images, img, seen[img.URL])
				seen[img.URL] = true
				continue
			}
			if seen[img.URL] {
				continue
			}
			seen[img.URL] = true
			images = append(images, img)
		}
	}
	return images
}

func toFront(images []models.Image, img models.Image, present bool) []models.Image {
	if !present {
		return append([]models.Image{img}, images...)
	}
	for i, existing := range images {
		if existing.URL == img.URL {
			copy(images[1:i+1], images[:i])
			images[0] = existing
			break
		}
	}
	return images
}

func generalImages(raw models.RawListing) []models.Image {
	list, _ := asSlice(raw["images"])
	var out []models.Image
	for _, item := range list {
		switch v := item.(type) {
		case map[string]any:
			url, _ := asString(pick(v, "image", "url", "original"))
			thumb, _ := asString(pick(v, "thumbnail", "small", "url"))
			alt, ok := asString(v["alt"])
			if !ok {
				alt = altListingImage
			}
			out = append(out, models.Image{URL: url, Thumbnail: thumb, Alt: alt})
		case string:
			out = append(out, models.Image{URL: v, Thumbnail: v, Alt: altListingImage})
		}
	}
	return out
}

func mainImage(raw models.RawListing) []models.Image {
	switch v := raw["main_image"].(type) {
	case map[string]any:
		url, _ := asString(pick(v, "image", "url"))
		thumb, ok := asString(v["thumbnail"])
		if !ok {
			thumb = url
		}
		return []models.Image{{URL: url, Thumbnail: thumb, Alt: altMainImage}}
	case string:
		return []models.Image{{URL: v, Thumbnail: v, Alt: altMainImage}}
	}
	return nil
}

func photoImages(raw models.RawListing) []models.Image {
	list, _ := asSlice(raw["photos"])
	var out []models.Image
	for _, item := range list {
		switch v := item.(type) {
		case map[string]any:
			url, _ := asString(pick(v, "url", "image"))
			thumb, ok := asString(v["thumbnail"])
			if !ok {
				thumb = url
			}
			out = append(out, models.Image{URL: url, Thumbnail: thumb, Alt: altPhoto})
		case string:
			out = append(out, models.Image{URL: v, Thumbnail: v, Alt: altPhoto})
		}
	}
	return out
}

type coordProbe func(raw models.RawListing) (lat, lng float64, ok bool)

// coordProbes are tried in order; the first yielding both values wins.
var coordProbes = []coordProbe{
	pairProbe(func(raw models.RawListing) map[string]any { return raw }, "lat", "lng"),
	pairProbe(func(raw models.RawListing) map[string]any { return raw }, "latitude", "longitude"),
	nestedProbe("location"),
	nestedProbe("geo"),
	pairProbe(func(raw models.RawListing) map[string]any {
		m, _ := asMap(raw["locations"])
		return m
	}, "lat", "lng"),
}

func pairProbe(container func(models.RawListing) map[string]any, latKey, lngKey string) coordProbe {
	return func(raw models.RawListing) (float64, float64, bool) {
		m := container(raw)
		if m == nil {
			return 0, 0, false
		}
		return coordPair(m[latKey], m[lngKey])
	}
}

func nestedProbe(key string) coordProbe {
	return func(raw models.RawListing) (float64, float64, bool) {
		m, ok := asMap(raw[key])
		if !ok {
			return 0, 0, false
		}
		return coordPair(pick(m, "lat", "latitude"), pick(m, "lng", "longitude"))
	}
}

// coordPair treats zero as missing, which is how the source blanks a pin.
func coordPair(latV, lngV any) (float64, float64, bool) {
	lat, ok := asFloat(latV)
	if !ok || lat == 0 {
		return 0, 0, false
	}
	lng, ok := asFloat(lngV)
	if !ok || lng == 0 {
		return 0, 0, false
	}
	return lat, lng, true
}

func extractCoordinates(raw models.RawListing) *models.Coordinates {
	for _, probe := range coordProbes {
		if lat, lng, ok := probe(raw); ok {
			return &models.Coordinates{Lat: lat, Lng: lng}
		}
	}
	return nil
}
