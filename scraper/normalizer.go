package scraper

import (
	"strings"

	"inmo_scrooper/models"
)

const defaultTypeLabel = "Inmueble"

// Normalizer maps raw listings onto models.Listing. It never fails: fields
// that are missing or oddly shaped come out as nil.
type Normalizer struct {
	baseURL          string
	fallbackCurrency string
}

func NewNormalizer(baseURL, fallbackCurrency string) *Normalizer {
	return &Normalizer{
		baseURL:          strings.TrimRight(baseURL, "/"),
		fallbackCurrency: fallbackCurrency,
	}
}

func (n *Normalizer) Normalize(raw models.RawListing) models.Listing {
	title, _ := asString(raw["title"])
	description, _ := asString(raw["description"])

	return models.Listing{
		ID:           ptrString(asText(raw["id"])),
		Title:        title,
		Description:  description,
		PropertyType: TypeLabel(raw),
		Price:        n.price(raw),
		Location:     listingLocation(raw),
		Features:     features(raw),
		Images:       collectImages(raw),
		Featured:     isFeatured(raw),
		Owner:        owner(raw),
		URL:          n.link(raw),
		PublishedAt:  ptrString(asString(pick(raw, "published_at", "created_at"))),
	}
}

// NormalizeAll keeps source order.
func (n *Normalizer) NormalizeAll(raws []models.RawListing) []models.Listing {
	out := make([]models.Listing, 0, len(raws))
	for _, raw := range raws {
		out = append(out, n.Normalize(raw))
	}
	return out
}

// TypeLabel is the source's own name for the property type.
func TypeLabel(raw models.RawListing) string {
	pt, _ := asMap(raw["property_type"])
	if name, ok := asString(pt["name"]); ok {
		return name
	}
	return defaultTypeLabel
}

func (n *Normalizer) price(raw models.RawListing) models.Price {
	p := models.Price{Currency: n.fallbackCurrency}

	priceData, ok := asMap(raw["price"])
	if !ok {
		return p
	}
	p.Amount = ptrPositive(asFloat(priceData["amount"]))

	for _, probe := range currencyProbes {
		if c, ok := probe(priceData); ok {
			p.Currency = c
			break
		}
	}
	return p
}

var currencyProbes = []func(price map[string]any) (string, bool){
	func(price map[string]any) (string, bool) {
		cur, _ := asMap(price["currency"])
		return asString(cur["name"])
	},
	func(price map[string]any) (string, bool) {
		return asString(price["currency"])
	},
}

func listingLocation(raw models.RawListing) models.ListingLocation {
	loc := models.ListingLocation{
		Address:     ptrString(asString(pick(raw, "address", "street"))),
		Coordinates: extractCoordinates(raw),
	}

	locations, ok := asMap(raw["locations"])
	if !ok {
		return loc
	}
	loc.Neighbourhood = ptrString(firstName(locations["neighbourhood"]))
	loc.City = ptrString(firstName(locations["city"]))
	loc.Department = ptrString(firstName(locations["state"]))
	return loc
}

func features(raw models.RawListing) models.Features {
	f := models.Features{
		Bedrooms:  ptrInt(asInt(raw["bedrooms"])),
		Bathrooms: ptrInt(asInt(raw["bathrooms"])),
		BuiltArea: ptrPositive(asFloat(pick(raw, "m2Built", "m2"))),
		Age:       ptrInt(asInt(raw["age"])),
		Garages:   ptrInt(asInt(raw["garages"])),
	}
	// m2 is only the lot size when the built area is given separately
	if truthy(raw["m2Built"]) {
		f.LotArea = ptrPositive(asFloat(raw["m2"]))
	}
	return f
}

func owner(raw models.RawListing) models.Owner {
	o, ok := asMap(raw["owner"])
	if !ok {
		return models.Owner{}
	}
	return models.Owner{
		Name:     ptrString(asString(o["name"])),
		WhatsApp: ptrString(asText(o["whatsapp_phone"])),
	}
}

func (n *Normalizer) link(raw models.RawListing) *string {
	link, ok := asString(raw["link"])
	if !ok {
		return nil
	}
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return &link
	}
	if !strings.HasPrefix(link, "/") {
		link = "/" + link
	}
	full := n.baseURL + link
	return &full
}
