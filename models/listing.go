package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// RawListing is one listing object exactly as decoded from the source page.
type RawListing map[string]any

type Image struct {
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
	Alt       string `json:"alt"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Price struct {
	Amount   *float64 `json:"amount"`
	Currency string   `json:"currency"`
}

type ListingLocation struct {
	City          *string      `json:"city"`
	Neighbourhood *string      `json:"neighbourhood"`
	Department    *string      `json:"department"`
	Address       *string      `json:"address"`
	Coordinates   *Coordinates `json:"coordinates,omitempty"`
}

type Features struct {
	Bedrooms  *int     `json:"bedrooms"`
	Bathrooms *int     `json:"bathrooms"`
	BuiltArea *float64 `json:"built_area"`
	LotArea   *float64 `json:"lot_area"`
	Age       *int     `json:"age"`
	Garages   *int     `json:"garages"`
}

type Owner struct {
	Name     *string `json:"name"`
	WhatsApp *string `json:"whatsapp"`
}

// Listing is the canonical shape of a listing regardless of which payload
// variant it came from. Unknown values are nil, never guessed.
type Listing struct {
	ID           *string         `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	PropertyType string          `json:"property_type"`
	Price        Price           `json:"price"`
	Location     ListingLocation `json:"location"`
	Features     Features        `json:"features"`
	Images       []Image         `json:"images"`
	Featured     bool            `json:"featured"`
	Owner        Owner           `json:"owner"`
	URL          *string         `json:"url"`
	PublishedAt  *string         `json:"published_at"`
}

var (
	urlRegex   = regexp.MustCompile(`https?://\S+|www\.\S+`)
	phoneRegex = regexp.MustCompile(`\+?\d{2,4}[\s-]?\d{3,4}[\s-]?\d{3,4}`)
	spaceRegex = regexp.MustCompile(`\s+`)
)

// SafeTitle strips links and phone numbers that agents paste into titles.
func (l Listing) SafeTitle() string {
	t := urlRegex.ReplaceAllString(l.Title, "")
	t = phoneRegex.ReplaceAllString(t, "")
	return strings.TrimSpace(spaceRegex.ReplaceAllString(t, " "))
}

func (l Listing) PriceText() string {
	if l.Price.Amount == nil {
		return "Precio a consultar"
	}
	return fmt.Sprintf("%s %s", l.Price.Currency, groupThousands(*l.Price.Amount))
}

func (l Listing) LocationText() string {
	var parts []string
	if l.Location.Neighbourhood != nil {
		parts = append(parts, *l.Location.Neighbourhood)
	}
	if l.Location.City != nil {
		parts = append(parts, *l.Location.City)
	} else if l.Location.Department != nil {
		parts = append(parts, *l.Location.Department)
	}
	if len(parts) == 0 {
		return "Ubicación no especificada"
	}
	return strings.Join(parts, ", ")
}

func groupThousands(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

// Clone deep-copies every pointer and slice in l.
func (l Listing) Clone() Listing {
	l.ID = clonePtr(l.ID)
	l.URL = clonePtr(l.URL)
	l.PublishedAt = clonePtr(l.PublishedAt)
	l.Price.Amount = clonePtr(l.Price.Amount)

	l.Location.City = clonePtr(l.Location.City)
	l.Location.Neighbourhood = clonePtr(l.Location.Neighbourhood)
	l.Location.Department = clonePtr(l.Location.Department)
	l.Location.Address = clonePtr(l.Location.Address)
	l.Location.Coordinates = clonePtr(l.Location.Coordinates)

	l.Features.Bedrooms = clonePtr(l.Features.Bedrooms)
	l.Features.Bathrooms = clonePtr(l.Features.Bathrooms)
	l.Features.BuiltArea = clonePtr(l.Features.BuiltArea)
	l.Features.LotArea = clonePtr(l.Features.LotArea)
	l.Features.Age = clonePtr(l.Features.Age)
	l.Features.Garages = clonePtr(l.Features.Garages)

	l.Owner.Name = clonePtr(l.Owner.Name)
	l.Owner.WhatsApp = clonePtr(l.Owner.WhatsApp)

	if l.Images != nil {
		images := make([]Image, len(l.Images))
		copy(images, l.Images)
		l.Images = images
	}
	return l
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
