package scraper

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"inmo_scrooper/models"
)

var (
	ErrNoEmbeddedDocument = errors.New("page has no __NEXT_DATA__ document")
	ErrMalformedDocument  = errors.New("malformed __NEXT_DATA__ document")
)

type listingShape struct {
	name    string
	extract func(pageProps map[string]any) []models.RawListing
}

// listingShapes are the layouts the source has used for pageProps. Every shape
// present contributes, in this order.
var listingShapes = []listingShape{
	{"property", propertyWithDuplicates},
	{"properties", flatProperties},
	{"searchFast", searchFastResults},
}

// ExtractListings pulls the raw listing objects out of a search page.
func ExtractListings(body []byte) ([]models.RawListing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	script := doc.Find(`script#__NEXT_DATA__`).First()
	if script.Length() == 0 {
		return nil, ErrNoEmbeddedDocument
	}
	text := strings.TrimSpace(script.Text())
	if text == "" {
		return nil, ErrNoEmbeddedDocument
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var document map[string]any
	if err := dec.Decode(&document); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	props, _ := asMap(document["props"])
	pageProps, ok := asMap(props["pageProps"])
	if !ok {
		return nil, fmt.Errorf("%w: missing props.pageProps", ErrMalformedDocument)
	}

	listings := []models.RawListing{}
	for _, shape := range listingShapes {
		listings = append(listings, shape.extract(pageProps)...)
	}
	return listings, nil
}

func propertyWithDuplicates(pageProps map[string]any) []models.RawListing {
	fetchResult, _ := asMap(pageProps["fetchResult"])
	property, ok := asMap(fetchResult["property"])
	if !ok {
		return nil
	}
	out := []models.RawListing{property}
	dups, _ := asSlice(property["duplicated"])
	return append(out, rawList(dups)...)
}

func flatProperties(pageProps map[string]any) []models.RawListing {
	list, _ := asSlice(pageProps["properties"])
	return rawList(list)
}

func searchFastResults(pageProps map[string]any) []models.RawListing {
	fetchResult, _ := asMap(pageProps["fetchResult"])
	searchFast, _ := asMap(fetchResult["searchFast"])
	data, _ := asSlice(searchFast["data"])
	return rawList(data)
}

// rawList keeps only object entries.
func rawList(items []any) []models.RawListing {
	var out []models.RawListing
	for _, item := range items {
		if m, ok := asMap(item); ok {
			out = append(out, m)
		}
	}
	return out
}
