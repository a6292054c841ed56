package scraper

import (
	"errors"
	"testing"
)

func TestExtractListings_PropertiesAndSearchFast(t *testing.T) {
	listings, err := ExtractListings(loadFixture(t, "search_page.html"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(listings) != 3 {
		t.Fatalf("expected 3 listings, got %d", len(listings))
	}

	wantTitles := []string{"Depto 1 dormitorio", "Monoambiente", "Duplex amoblado"}
	for i, want := range wantTitles {
		if got, _ := asString(listings[i]["title"]); got != want {
			t.Fatalf("listing %d: expected %q, got %q", i, want, got)
		}
	}
}

func TestExtractListings_PropertyWithDuplicates(t *testing.T) {
	listings, err := ExtractListings(loadFixture(t, "property_page.html"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected main property plus duplicate, got %d", len(listings))
	}
	if id, _ := asText(listings[0]["id"]); id != "2001" {
		t.Fatalf("expected main property first, got %s", id)
	}
	if id, _ := asText(listings[1]["id"]); id != "2002" {
		t.Fatalf("expected duplicate second, got %s", id)
	}
}

func TestExtractListings_NoDocument(t *testing.T) {
	_, err := ExtractListings(loadFixture(t, "no_document.html"))
	if !errors.Is(err, ErrNoEmbeddedDocument) {
		t.Fatalf("expected ErrNoEmbeddedDocument, got %v", err)
	}
}

func TestExtractListings_Malformed(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"invalid json", `<script id="__NEXT_DATA__" type="application/json">{"props": </script>`},
		{"no pageProps", `<script id="__NEXT_DATA__" type="application/json">{"props": {}}</script>`},
		{"pageProps not object", `<script id="__NEXT_DATA__" type="application/json">{"props": {"pageProps": []}}</script>`},
	}
	for _, tt := range tests {
		_, err := ExtractListings([]byte(tt.html))
		if !errors.Is(err, ErrMalformedDocument) {
			t.Fatalf("%s: expected ErrMalformedDocument, got %v", tt.name, err)
		}
	}
}

func TestExtractListings_EmptyPageProps(t *testing.T) {
	html := `<script id="__NEXT_DATA__" type="application/json">{"props": {"pageProps": {"seo": {}}}}</script>`
	listings, err := ExtractListings([]byte(html))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if listings == nil || len(listings) != 0 {
		t.Fatalf("expected empty, non-nil collection, got %#v", listings)
	}
}
