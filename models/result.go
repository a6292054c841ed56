package models

type PositionedListing struct {
	Position int `json:"position"`
	Listing
}

type SearchResult struct {
	Total         int                 `json:"total"`
	LocationLabel string              `json:"location_label"`
	Listings      []PositionedListing `json:"listings"`
}

// SearchOutcome wraps a result for callers that start from free text. When the
// filter is still incomplete Missing is set and Result is nil.
type SearchOutcome struct {
	Filter  SearchFilter  `json:"filter"`
	Missing []string      `json:"missing,omitempty"`
	Result  *SearchResult `json:"result,omitempty"`
}

func (o SearchOutcome) Insufficient() bool {
	return len(o.Missing) > 0
}

// Clone returns a result that shares no memory with r, so callers may edit
// their copy freely.
func (r SearchResult) Clone() SearchResult {
	if r.Listings == nil {
		return r
	}
	listings := make([]PositionedListing, len(r.Listings))
	for i, l := range r.Listings {
		listings[i] = PositionedListing{Position: l.Position, Listing: l.Listing.Clone()}
	}
	r.Listings = listings
	return r
}
