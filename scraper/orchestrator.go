package scraper

import (
	"context"

	"inmo_scrooper/catalog"
	"inmo_scrooper/logging"
	"inmo_scrooper/models"
)

// Orchestrator turns a complete filter into a SearchResult. It always returns
// a result; upstream trouble shows up as an empty one.
type Orchestrator struct {
	planner    *Planner
	normalizer *Normalizer
	catalog    *catalog.Catalog
}

func NewOrchestrator(planner *Planner, normalizer *Normalizer, c *catalog.Catalog) *Orchestrator {
	return &Orchestrator{
		planner:    planner,
		normalizer: normalizer,
		catalog:    c,
	}
}

func (o *Orchestrator) Search(ctx context.Context, f models.SearchFilter) (models.SearchResult, CascadeReport) {
	raws, report := o.planner.Search(ctx, f)
	listings := o.normalizer.NormalizeAll(raws)

	before := len(listings)
	listings = ApplyPriceCeiling(listings, f.PriceMax)
	if dropped := before - len(listings); dropped > 0 {
		logging.Debugf("orchestrator", "Dropped %d listings above price ceiling", dropped)
	}

	result := models.SearchResult{
		Total:         len(listings),
		LocationLabel: o.locationLabel(f),
		Listings:      make([]models.PositionedListing, 0, len(listings)),
	}
	for i, l := range listings {
		result.Listings = append(result.Listings, models.PositionedListing{Position: i + 1, Listing: l})
	}

	logging.Infof("orchestrator", "%s/%s in %s: %d listings (tier %d)",
		f.Operation, f.PropertyType, f.Location, result.Total, report.Tier)
	return result, report
}

func (o *Orchestrator) locationLabel(f models.SearchFilter) string {
	if f.LocationLabel != "" {
		return f.LocationLabel
	}
	return o.catalog.DisplayName(f.Location)
}

// ApplyPriceCeiling drops listings priced above max, and those without a
// price, since the source does not always honour precio_hasta. Only the
// ceiling is enforced here; precio_desde is left to the source.
func ApplyPriceCeiling(listings []models.Listing, max *float64) []models.Listing {
	if max == nil || *max <= 0 {
		return listings
	}
	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if l.Price.Amount != nil && *l.Price.Amount <= *max {
			out = append(out, l)
		}
	}
	return out
}
