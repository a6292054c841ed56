package scraper

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"inmo_scrooper/catalog"
	"inmo_scrooper/httputil"
	"inmo_scrooper/logging"
	"inmo_scrooper/models"
)

var typeSlugs = map[models.PropertyType]string{
	models.PropertyApartment:       "departamentos",
	models.PropertyDepartment:      "departamentos",
	models.PropertyHouse:           "casas",
	models.PropertyLand:            "terrenos",
	models.PropertyLot:             "terrenos",
	models.PropertyStore:           "locales",
	models.PropertyCommercialStore: "locales",
	models.PropertyOffice:          "oficinas",
	models.PropertyGarage:          "cocheras",
	models.PropertyParking:         "cocheras",
	models.PropertyFarm:            "campos",
	models.PropertyRanch:           "campos",
	models.PropertyDuplex:          "duplex",
	models.PropertyPenthouse:       "penthouse",
	models.PropertyAny:             "inmuebles",
	models.PropertyHousesAndApts:   "casas-y-departamentos",
}

var (
	houseKeywords     = []string{"casa"}
	apartmentKeywords = []string{"apartamento", "departamento", "depto"}
)

// TypeSlug is the URL segment for a property type. Unknown types are
// pluralised the way the source does it.
func TypeSlug(pt models.PropertyType) string {
	if slug, ok := typeSlugs[pt]; ok {
		return slug
	}
	return string(pt) + "s"
}

// CascadeReport describes how a search was satisfied. Tier is 0 when every
// tier came back empty.
type CascadeReport struct {
	Tier  int      `json:"tier"`
	Paths []string `json:"paths"`
}

// LastPath is the path of the final tier attempted.
func (r CascadeReport) LastPath() string {
	if len(r.Paths) == 0 {
		return ""
	}
	return r.Paths[len(r.Paths)-1]
}

type Planner struct {
	catalog *catalog.Catalog
	fetcher httputil.Fetcher
	baseURL string
}

func NewPlanner(c *catalog.Catalog, fetcher httputil.Fetcher, baseURL string) *Planner {
	return &Planner{
		catalog: c,
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// BuildPath returns the hierarchical listing path, e.g.
// "venta/casas/central/luque".
func (p *Planner) BuildPath(op models.Operation, pt models.PropertyType, location string) string {
	prefix := string(op) + "/" + TypeSlug(pt) + "/"
	capital := p.catalog.Capital()

	switch {
	case p.catalog.IsCapital(location):
		return prefix + capital
	case p.catalog.IsDepartment(location):
		return prefix + location
	}
	if dept, ok := p.catalog.Parent(location); ok {
		return prefix + dept + "/" + location
	}
	if p.catalog.IsNeighbourhood(location) {
		return prefix + capital + "/" + location
	}
	return prefix + location
}

// QueryParams carries the non-path filters. Zero values are left out.
func QueryParams(f models.SearchFilter) url.Values {
	params := url.Values{}
	if page := f.EffectivePage(); page > 1 {
		params.Set("pagina", strconv.Itoa(page))
	}
	if f.PriceMin != nil && *f.PriceMin > 0 {
		params.Set("precio_desde", strconv.FormatFloat(*f.PriceMin, 'f', -1, 64))
	}
	if f.PriceMax != nil && *f.PriceMax > 0 {
		params.Set("precio_hasta", strconv.FormatFloat(*f.PriceMax, 'f', -1, 64))
	}
	if f.Bedrooms != nil && *f.Bedrooms > 0 {
		params.Set("dormitorios", strconv.Itoa(*f.Bedrooms))
	}
	if f.Bathrooms != nil && *f.Bathrooms > 0 {
		params.Set("banos", strconv.Itoa(*f.Bathrooms))
	}
	return params
}

func (p *Planner) URL(path string, params url.Values) string {
	u := p.baseURL + "/" + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// Search runs the fallback cascade: the exact type, then the combined
// houses-and-apartments category filtered locally, then every property.
// Each tier only runs once the previous one is known to be empty.
func (p *Planner) Search(ctx context.Context, f models.SearchFilter) ([]models.RawListing, CascadeReport) {
	var report CascadeReport

	listings, path := p.fetchTier(ctx, f, f.PropertyType)
	report.Paths = append(report.Paths, path)
	if len(listings) > 0 {
		report.Tier = 1
		return listings, report
	}

	if f.PropertyType.IsResidential() {
		listings, path = p.fetchTier(ctx, f, models.PropertyHousesAndApts)
		report.Paths = append(report.Paths, path)
		listings = filterByTypeLabel(listings, f.PropertyType)
		if len(listings) > 0 {
			report.Tier = 2
			return listings, report
		}
	}

	if !f.PropertyType.IsGeneral() {
		listings, path = p.fetchTier(ctx, f, models.PropertyAny)
		report.Paths = append(report.Paths, path)
		if len(listings) > 0 {
			report.Tier = 3
			return listings, report
		}
	}

	logging.Infof("planner", "No listings for %s/%s in %s after %d tiers", f.Operation, f.PropertyType, f.Location, len(report.Paths))
	return []models.RawListing{}, report
}

func (p *Planner) fetchTier(ctx context.Context, f models.SearchFilter, pt models.PropertyType) ([]models.RawListing, string) {
	path := p.BuildPath(f.Operation, pt, f.Location)
	target := p.URL(path, QueryParams(f))
	logging.Infof("planner", "Searching %s", target)

	body, err := p.fetcher.Fetch(ctx, target)
	if err != nil {
		logging.Warnf("planner", "Warning: fetch %s: %v", path, err)
		return nil, path
	}

	listings, err := ExtractListings(body)
	if err != nil {
		if errors.Is(err, ErrNoEmbeddedDocument) {
			logging.Warnf("planner", "Warning: %s: %v", path, err)
		} else {
			logging.Errorf("planner", "Parse error for %s: %v", path, err)
		}
		return nil, path
	}

	logging.Debugf("planner", "%s: %d listings", path, len(listings))
	return listings, path
}

func filterByTypeLabel(listings []models.RawListing, pt models.PropertyType) []models.RawListing {
	keywords := apartmentKeywords
	if pt == models.PropertyHouse {
		keywords = houseKeywords
	}

	var out []models.RawListing
	for _, raw := range listings {
		if containsAny(TypeLabel(raw), keywords) {
			out = append(out, raw)
		}
	}
	return out
}
