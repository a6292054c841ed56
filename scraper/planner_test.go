package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"

	"inmo_scrooper/catalog"
	"inmo_scrooper/models"
)

const testBaseURL = "https://www.infocasas.com.py"

// fakeFetcher serves canned pages by path and records every request.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string][]byte
	fail  map[string]bool
	calls []*url.URL
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: make(map[string][]byte), fail: make(map[string]bool)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, target string) ([]byte, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, u)

	path := strings.TrimPrefix(u.Path, "/")
	if f.fail[path] {
		return nil, errors.New("connection reset")
	}
	if body, ok := f.pages[path]; ok {
		return body, nil
	}
	return pageHTML(nil), nil
}

func (f *fakeFetcher) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, u := range f.calls {
		out = append(out, strings.TrimPrefix(u.Path, "/"))
	}
	return out
}

func pageHTML(listings []map[string]any) []byte {
	if listings == nil {
		listings = []map[string]any{}
	}
	doc := map[string]any{"props": map[string]any{"pageProps": map[string]any{"properties": listings}}}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return []byte(fmt.Sprintf(`<html><body><script id="__NEXT_DATA__" type="application/json">%s</script></body></html>`, data))
}

func typed(id int, label string, amount float64) map[string]any {
	return map[string]any{
		"id":            id,
		"title":         fmt.Sprintf("%s %d", label, id),
		"property_type": map[string]any{"name": label},
		"price":         map[string]any{"amount": amount, "currency": map[string]any{"name": "U$S"}},
	}
}

func newTestPlanner(f *fakeFetcher) *Planner {
	return NewPlanner(catalog.Default(), f, testBaseURL)
}

func TestBuildPath(t *testing.T) {
	p := newTestPlanner(newFakeFetcher())

	tests := []struct {
		op   models.Operation
		pt   models.PropertyType
		loc  string
		want string
	}{
		{models.OperationSale, models.PropertyHouse, "asuncion", "venta/casas/asuncion"},
		{models.OperationRental, models.PropertyApartment, "central", "alquiler/departamentos/central"},
		{models.OperationSale, models.PropertyHouse, "luque", "venta/casas/central/luque"},
		{models.OperationSale, models.PropertyLand, "ciudad-del-este", "venta/terrenos/alto-parana/ciudad-del-este"},
		{models.OperationRental, models.PropertyDepartment, "villa-morra", "alquiler/departamentos/asuncion/villa-morra"},
		{models.OperationSale, models.PropertyHouse, "san-antonio", "venta/casas/central/san-antonio"},
		{models.OperationSale, models.PropertyLand, "concepcion", "venta/terrenos/concepcion"},
		{models.OperationSale, models.PropertyHouse, "atlantida", "venta/casas/atlantida"},
		{models.OperationSale, models.PropertyType("quinta"), "luque", "venta/quintas/central/luque"},
		{models.OperationRental, models.PropertyParking, "asuncion", "alquiler/cocheras/asuncion"},
		{models.OperationSale, models.PropertyHousesAndApts, "encarnacion", "venta/casas-y-departamentos/itapua/encarnacion"},
	}

	for _, tt := range tests {
		if got := p.BuildPath(tt.op, tt.pt, tt.loc); got != tt.want {
			t.Fatalf("BuildPath(%s, %s, %s) = %s, want %s", tt.op, tt.pt, tt.loc, got, tt.want)
		}
	}
}

func TestQueryParams(t *testing.T) {
	params := QueryParams(models.SearchFilter{Page: 1})
	if len(params) != 0 {
		t.Fatalf("expected no params for a bare first page, got %v", params)
	}

	params = QueryParams(models.SearchFilter{
		Page:      3,
		PriceMin:  models.Float64(50000),
		PriceMax:  models.Float64(150000),
		Bedrooms:  models.Int(2),
		Bathrooms: models.Int(0),
	})
	want := map[string]string{
		"pagina":       "3",
		"precio_desde": "50000",
		"precio_hasta": "150000",
		"dormitorios":  "2",
	}
	for k, v := range want {
		if params.Get(k) != v {
			t.Fatalf("param %s: expected %s, got %q", k, v, params.Get(k))
		}
	}
	if params.Has("banos") {
		t.Fatalf("zero bathrooms should be omitted")
	}
}

func TestSearch_Tier1HitSkipsFallbacks(t *testing.T) {
	f := newFakeFetcher()
	f.pages["venta/departamentos/asuncion"] = pageHTML([]map[string]any{typed(1, "Departamento", 90000)})

	listings, report := newTestPlanner(f).Search(context.Background(), models.SearchFilter{
		Operation:    models.OperationSale,
		PropertyType: models.PropertyApartment,
		Location:     "asuncion",
	})

	if len(listings) != 1 || report.Tier != 1 {
		t.Fatalf("expected 1 listing from tier 1, got %d (tier %d)", len(listings), report.Tier)
	}
	if calls := f.paths(); len(calls) != 1 {
		t.Fatalf("expected exactly one fetch, got %v", calls)
	}
}

func TestSearch_Tier2FiltersApartments(t *testing.T) {
	f := newFakeFetcher()
	f.pages["alquiler/casas-y-departamentos/central/luque"] = pageHTML([]map[string]any{
		typed(1, "Casa", 700),
		typed(2, "Departamento", 450),
		typed(3, "Casa quinta", 900),
		typed(4, "Depto. en pozo", 400),
		typed(5, "Dúplex", 500),
		typed(6, "APARTAMENTO", 520),
	})

	listings, report := newTestPlanner(f).Search(context.Background(), models.SearchFilter{
		Operation:    models.OperationRental,
		PropertyType: models.PropertyApartment,
		Location:     "luque",
		Bedrooms:     models.Int(2),
	})

	if report.Tier != 2 {
		t.Fatalf("expected tier 2, got %d", report.Tier)
	}
	if len(listings) != 3 {
		t.Fatalf("expected 3 apartment listings, got %d", len(listings))
	}
	for _, raw := range listings {
		label := strings.ToLower(TypeLabel(raw))
		if !strings.Contains(label, "apartamento") && !strings.Contains(label, "departamento") && !strings.Contains(label, "depto") {
			t.Fatalf("non-apartment listing leaked through: %s", label)
		}
	}

	calls := f.paths()
	wantPaths := []string{"alquiler/departamentos/central/luque", "alquiler/casas-y-departamentos/central/luque"}
	if strings.Join(calls, ",") != strings.Join(wantPaths, ",") {
		t.Fatalf("expected paths %v, got %v", wantPaths, calls)
	}
	for _, u := range f.calls {
		if u.Query().Get("dormitorios") != "2" {
			t.Fatalf("tier %s lost the bedroom filter", u.Path)
		}
	}
}

func TestSearch_Tier2FiltersHouses(t *testing.T) {
	f := newFakeFetcher()
	f.pages["venta/casas-y-departamentos/asuncion"] = pageHTML([]map[string]any{
		typed(1, "Casa", 200000),
		typed(2, "Departamento", 100000),
		typed(3, "Casa quinta", 300000),
	})

	listings, report := newTestPlanner(f).Search(context.Background(), models.SearchFilter{
		Operation:    models.OperationSale,
		PropertyType: models.PropertyHouse,
		Location:     "asuncion",
	})

	if report.Tier != 2 || len(listings) != 2 {
		t.Fatalf("expected 2 houses from tier 2, got %d (tier %d)", len(listings), report.Tier)
	}
}

func TestSearch_Tier3WhenFilteredTier2IsEmpty(t *testing.T) {
	f := newFakeFetcher()
	f.pages["venta/casas-y-departamentos/asuncion"] = pageHTML([]map[string]any{typed(1, "Departamento", 1)})
	f.pages["venta/inmuebles/asuncion"] = pageHTML([]map[string]any{typed(2, "Oficina", 1), typed(3, "Casa", 1)})

	listings, report := newTestPlanner(f).Search(context.Background(), models.SearchFilter{
		Operation:    models.OperationSale,
		PropertyType: models.PropertyHouse,
		Location:     "asuncion",
	})

	if report.Tier != 3 || len(listings) != 2 {
		t.Fatalf("expected both tier 3 listings unfiltered, got %d (tier %d)", len(listings), report.Tier)
	}
	if len(report.Paths) != 3 || report.LastPath() != "venta/inmuebles/asuncion" {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestSearch_NonResidentialSkipsTier2(t *testing.T) {
	f := newFakeFetcher()
	f.pages["venta/inmuebles/cordillera/san-bernardino"] = pageHTML([]map[string]any{typed(1, "Terreno", 30000)})

	listings, report := newTestPlanner(f).Search(context.Background(), models.SearchFilter{
		Operation:    models.OperationSale,
		PropertyType: models.PropertyLand,
		Location:     "san-bernardino",
	})

	if report.Tier != 3 || len(listings) != 1 {
		t.Fatalf("expected tier 3 hit, got %d (tier %d)", len(listings), report.Tier)
	}
	calls := f.paths()
	if len(calls) != 2 || calls[0] != "venta/terrenos/cordillera/san-bernardino" {
		t.Fatalf("unexpected fetch sequence %v", calls)
	}
}

func TestSearch_GeneralTypesDoNotBroaden(t *testing.T) {
	for _, pt := range []models.PropertyType{models.PropertyAny, models.PropertyHousesAndApts} {
		f := newFakeFetcher()
		listings, report := newTestPlanner(f).Search(context.Background(), models.SearchFilter{
			Operation:    models.OperationSale,
			PropertyType: pt,
			Location:     "asuncion",
		})
		if listings == nil || len(listings) != 0 || report.Tier != 0 {
			t.Fatalf("%s: expected empty result, got %d (tier %d)", pt, len(listings), report.Tier)
		}
		if calls := f.paths(); len(calls) != 1 {
			t.Fatalf("%s: expected a single fetch, got %v", pt, calls)
		}
	}
}

func TestSearch_TransportFailureIsEmptyTier(t *testing.T) {
	f := newFakeFetcher()
	f.fail["venta/casas/central/luque"] = true
	f.pages["venta/casas-y-departamentos/central/luque"] = pageHTML([]map[string]any{typed(1, "Casa", 1)})

	listings, report := newTestPlanner(f).Search(context.Background(), models.SearchFilter{
		Operation:    models.OperationSale,
		PropertyType: models.PropertyHouse,
		Location:     "luque",
	})

	if report.Tier != 2 || len(listings) != 1 {
		t.Fatalf("expected fallback to tier 2 after transport failure, got %d (tier %d)", len(listings), report.Tier)
	}
}

func TestSearch_AllTiersEmpty(t *testing.T) {
	f := newFakeFetcher()
	f.pages["venta/departamentos/asuncion"] = []byte("<html>mantenimiento</html>")

	listings, report := newTestPlanner(f).Search(context.Background(), models.SearchFilter{
		Operation:    models.OperationSale,
		PropertyType: models.PropertyApartment,
		Location:     "asuncion",
	})

	if len(listings) != 0 || report.Tier != 0 || len(report.Paths) != 3 {
		t.Fatalf("expected three empty tiers, got %d listings, report %+v", len(listings), report)
	}
}
