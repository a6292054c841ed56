package catalog

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed paraguay.yaml
var paraguayYAML []byte

// Alias maps colloquial names and abbreviations to a canonical slug.
type Alias struct {
	Slug  string   `yaml:"slug"`
	Names []string `yaml:"names"`
}

type tables struct {
	Capital        string              `yaml:"capital"`
	Departments    []string            `yaml:"departments"`
	Cities         []string            `yaml:"cities"`
	Parents        map[string][]string `yaml:"parents"`
	Aliases        []Alias             `yaml:"aliases"`
	Neighbourhoods []string            `yaml:"neighbourhoods"`
	DisplayNames   map[string]string   `yaml:"display_names"`
}

// Catalog is read-only after Load and safe to share between goroutines.
type Catalog struct {
	t           tables
	parent      map[string]string
	departments map[string]bool
	cities      map[string]bool
	barrios     map[string]bool
}

type LocationOption struct {
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Department string `json:"department,omitempty"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded Paraguay catalog. It panics if the embedded
// tables are broken, which can only happen at build time.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(paraguayYAML)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded tables: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

func Load(data []byte) (*Catalog, error) {
	var t tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if t.Capital == "" {
		return nil, fmt.Errorf("decode catalog: missing capital")
	}

	c := &Catalog{
		t:           t,
		parent:      make(map[string]string),
		departments: toSet(t.Departments),
		cities:      toSet(t.Cities),
		barrios:     toSet(t.Neighbourhoods),
	}

	for dept, cities := range t.Parents {
		if !c.departments[dept] {
			return nil, fmt.Errorf("decode catalog: parent %q is not a department", dept)
		}
		for _, city := range cities {
			if prev, ok := c.parent[city]; ok && prev != dept {
				return nil, fmt.Errorf("decode catalog: city %q has two parents (%s, %s)", city, prev, dept)
			}
			c.parent[city] = dept
		}
	}
	if _, ok := c.parent[t.Capital]; ok {
		return nil, fmt.Errorf("decode catalog: capital must not have a parent")
	}

	return c, nil
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func (c *Catalog) Capital() string { return c.t.Capital }

// Departments, Cities, Neighbourhoods and Aliases return copies in table order.
func (c *Catalog) Departments() []string    { return append([]string(nil), c.t.Departments...) }
func (c *Catalog) Cities() []string         { return append([]string(nil), c.t.Cities...) }
func (c *Catalog) Neighbourhoods() []string { return append([]string(nil), c.t.Neighbourhoods...) }

func (c *Catalog) Aliases() []Alias {
	out := make([]Alias, len(c.t.Aliases))
	for i, a := range c.t.Aliases {
		out[i] = Alias{Slug: a.Slug, Names: append([]string(nil), a.Names...)}
	}
	return out
}

func (c *Catalog) IsCapital(slug string) bool       { return slug == c.t.Capital }
func (c *Catalog) IsDepartment(slug string) bool    { return c.departments[slug] }
func (c *Catalog) IsCity(slug string) bool          { return c.cities[slug] }
func (c *Catalog) IsNeighbourhood(slug string) bool { return c.barrios[slug] }

// Parent returns the department a city belongs to.
func (c *Catalog) Parent(slug string) (string, bool) {
	dept, ok := c.parent[slug]
	return dept, ok
}

// Known reports whether slug appears in any location table.
func (c *Catalog) Known(slug string) bool {
	return c.IsCapital(slug) || c.IsDepartment(slug) || c.IsCity(slug) || c.IsNeighbourhood(slug)
}

// DisplayName returns a human-readable name for a slug.
func (c *Catalog) DisplayName(slug string) string {
	if name, ok := c.t.DisplayNames[slug]; ok {
		return name
	}
	return TitleSlug(slug)
}

var titleCaser = cases.Title(language.Spanish)

// TitleSlug turns "villa-elisa" into "Villa Elisa".
func TitleSlug(slug string) string {
	return titleCaser.String(strings.ReplaceAll(slug, "-", " "))
}

// Options lists departments then cities for selection menus.
func (c *Catalog) Options() []LocationOption {
	opts := make([]LocationOption, 0, len(c.t.Departments)+len(c.t.Cities))
	for _, d := range c.t.Departments {
		opts = append(opts, LocationOption{Slug: d, Name: c.DisplayName(d), Kind: "department"})
	}
	for _, city := range c.t.Cities {
		opt := LocationOption{Slug: city, Name: c.DisplayName(city), Kind: "city"}
		if dept, ok := c.parent[city]; ok {
			opt.Department = dept
		}
		opts = append(opts, opt)
	}
	return opts
}
