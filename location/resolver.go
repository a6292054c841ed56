package location

import (
	"regexp"
	"strings"

	"inmo_scrooper/catalog"
)

// Pass identifies which table produced a match. Lower passes win.
type Pass int

const (
	PassAlias Pass = iota + 1
	PassNeighbourhood
	PassCity
	PassDepartment
)

func (p Pass) String() string {
	switch p {
	case PassAlias:
		return "alias"
	case PassNeighbourhood:
		return "neighbourhood"
	case PassCity:
		return "city"
	case PassDepartment:
		return "department"
	default:
		return "none"
	}
}

type Match struct {
	Slug string
	Pass Pass
}

type candidate struct {
	slug    string
	pattern *regexp.Regexp
}

// Resolver maps free text to a location slug. All patterns are compiled up
// front; Resolve holds no state and is safe for concurrent use.
type Resolver struct {
	catalog *catalog.Catalog
	passes  [][]candidate
}

func NewResolver(c *catalog.Catalog) *Resolver {
	r := &Resolver{catalog: c}

	var aliases []candidate
	for _, alias := range c.Aliases() {
		aliases = append(aliases, candidates(alias.Slug, alias.Names)...)
	}

	r.passes = [][]candidate{
		aliases,
		slugCandidates(c.Neighbourhoods()),
		slugCandidates(c.Cities()),
		slugCandidates(c.Departments()),
	}
	return r
}

func (r *Resolver) Catalog() *catalog.Catalog {
	return r.catalog
}

// Resolve returns the slug of the first location mentioned in text.
func (r *Resolver) Resolve(text string) (string, bool) {
	m, ok := r.ResolveMatch(text)
	return m.Slug, ok
}

// ResolveMatch is Resolve plus the table the match came from.
func (r *Resolver) ResolveMatch(text string) (Match, bool) {
	normalized := Fold(text)
	if strings.TrimSpace(normalized) == "" {
		return Match{}, false
	}

	for i, pass := range r.passes {
		for _, cand := range pass {
			if cand.pattern.MatchString(normalized) {
				return Match{Slug: cand.slug, Pass: Pass(i + 1)}, true
			}
		}
	}
	return Match{}, false
}

func slugCandidates(slugs []string) []candidate {
	var out []candidate
	for _, slug := range slugs {
		out = append(out, candidates(slug, []string{slug})...)
	}
	return out
}

// candidates builds one whole-word pattern per distinct folded name. Hyphens
// in slugs are matched as spaces.
func candidates(slug string, names []string) []candidate {
	seen := make(map[string]bool, len(names))
	var out []candidate
	for _, name := range names {
		folded := strings.TrimSpace(Fold(strings.ReplaceAll(name, "-", " ")))
		if folded == "" || seen[folded] {
			continue
		}
		seen[folded] = true
		out = append(out, candidate{
			slug:    slug,
			pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(folded) + `\b`),
		})
	}
	return out
}
