package services

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"inmo_scrooper/location"
	"inmo_scrooper/models"
)

var ErrIncompleteFilter = errors.New("incomplete search filter")

var (
	rentalWords    = []string{"alquiler", "alquilar", "rentar", "arrendar"}
	saleWords      = []string{"venta", "comprar", "compra", "vendo", "invertir", "inversion"}
	apartmentWords = []string{"apartamento", "depto", "departamento", "apto"}
	landWords      = []string{"terreno", "lote", "fraccionamiento"}

	budgetRegex  = regexp.MustCompile(`(?:hasta|max|maximo|presupuesto de|alrededor de)\s*(?:u\$s|usd|gs|guaranies)?\s*(\d+(?:\.\d+)?)\s*(millones|millon|mil|k)?`)
	bedroomRegex = regexp.MustCompile(`(\d+)\s*(?:dorm|hab|cuarto|pieza|habitacion)`)
)

type budgetPhrase struct {
	phrases []string
	amount  float64
}

// Spelled-out amounts, checked before the numeric pattern.
var budgetPhrases = []budgetPhrase{
	{[]string{"millon y medio", "un millon medio"}, 1500000},
	{[]string{"dos millones", "2 millones"}, 2000000},
	{[]string{"tres millones", "3 millones"}, 3000000},
	{[]string{"un millon", "1 millon"}, 1000000},
}

// ParseQuery reads whatever filter components a message mentions. Anything
// not mentioned is left unset so the result can be merged onto an earlier
// filter with models.MergeFilter.
func ParseQuery(resolver *location.Resolver, text string) models.SearchFilter {
	msg := location.Fold(text)
	var f models.SearchFilter

	switch {
	case containsAny(msg, rentalWords):
		f.Operation = models.OperationRental
	case containsAny(msg, saleWords):
		f.Operation = models.OperationSale
	}

	switch {
	case containsAny(msg, apartmentWords):
		f.PropertyType = models.PropertyApartment
	case strings.Contains(msg, "casa"):
		f.PropertyType = models.PropertyHouse
	case containsAny(msg, landWords):
		f.PropertyType = models.PropertyLand
	}

	if slug, ok := resolver.Resolve(msg); ok {
		f.Location = slug
		f.LocationLabel = resolver.Catalog().DisplayName(slug)
	}

	if budget, ok := parseBudget(msg); ok {
		f.PriceMax = &budget
	}

	if m := bedroomRegex.FindStringSubmatch(msg); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			f.Bedrooms = &n
		}
	}

	return f
}

func parseBudget(msg string) (float64, bool) {
	for _, bp := range budgetPhrases {
		if containsAny(msg, bp.phrases) {
			return bp.amount, true
		}
	}

	m := budgetRegex.FindStringSubmatch(msg)
	if m == nil {
		return 0, false
	}
	// dots are thousands separators: "150.000"
	n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ".", ""), 64)
	if err != nil {
		return 0, false
	}
	switch {
	case strings.HasPrefix(m[2], "millon"):
		n *= 1000000
	case m[2] == "mil" || m[2] == "k":
		n *= 1000
	}
	if n <= 0 {
		return 0, false
	}
	return n, true
}

// CheckComplete returns ErrIncompleteFilter naming the missing components.
func CheckComplete(f models.SearchFilter) error {
	if missing := f.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncompleteFilter, strings.Join(missing, ", "))
	}
	return nil
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
