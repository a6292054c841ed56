package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"inmo_scrooper/location"
	"inmo_scrooper/models"
)

var (
	streetReplacements = map[string]string{
		"avenida":      "avda",
		"av":           "avda",
		"calle":        "c",
		"esquina":      "esq",
		"casi":         "c/",
		"barrio":       "b",
		"edificio":     "edif",
		"departamento": "dpto",
		"depto":        "dpto",
		"piso":         "p",
		"numero":       "n",
		"nro":          "n",
		"doctor":       "dr",
		"general":      "gral",
		"mariscal":     "mcal",
		"coronel":      "cnel",
		"presidente":   "pdte",
	}
	multiSpaceRegex = regexp.MustCompile(`\s+`)
	nonAlnumRegex   = regexp.MustCompile(`[^a-z0-9/\s]`)
)

// Fingerprint identifies a listing that carries neither an ID nor a link, so
// the same ad seen twice produces the same key.
func Fingerprint(l models.Listing) string {
	input := fmt.Sprintf("%s|%s|%s|%s|%s|%d|%d",
		NormalizeAddress(l.Title),
		NormalizeAddress(deref(l.Location.Address)),
		NormalizeAddress(deref(l.Location.City)),
		l.PriceText(),
		strings.ToLower(l.PropertyType),
		intOr(l.Features.Bedrooms),
		intOr(l.Features.Bathrooms),
	)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16])
}

// NormalizeAddress folds accents and case and abbreviates common street words.
func NormalizeAddress(addr string) string {
	addr = location.Fold(addr)
	addr = nonAlnumRegex.ReplaceAllString(addr, " ")
	words := strings.Fields(addr)
	for i, w := range words {
		if short, ok := streetReplacements[w]; ok {
			words[i] = short
		}
	}
	return multiSpaceRegex.ReplaceAllString(strings.Join(words, " "), " ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOr(n *int) int {
	if n == nil {
		return -1
	}
	return *n
}
