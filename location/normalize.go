package location

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var multiSpaceRegex = regexp.MustCompile(`\s+`)

// Fold lowercases s and strips diacritics, so "Asunción" and "ÑEMBY" become
// "asuncion" and "nemby".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}

// Slugify turns a typed location name into a URL slug: "San Bernardino" ->
// "san-bernardino". Empty input stays empty.
func Slugify(s string) string {
	s = strings.TrimSpace(Fold(s))
	return multiSpaceRegex.ReplaceAllString(s, "-")
}
