// Package title scores title similarity and picks the best publisher
// candidate for a preprint title.
package title

import (
	"math"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Threshold is the minimum similarity a candidate must reach to be accepted.
const Threshold = 0.75

// AllowedTypes lists the work types that count as a journal publication.
// Book chapters, posted content and the like are excluded.
var AllowedTypes = map[string]bool{
	"journal-article":     true,
	"proceedings-article": true,
}

// Similarity returns the case-insensitive Ratcliff/Obershelp similarity of
// two titles in [0, 1]. Titles are compared rune by rune.
func Similarity(a, b string) float64 {
	m := difflib.NewMatcher(splitRunes(strings.ToLower(a)), splitRunes(strings.ToLower(b)))
	return m.Ratio()
}

// Allowed reports whether a work type is in AllowedTypes.
func Allowed(workType string) bool {
	return AllowedTypes[strings.ToLower(strings.TrimSpace(workType))]
}

// Round2 rounds a score to two decimals for output.
func Round2(score float64) float64 {
	return math.Round(score*100) / 100
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
