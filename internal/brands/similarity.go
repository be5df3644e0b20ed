package brands

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/mozillazg/go-unidecode"
	"github.com/xrash/smetrics"
)

// StreetSimilarity blends Jaro-Winkler (weight 0.7) and normalized
// Levenshtein (weight 0.3) on unaccented, lowercased input, standing in for
// the source's Ratcliff/Obershelp ratio (the pack carries no implementation
// of that specific algorithm).
func StreetSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	a, b = unaccent(a), unaccent(b)
	if a == b {
		return 1
	}
	jw := smetrics.JaroWinkler(a, b, 0.7, 4)
	ld := levenshtein.ComputeDistance(a, b)
	den := float64(maxInt(len(a), len(b)))
	lev := 1.0
	if den > 0 {
		lev = 1.0 - float64(ld)/den
	}
	const jwWeight, levWeight = 0.7, 0.3
	score := jwWeight*jw + levWeight*lev
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func unaccent(s string) string {
	return strings.ToLower(unidecode.Unidecode(s))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
