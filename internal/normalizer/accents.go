package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics removes combining marks from s, leaving the base runes.
// Brand directory scrapes occasionally carry accented vendor names (e.g.
// "Café Depot"); stripping the marks leaves their base letters. The brand
// similarity scorer does its own unaccenting and does not call this.
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	out, _, _ := transform.String(t, s)
	return out
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// FoldForCompare strips diacritics and lowercases, for use only in fuzzy
// comparison paths — canonical dedup keys stay uppercase, see Normalize.
func FoldForCompare(s string) string {
	return strings.ToLower(StripDiacritics(s))
}
