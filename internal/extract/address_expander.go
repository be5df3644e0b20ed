// Package extract splits compound street-number address strings ("92, 102 &
// 112 COMMERCE PARK DR") into one geocodable address per number.
package extract

import (
	"fmt"
	"regexp"
	"strings"
)

const numPattern = `\d+(?:[A-Za-z]|½)?`

var (
	legalDescRe  = regexp.MustCompile(`(?i)\b(LOT|BLOCK|PLAN|PT\s+LOT|CONC)\s+\d`)
	highwayRe    = regexp.MustCompile(`(?i)\bHIGHWAY\s+\d+\s*&\s*\d+\b`)
	poBoxRe      = regexp.MustCompile(`(?i)\b(P\.?O\.?\s*BOX|GENERAL\s+DELIVERY|RURAL\s+ROUTE|RR\s*\d)\b`)

	commaAmpersandRe = regexp.MustCompile(`(?i)^((?:` + numPattern + `\s*,\s*)+` + numPattern + `\s*&\s*` + numPattern + `)\s+(.+)$`)
	rangeAmpersandRe = regexp.MustCompile(`(?i)^(` + numPattern + `\s*-\s*` + numPattern + `\s*&\s*` + numPattern + `)\s+(.+)$`)
	simpleAmpersandRe = regexp.MustCompile(`(?i)^(` + numPattern + `\s*&\s*` + numPattern + `)\s+(.+)$`)
	rangeCommaRe     = regexp.MustCompile(`(?i)^(` + numPattern + `\s*-\s*` + numPattern + `\s*,\s*` + numPattern + `)\s+(.+)$`)
	commaRangeRe     = regexp.MustCompile(`(?i)^(` + numPattern + `\s*,\s*` + numPattern + `\s*-\s*` + numPattern + `)\s+(.+)$`)
	endpointRangeRe  = regexp.MustCompile(`(?i)^(` + numPattern + `\s*-\s*` + numPattern + `)\s+(.+)$`)
	plainCommaListRe = regexp.MustCompile(`(?i)^((?:` + numPattern + `\s*,\s*)+` + numPattern + `)\s+(.+)$`)
)

// ExpandResult is one geocodable variant produced from a compound address.
type ExpandResult struct {
	Address      string
	Geocodable   bool
	SkipReason   string
}

// Expand splits address into one or more geocodable variants, then suffixes
// each with ", city, province" unless the suffix is already present. It
// never returns an error: unparseable or guarded input is passed through
// unchanged as a single non-split result.
func Expand(address, city, province string) []ExpandResult {
	addr := strings.TrimSpace(address)
	if addr == "" {
		return nil
	}

	if poBoxRe.MatchString(addr) {
		return []ExpandResult{{Address: suffix(addr, city, province), Geocodable: false, SkipReason: "po_box_or_rural_route"}}
	}
	if legalDescRe.MatchString(addr) || highwayRe.MatchString(addr) {
		return []ExpandResult{{Address: suffix(addr, city, province), Geocodable: true}}
	}

	numbers, street, ok := splitCompound(addr)
	if !ok {
		return []ExpandResult{{Address: suffix(addr, city, province), Geocodable: true}}
	}

	results := make([]ExpandResult, 0, len(numbers))
	for _, n := range numbers {
		results = append(results, ExpandResult{
			Address:    suffix(fmt.Sprintf("%s %s", n, street), city, province),
			Geocodable: true,
		})
	}
	return results
}

// splitCompound applies the priority-ordered cascade from §4.D. Returns the
// expanded street numbers, the remaining street text, and whether a compound
// pattern matched at all.
func splitCompound(addr string) ([]string, string, bool) {
	if m := commaAmpersandRe.FindStringSubmatch(addr); m != nil {
		return splitCommaAmpersand(m[1]), m[2], true
	}
	if m := rangeAmpersandRe.FindStringSubmatch(addr); m != nil {
		return splitRangeAmpersand(m[1]), m[2], true
	}
	if m := simpleAmpersandRe.FindStringSubmatch(addr); m != nil {
		return splitOnAny(m[1], "&"), m[2], true
	}
	if m := rangeCommaRe.FindStringSubmatch(addr); m != nil {
		return splitRangeThenComma(m[1]), m[2], true
	}
	if m := commaRangeRe.FindStringSubmatch(addr); m != nil {
		return splitCommaThenRange(m[1]), m[2], true
	}
	if m := endpointRangeRe.FindStringSubmatch(addr); m != nil {
		return splitRangeEndpointsOnly(m[1]), m[2], true
	}
	if m := plainCommaListRe.FindStringSubmatch(addr); m != nil {
		return splitOnAny(m[1], ","), m[2], true
	}
	return nil, "", false
}

func splitOnAny(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// splitRangeEndpointsOnly returns exactly the two range endpoints; the range
// is never interpolated (§8 boundary behavior).
func splitRangeEndpointsOnly(s string) []string {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return []string{strings.TrimSpace(s)}
	}
	return []string{strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])}
}

func splitCommaAmpersand(s string) []string {
	ampIdx := strings.LastIndex(s, "&")
	commaPart := strings.TrimSpace(s[:ampIdx])
	ampNum := strings.TrimSpace(s[ampIdx+1:])
	nums := splitOnAny(commaPart, ",")
	return append(nums, ampNum)
}

func splitRangeAmpersand(s string) []string {
	ampIdx := strings.LastIndex(s, "&")
	rangePart := strings.TrimSpace(s[:ampIdx])
	ampNum := strings.TrimSpace(s[ampIdx+1:])
	nums := splitRangeEndpointsOnly(rangePart)
	return append(nums, ampNum)
}

func splitRangeThenComma(s string) []string {
	commaIdx := strings.LastIndex(s, ",")
	rangePart := strings.TrimSpace(s[:commaIdx])
	extra := strings.TrimSpace(s[commaIdx+1:])
	nums := splitRangeEndpointsOnly(rangePart)
	return append(nums, extra)
}

func splitCommaThenRange(s string) []string {
	dashIdx := strings.LastIndex(s, "-")
	// Walk back to the comma preceding the range's first endpoint.
	commaIdx := strings.LastIndex(s[:dashIdx], ",")
	if commaIdx < 0 {
		return splitRangeEndpointsOnly(s)
	}
	listPart := strings.TrimSpace(s[:commaIdx])
	rangePart := strings.TrimSpace(s[commaIdx+1:])
	nums := splitOnAny(listPart, ",")
	return append(nums, splitRangeEndpointsOnly(rangePart)...)
}

// suffix appends ", City, Province" unless that suffix already appears.
func suffix(addr, city, province string) string {
	lower := strings.ToLower(addr)
	if city != "" && strings.Contains(lower, strings.ToLower(city)) {
		return addr
	}
	parts := []string{addr}
	if city != "" {
		parts = append(parts, city)
	}
	if province != "" {
		parts = append(parts, province)
	}
	return strings.Join(parts, ", ")
}
