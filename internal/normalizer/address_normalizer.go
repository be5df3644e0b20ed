package normalizer

import (
	"regexp"
	"strings"
)

// AddressNormalizer produces the canonical uppercase form used for property
// dedup keys. It never errors: empty input yields empty output.
type AddressNormalizer struct {
	saintNames   map[string]bool
	streetTypes  map[string]string
	directions   map[string]string
	cityAliases  map[string]string
	saintGuard   *regexp.Regexp
	whitespaceRe *regexp.Regexp
	periodRe     *regexp.Regexp
}

// saintNames is the closed set of Ontario "SAINT <Name>" streets that must
// not be mistaken for the "ST" street-type abbreviation.
var saintNames = []string{
	"CATHARINES", "CATHERINES", "THOMAS", "CLAIR", "GEORGE", "JACOBS",
	"JOHN", "JAMES", "PAUL", "MARYS", "ANDREWS", "DAVIDS",
}

// streetTypeMap expands common Ontario street-type abbreviations. Ported
// verbatim in spirit from the source normalizer's abbreviation table.
var streetTypeMap = map[string]string{
	"ST": "STREET", "RD": "ROAD", "AVE": "AVENUE", "BLVD": "BOULEVARD",
	"DR": "DRIVE", "CRES": "CRESCENT", "CT": "COURT", "CRT": "COURT",
	"CIR": "CIRCLE", "PL": "PLACE", "LN": "LANE", "TRL": "TRAIL",
	"HWY": "HIGHWAY", "PKWY": "PARKWAY", "SQ": "SQUARE", "TER": "TERRACE",
	"WAY": "WAY", "GDNS": "GARDENS", "GRN": "GREEN", "HTS": "HEIGHTS",
	"GATE": "GATE", "CONC": "CONCESSION", "LINE": "LINE",
}

// directionMap expands cardinal/intercardinal directional suffixes.
var directionMap = map[string]string{
	"N": "NORTH", "S": "SOUTH", "E": "EAST", "W": "WEST",
	"NE": "NORTHEAST", "NW": "NORTHWEST", "SE": "SOUTHEAST", "SW": "SOUTHWEST",
}

// cityAliases maps Ontario communities to their governing municipality.
var cityAliases = map[string]string{
	"SCARBOROUGH": "TORONTO", "NORTH YORK": "TORONTO", "ETOBICOKE": "TORONTO",
	"EAST YORK": "TORONTO", "YORK": "TORONTO",
	"WOODBRIDGE": "VAUGHAN", "MAPLE": "VAUGHAN", "THORNHILL": "VAUGHAN",
	"NOTL": "NIAGARA-ON-THE-LAKE", "NIAGARA ON THE LAKE": "NIAGARA-ON-THE-LAKE",
	"UNIONVILLE": "MARKHAM", "STOUFFVILLE": "WHITCHURCH-STOUFFVILLE",
	"AJAX": "AJAX", "BRAMPTON": "BRAMPTON", "MISSISSAUGA": "MISSISSAUGA",
	"STONEY CREEK": "HAMILTON", "ANCASTER": "HAMILTON", "DUNDAS": "HAMILTON",
	"WATERDOWN": "HAMILTON", "GLANBROOK": "HAMILTON",
}

// NewAddressNormalizer builds a normalizer with the Ontario abbreviation and
// alias tables above already compiled.
func NewAddressNormalizer() *AddressNormalizer {
	saints := make(map[string]bool, len(saintNames))
	for _, n := range saintNames {
		saints[n] = true
	}
	return &AddressNormalizer{
		saintNames:   saints,
		streetTypes:  streetTypeMap,
		directions:   directionMap,
		cityAliases:  cityAliases,
		saintGuard:   regexp.MustCompile(`(?i)\bST\.?\s+([A-Z]+)\b`),
		whitespaceRe: regexp.MustCompile(`\s+`),
		periodRe:     regexp.MustCompile(`\.`),
	}
}

// Normalize returns the canonical uppercase form of an address: uppercase,
// periods stripped, whitespace collapsed, Saint-names protected, street
// types and directions expanded.
func (n *AddressNormalizer) Normalize(address string) string {
	if strings.TrimSpace(address) == "" {
		return ""
	}
	s := strings.ToUpper(address)
	s = n.periodRe.ReplaceAllString(s, "")
	s = n.whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	tokens := strings.Split(s, " ")
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok == "ST" && i+1 < len(tokens) && n.saintNames[tokens[i+1]] {
			out = append(out, "SAINT")
			continue
		}
		if expanded, ok := n.streetTypes[tok]; ok {
			out = append(out, expanded)
			continue
		}
		if expanded, ok := n.directions[tok]; ok {
			out = append(out, expanded)
			continue
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}

// NormalizeCity applies the community-to-municipality alias table on top of
// the same uppercase/whitespace canonicalization as Normalize.
func (n *AddressNormalizer) NormalizeCity(city string) string {
	if strings.TrimSpace(city) == "" {
		return ""
	}
	s := strings.ToUpper(city)
	s = n.periodRe.ReplaceAllString(s, "")
	s = n.whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if alias, ok := n.cityAliases[s]; ok {
		return alias
	}
	return s
}

// DedupKey builds the NORM_ADDRESS|NORM_CITY key (§Glossary: Dedup key).
func (n *AddressNormalizer) DedupKey(address, city string) string {
	return n.Normalize(address) + "|" + n.NormalizeCity(city)
}
