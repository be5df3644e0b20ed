// Package geowarehouse implements the GW Resolver (§4.H): parse-independent
// matching of municipal assessment records to the property registry, with
// directional-alias fallback. HTML scraping itself is out of scope (§1
// Non-goals) — this package only consumes the already-parsed record.
package geowarehouse

import (
	"regexp"
	"sort"
	"strings"

	"github.com/brandonolsen/cleo-consolidator/app/models"
	"github.com/brandonolsen/cleo-consolidator/internal/normalizer"
	"github.com/brandonolsen/cleo-consolidator/internal/registry"
)

var postalRe = regexp.MustCompile(`(?i)\b[A-Z]\d[A-Z]\s?\d[A-Z]\d\b`)

var directions = []string{"NORTH", "SOUTH", "EAST", "WEST", "NORTHEAST", "NORTHWEST", "SOUTHEAST", "SOUTHWEST"}
var directionAbbrevs = map[string]string{
	"NORTH": "N", "SOUTH": "S", "EAST": "E", "WEST": "W",
	"NORTHEAST": "NE", "NORTHWEST": "NW", "SOUTHEAST": "SE", "SOUTHWEST": "SW",
}

// Record is one raw GW municipal-assessment entry, already HTML-parsed by an
// external collaborator.
type Record struct {
	PropertyAddress string
	Municipality    string
	Filename        string
	PIN             string
	ARN             string
	ZoningCode      string
	AssessedValue   float64
	OwnerNames      string
	OwnerMailing    string
	PropertyCode    string
	Description     string
	OwnershipType   string
	PropertyType    string
}

// ParsedAddress is the {street, city, province, postal_code} extracted from
// a record's property_address + municipality by anchoring on the
// municipality string (§4.H).
type ParsedAddress struct {
	Street     string
	City       string
	Province   string
	PostalCode string
}

// ParseAddress anchors on r.Municipality inside r.PropertyAddress and strips
// trailing province/postal, same shape as the source's municipality-rfind
// split.
func ParseAddress(r Record) ParsedAddress {
	addr := strings.TrimSpace(r.PropertyAddress)
	city := strings.TrimSpace(r.Municipality)

	street := addr
	if city != "" {
		if idx := strings.LastIndex(strings.ToUpper(addr), strings.ToUpper(city)); idx >= 0 {
			street = strings.TrimSpace(addr[:idx])
			street = strings.TrimRight(street, ", ")
		}
	}

	postal := postalRe.FindString(addr)
	street = postalRe.ReplaceAllString(street, "")
	street = strings.TrimSpace(strings.Trim(street, ", "))

	return ParsedAddress{
		Street:     street,
		City:       city,
		Province:   "ON",
		PostalCode: strings.ToUpper(strings.ReplaceAll(postal, " ", "")),
	}
}

// Resolve matches or creates the registry property for a GW record, per
// §4.H: exact dedup key, then direction-strip, then direction-append
// fallback across all 8 directions; otherwise creates a new P-ID with
// sources=[gw] and an embedded gw_data snapshot.
func Resolve(reg *registry.Registry, norm *normalizer.AddressNormalizer, r Record) *models.Property {
	parsed := ParseAddress(r)
	normAddr := norm.Normalize(parsed.Street)
	normCity := norm.NormalizeCity(parsed.City)

	if id, ok := reg.FindByDedupKey(normAddr, normCity); ok {
		return enrich(reg, id, r, parsed)
	}

	if stripped, ok := stripTrailingDirection(normAddr); ok {
		if id, ok := reg.FindByDedupKey(stripped, normCity); ok {
			return enrich(reg, id, r, parsed)
		}
	}

	for _, dir := range directions {
		candidate := normAddr + " " + dir
		if id, ok := reg.FindByDedupKey(candidate, normCity); ok {
			return enrich(reg, id, r, parsed)
		}
	}

	id := reg.AllocateID()
	p := &models.Property{
		ID:       id,
		Address:  parsed.Street,
		City:     parsed.City,
		Province: parsed.Province,
		PostalCode: parsed.PostalCode,
		Sources:  []string{models.SourceGW},
		GWIDs:    []string{r.PIN},
		GWData: &models.GWData{
			PIN: r.PIN, ARN: r.ARN, ZoningCode: r.ZoningCode,
			AssessedValue: r.AssessedValue, OwnerNames: r.OwnerNames,
			OwnerMailingAddress: r.OwnerMailing, PropertyCode: r.PropertyCode,
			PropertyDescription: r.Description, OwnershipType: r.OwnershipType,
			PropertyType: r.PropertyType,
		},
	}
	reg.Put(p)
	return p
}

func enrich(reg *registry.Registry, id string, r Record, parsed ParsedAddress) *models.Property {
	p := reg.Get(id)
	p.GWIDs = append(p.GWIDs, r.PIN)
	p.AddSource(models.SourceGW)
	if p.PostalCode == "" {
		p.PostalCode = parsed.PostalCode
	}
	reg.Put(p)
	return p
}

func stripTrailingDirection(normAddr string) (string, bool) {
	for full, abbr := range directionAbbrevs {
		for _, suffix := range []string{" " + full, " " + abbr} {
			if strings.HasSuffix(normAddr, suffix) {
				return strings.TrimSuffix(normAddr, suffix), true
			}
		}
	}
	return "", false
}

// DedupRecordsByPIN deduplicates GW batch input by pin, keeping the record
// whose source filename sorts last, then returns them sorted by pin for
// deterministic GW-ID assignment (§4.H batch-parse rule).
func DedupRecordsByPIN(records []Record) []Record {
	byPIN := make(map[string]Record)
	for _, r := range records {
		existing, ok := byPIN[r.PIN]
		if !ok || r.Filename > existing.Filename {
			byPIN[r.PIN] = r
		}
	}
	out := make([]Record, 0, len(byPIN))
	for _, r := range byPIN {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PIN < out[j].PIN })
	return out
}
