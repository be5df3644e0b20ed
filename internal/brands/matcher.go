// Package brands implements the Brand Matcher (§4.G): two-phase address-then-
// proximity linking of scraped brand store records to registry properties.
package brands

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/brandonolsen/cleo-consolidator/app/models"
	"github.com/brandonolsen/cleo-consolidator/internal/geocode"
	"github.com/brandonolsen/cleo-consolidator/internal/normalizer"
)

// Thresholds configures the two independently-tunable cutoffs named in
// spec's Open Questions — exposed here rather than hardcoded.
type Thresholds struct {
	FuzzySimilarity float64 // default 0.6
	ProximityMeters float64 // default 150
}

// DefaultThresholds preserves the source's hardcoded defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{FuzzySimilarity: 0.6, ProximityMeters: 150}
}

var suitePrefixRe = regexp.MustCompile(`^[A-Za-z0-9]+-`)
var leadingNumberRe = regexp.MustCompile(`^(\d+(?:[A-Za-z]|½)?)\s+(.+)$`)

// ExtractStreetNumber strips an optional suite prefix ("B03-", "G3-") and
// returns the leading street number plus remaining street text.
func ExtractStreetNumber(address string) (number, street string, ok bool) {
	s := strings.TrimSpace(address)
	s = suitePrefixRe.ReplaceAllString(s, "")
	m := leadingNumberRe.FindStringSubmatch(s)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSpace(m[2]), true
}

// addressIndexEntry is one bucket member in the Phase 1 index.
type addressIndexEntry struct {
	PropID     string
	StreetName string
}

// AddressIndex maps (street number, normalized city) to candidate properties.
type AddressIndex map[string][]addressIndexEntry

func addressIndexKey(number, normCity string) string {
	return number + "|" + normCity
}

// BuildAddressIndex builds the Phase 1 bucket index over the registry.
func BuildAddressIndex(properties []*models.Property, norm *normalizer.AddressNormalizer) AddressIndex {
	idx := make(AddressIndex)
	for _, p := range properties {
		number, street, ok := ExtractStreetNumber(norm.Normalize(p.Address))
		if !ok {
			continue
		}
		key := addressIndexKey(number, norm.NormalizeCity(p.City))
		idx[key] = append(idx[key], addressIndexEntry{PropID: p.ID, StreetName: street})
	}
	return idx
}

// AddressMatch is the Phase 1 outcome for one brand store.
type AddressMatch struct {
	PropID string
	Method models.MatchMethod
	Score  *float64
}

// MatchAddress runs Phase 1 for one brand store against idx. Returns
// (nil, reason) when no candidate clears the threshold.
func MatchAddress(store models.BrandStoreRecord, idx AddressIndex, norm *normalizer.AddressNormalizer, th Thresholds) (*AddressMatch, string) {
	number, street, ok := ExtractStreetNumber(norm.Normalize(store.Address))
	if !ok {
		return nil, models.ReasonNoStreetNumber
	}
	key := addressIndexKey(number, norm.NormalizeCity(store.City))
	candidates, found := idx[key]
	if !found || len(candidates) == 0 {
		return nil, models.ReasonNoMatch
	}

	if len(candidates) == 1 {
		score := StreetSimilarity(street, candidates[0].StreetName)
		if score >= th.FuzzySimilarity {
			return &AddressMatch{PropID: candidates[0].PropID, Method: models.MatchExact}, ""
		}
		return nil, fmt.Sprintf("low_similarity (%d candidates, best=%.2f)", len(candidates), score)
	}

	bestScore := -1.0
	bestID := ""
	for _, c := range candidates {
		s := StreetSimilarity(street, c.StreetName)
		if s > bestScore {
			bestScore = s
			bestID = c.PropID
		}
	}
	if bestScore >= th.FuzzySimilarity {
		score := bestScore
		return &AddressMatch{PropID: bestID, Method: models.MatchFuzzy, Score: &score}, ""
	}
	return nil, fmt.Sprintf("low_similarity (%d candidates, best=%.2f)", len(candidates), bestScore)
}

// proximityCellDegrees is the Phase 2 grid cell size (~1.1km, §4.G).
const proximityCellDegrees = 0.01

// ProximityPoint is a property's best-available coordinate for Phase 2.
type ProximityPoint struct {
	PropID string
	Lat    float64
	Lng    float64
}

// ProximityIndex buckets properties by a coarse lat/lng grid for Phase 2.
type ProximityIndex struct {
	cells map[[2]int][]ProximityPoint
}

func proximityCell(lat, lng float64) [2]int {
	return [2]int{int(math.Floor(lat / proximityCellDegrees)), int(math.Floor(lng / proximityCellDegrees))}
}

// BuildProximityIndex buckets points by their given coordinates; it does
// not look anything up in the Coordinate Store or the registry itself.
func BuildProximityIndex(points []ProximityPoint) *ProximityIndex {
	idx := &ProximityIndex{cells: make(map[[2]int][]ProximityPoint)}
	for _, p := range points {
		c := proximityCell(p.Lat, p.Lng)
		idx.cells[c] = append(idx.cells[c], p)
	}
	return idx
}

// Nearest returns the nearest property within thresholdM, scanning the 3x3
// neighborhood of grid cells around (lat, lng).
func (idx *ProximityIndex) Nearest(lat, lng, thresholdM float64) (propID string, distanceM float64, found bool) {
	c := proximityCell(lat, lng)
	best := math.MaxFloat64
	bestID := ""
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for _, p := range idx.cells[[2]int{c[0] + dx, c[1] + dy}] {
				d := geocode.HaversineMeters(lat, lng, p.Lat, p.Lng)
				if d < best {
					best = d
					bestID = p.PropID
				}
			}
		}
	}
	if bestID != "" && best <= thresholdM {
		return bestID, best, true
	}
	return "", 0, false
}

// SortedStores returns a copy of stores sorted by brand, then address. The
// sort is stable, so stores with equal brand and address keep their input
// order; the source file of a store plays no part in the ordering.
func SortedStores(stores []models.BrandStoreRecord) []models.BrandStoreRecord {
	out := make([]models.BrandStoreRecord, len(stores))
	copy(out, stores)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Brand != out[j].Brand {
			return out[i].Brand < out[j].Brand
		}
		return out[i].Address < out[j].Address
	})
	return out
}
