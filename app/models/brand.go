package models

import (
	"fmt"
	"time"
)

// BrandStoreRecord is one scraped brand-directory entry. Not uniquely keyed;
// dedup is by (brand, address, city) uppercased, handled by the caller.
type BrandStoreRecord struct {
	Brand      string    `json:"brand"`
	StoreName  string    `json:"store_name"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	Province   string    `json:"province"`
	PostalCode string    `json:"postal_code,omitempty"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	ScrapedAt  time.Time `json:"scraped_at"`
}

// MatchMethod enumerates how a brand store was linked to a property.
type MatchMethod string

const (
	MatchExact       MatchMethod = "exact"
	MatchFuzzy       MatchMethod = "fuzzy"
	MatchFuzzyImport MatchMethod = "fuzzy_import"
	MatchNewProperty MatchMethod = "new_property"
	MatchProximity   MatchMethod = "proximity"
)

// MatchEntry is one brand-to-property link, as written into brand_matches.json.
type MatchEntry struct {
	Brand       string      `json:"brand"`
	StoreName   string      `json:"store_name"`
	Address     string      `json:"address"`
	City        string      `json:"city"`
	Method      MatchMethod `json:"method"`
	Score       *float64    `json:"score,omitempty"`
	DistanceM   *float64    `json:"distance_m,omitempty"`
}

// Label renders the method the way spec scenarios expect, e.g. "fuzzy(0.73)"
// or "proximity(14.20)".
func (m MatchEntry) Label() string {
	switch m.Method {
	case MatchFuzzy:
		if m.Score != nil {
			return fmt.Sprintf("fuzzy(%.2f)", *m.Score)
		}
	case MatchProximity:
		if m.DistanceM != nil {
			return fmt.Sprintf("proximity(%.2f)", *m.DistanceM)
		}
	}
	return string(m.Method)
}

// UnmatchedStore records a brand store that neither matching phase could place.
type UnmatchedStore struct {
	Store  BrandStoreRecord `json:"store"`
	Reason string           `json:"reason"`
}

// Reason codes for UnmatchedStore.Reason.
const (
	ReasonNoStreetNumber = "no_street_number"
	ReasonNoMatch        = "no_match"
)
