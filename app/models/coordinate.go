package models

import "time"

// Provider names recognized by the Coordinate Store.
const (
	ProviderMapbox   = "mapbox"
	ProviderGeocodio = "geocodio"
	ProviderHere     = "here"
	ProviderScraper  = "scraper"
)

// GeocodeEntry is one provider's result for one address.
type GeocodeEntry struct {
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	Accuracy     *float64  `json:"accuracy,omitempty"`
	AccuracyType string    `json:"accuracy_type,omitempty"`
	GeocodedAt   time.Time `json:"geocoded_at"`
	Source       string    `json:"source,omitempty"`
}

// CoordinateDocument is the on-disk shape of coordinates.json.
type CoordinateDocument struct {
	Meta      CoordinateMeta                     `json:"meta"`
	Addresses map[string]map[string]GeocodeEntry `json:"addresses"`
}

// CoordinateMeta mirrors the teacher's meta-block convention (see
// app/config and the Property Registry's own meta block).
type CoordinateMeta struct {
	Version        int       `json:"version"`
	UpdatedAt      time.Time `json:"updated_at"`
	Providers      []string  `json:"providers"`
	TotalAddresses int       `json:"total_addresses"`
}

// DivergenceEntry reports the worst provider disagreement for one address.
type DivergenceEntry struct {
	Address      string  `json:"address"`
	MaxMeters    float64 `json:"max_meters"`
	WorstPairA   string  `json:"worst_pair_a"`
	WorstPairB   string  `json:"worst_pair_b"`
}
