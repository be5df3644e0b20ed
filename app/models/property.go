package models

import "time"

// FootprintMatchMethod enumerates how a property's building footprint was resolved.
type FootprintMatchMethod string

const (
	FootprintMatchContainment      FootprintMatchMethod = "containment"
	FootprintMatchProximity        FootprintMatchMethod = "proximity"
	FootprintMatchBrandContainment FootprintMatchMethod = "brand_containment"
)

// FootprintSnapSource enumerates the anchor the Coordinate Snapper used.
type FootprintSnapSource string

const (
	SnapSourceBrandPOI          FootprintSnapSource = "brand_poi"
	SnapSourceFootprintCentroid FootprintSnapSource = "footprint_centroid"
)

// Source tags identify which ingestion stream created or enriched a property.
const (
	SourceRT    = "rt"
	SourceGW    = "gw"
	SourceBrand = "brand"
)

// GWData is the municipal-assessment snapshot embedded on GW-sourced properties.
type GWData struct {
	PIN                  string  `json:"pin,omitempty"`
	ARN                  string  `json:"arn,omitempty"`
	ZoningCode           string  `json:"zoning_code,omitempty"`
	AssessedValue        float64 `json:"assessed_value,omitempty"`
	OwnerNames           string  `json:"owner_names,omitempty"`
	OwnerMailingAddress  string  `json:"owner_mailing_address,omitempty"`
	PropertyCode         string  `json:"property_code,omitempty"`
	PropertyDescription  string  `json:"property_description,omitempty"`
	OwnershipType        string  `json:"ownership_type,omitempty"`
	PropertyType         string  `json:"property_type,omitempty"`
}

// Property is the canonical P-keyed registry entry.
type Property struct {
	ID           string   `json:"id"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	Municipality string   `json:"municipality"`
	Province     string   `json:"province"`
	PostalCode   string   `json:"postal_code,omitempty"`

	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`

	// PreSnapLat/PreSnapLng hold the coordinates as they existed before the
	// Coordinate Snapper moved them. Populated only once a snap has occurred.
	PreSnapLat *float64 `json:"pre_snap_lat,omitempty"`
	PreSnapLng *float64 `json:"pre_snap_lng,omitempty"`

	Sources []string `json:"sources"`
	RTIDs   []string `json:"rt_ids"`
	GWIDs   []string `json:"gw_ids"`

	TransactionCount int `json:"transaction_count"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`

	GWData *GWData `json:"gw_data,omitempty"`

	// Parcel-derived fields. Parcel Consolidator clears every one of these on
	// every property before recomputing them — see internal/parcels.
	ParcelID           string   `json:"parcel_id,omitempty"`
	ParcelPIN          string   `json:"parcel_pin,omitempty"`
	ParcelARN          string   `json:"parcel_arn,omitempty"`
	ParcelAreaSqm      float64  `json:"parcel_area_sqm,omitempty"`
	ZoningCode         string   `json:"zoning_code,omitempty"`
	ZoningDesc         string   `json:"zoning_desc,omitempty"`
	ParcelGroup        []string `json:"parcel_group,omitempty"`
	ParcelBrands       []string `json:"parcel_brands,omitempty"`
	ParcelBuildingCount int     `json:"parcel_building_count,omitempty"`

	// Footprint-derived fields. Coordinate Snapper clears these before
	// re-deriving them on every run.
	FootprintID          string               `json:"footprint_id,omitempty"`
	FootprintAreaSqm     float64              `json:"footprint_area_sqm,omitempty"`
	FootprintBuildingType string              `json:"footprint_building_type,omitempty"`
	FootprintMatchMethod FootprintMatchMethod `json:"footprint_match_method,omitempty"`
	FootprintSnapSource  FootprintSnapSource  `json:"footprint_snap_source,omitempty"`
}

// DedupKey returns the NORM_ADDRESS|NORM_CITY key used to detect duplicates.
// Callers pass already-normalized address/city (see internal/normalizer).
func DedupKey(normAddress, normCity string) string {
	return normAddress + "|" + normCity
}

// HasSource reports whether the property already carries the given source tag.
func (p *Property) HasSource(source string) bool {
	for _, s := range p.Sources {
		if s == source {
			return true
		}
	}
	return false
}

// AddSource appends source if not already present.
func (p *Property) AddSource(source string) {
	if !p.HasSource(source) {
		p.Sources = append(p.Sources, source)
	}
}

// InParcelGroup reports whether other is already listed in this property's group.
func (p *Property) InParcelGroup(other string) bool {
	for _, id := range p.ParcelGroup {
		if id == other {
			return true
		}
	}
	return false
}

// ClearParcelFields wipes every parcel-prefixed field. Called by the Parcel
// Consolidator on every property before it recomputes groupings, so a stale
// grouping from a prior run can never survive a dedup.
func (p *Property) ClearParcelFields() {
	p.ParcelID = ""
	p.ParcelPIN = ""
	p.ParcelARN = ""
	p.ParcelAreaSqm = 0
	p.ZoningCode = ""
	p.ZoningDesc = ""
	p.ParcelGroup = nil
	p.ParcelBrands = nil
	p.ParcelBuildingCount = 0
}

// ClearFootprintFields wipes every footprint-prefixed field and restores
// pre-snap coordinates, if any. Called by the Coordinate Snapper at the start
// of every run so re-snapping is idempotent.
func (p *Property) ClearFootprintFields() {
	if p.PreSnapLat != nil && p.PreSnapLng != nil {
		p.Lat = *p.PreSnapLat
		p.Lng = *p.PreSnapLng
		p.PreSnapLat = nil
		p.PreSnapLng = nil
	}
	p.FootprintID = ""
	p.FootprintAreaSqm = 0
	p.FootprintBuildingType = ""
	p.FootprintMatchMethod = ""
	p.FootprintSnapSource = ""
}
