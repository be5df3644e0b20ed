// Package enrichment implements the Coordinate Snapper (§4.K): reassigning a
// property's coordinates to its best-available anchor while always
// preserving the pre-snap value, and restoring before re-applying so
// repeated runs are idempotent.
package enrichment

import (
	"github.com/brandonolsen/cleo-consolidator/app/models"
	"github.com/brandonolsen/cleo-consolidator/internal/geocode"
	"github.com/brandonolsen/cleo-consolidator/internal/spatial"
)

// BrandPOI is one brand store's scraped coordinate, candidate for the
// brand-POI snap anchor.
type BrandPOI struct {
	Lat float64
	Lng float64
}

// Snapper holds the footprint index and the two independently-tunable
// thresholds named in the spec's Open Questions.
type Snapper struct {
	footprints        *spatial.FootprintIndex
	brandSanityGateM  float64
	footprintNearestM float64
}

// NewSnapper wires the footprint index; brandSanityGateM defaults to 500 and
// footprintNearestM (used only for determining an existing proximity match)
// defaults to 150, matching the source's independently-tuned constants.
func NewSnapper(footprints *spatial.FootprintIndex, brandSanityGateM, footprintNearestM float64) *Snapper {
	if brandSanityGateM <= 0 {
		brandSanityGateM = 500
	}
	if footprintNearestM <= 0 {
		footprintNearestM = 150
	}
	return &Snapper{footprints: footprints, brandSanityGateM: brandSanityGateM, footprintNearestM: footprintNearestM}
}

// Snap applies the priority cascade in §4.K to one property. It first
// restores the property to its pre-snap state (Property.ClearFootprintFields)
// so repeated runs converge.
func (s *Snapper) Snap(p *models.Property, brandPOIs []BrandPOI) {
	p.ClearFootprintFields()
	originalLat, originalLng := p.Lat, p.Lng

	if s.trySnapToBrandPOI(p, originalLat, originalLng, brandPOIs) {
		return
	}
	s.tryFootprintMatch(p, originalLat, originalLng)
}

func (s *Snapper) trySnapToBrandPOI(p *models.Property, lat, lng float64, brandPOIs []BrandPOI) bool {
	if len(brandPOIs) == 0 {
		return false
	}
	best := -1
	bestDist := s.brandSanityGateM
	for i, poi := range brandPOIs {
		d := geocode.HaversineMeters(lat, lng, poi.Lat, poi.Lng)
		if d <= bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 0 {
		return false
	}

	snapLat, snapLng := lat, lng
	p.PreSnapLat = &snapLat
	p.PreSnapLng = &snapLng
	p.Lat = brandPOIs[best].Lat
	p.Lng = brandPOIs[best].Lng

	if s.footprints != nil {
		if ids := s.footprints.FindContaining(p.Lat, p.Lng); len(ids) > 0 {
			s.applyFootprint(p, ids[0], models.FootprintMatchBrandContainment, models.SnapSourceBrandPOI)
		}
	}
	return true
}

func (s *Snapper) tryFootprintMatch(p *models.Property, lat, lng float64) {
	if s.footprints == nil {
		return
	}
	if ids := s.footprints.FindContaining(lat, lng); len(ids) > 0 {
		feature, ok := s.footprints.GetFeature(ids[0])
		if !ok {
			return
		}
		snapLat, snapLng := lat, lng
		p.PreSnapLat = &snapLat
		p.PreSnapLng = &snapLng
		p.Lat = feature.CentroidLat
		p.Lng = feature.CentroidLng
		s.applyFootprint(p, ids[0], models.FootprintMatchContainment, models.SnapSourceFootprintCentroid)
		return
	}
	if id, ok := s.footprints.FindNearest(lat, lng, s.footprintNearestM); ok {
		p.FootprintID = id
		p.FootprintMatchMethod = models.FootprintMatchProximity
		if feature, ok := s.footprints.GetFeature(id); ok {
			p.FootprintAreaSqm = feature.AreaSqm
			p.FootprintBuildingType = feature.BuildingType
		}
	}
}

func (s *Snapper) applyFootprint(p *models.Property, fpID string, method models.FootprintMatchMethod, source models.FootprintSnapSource) {
	p.FootprintID = fpID
	p.FootprintMatchMethod = method
	p.FootprintSnapSource = source
	if feature, ok := s.footprints.GetFeature(fpID); ok {
		p.FootprintAreaSqm = feature.AreaSqm
		p.FootprintBuildingType = feature.BuildingType
	}
}
