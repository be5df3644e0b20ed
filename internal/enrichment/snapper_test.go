package enrichment

import (
	"testing"

	"github.com/brandonolsen/cleo-consolidator/app/models"
)

func TestSanityGateRejectsFarPOI(t *testing.T) {
	s := NewSnapper(nil, 500, 150)
	p := &models.Property{Lat: 43.6500, Lng: -79.3800}
	s.Snap(p, []BrandPOI{{Lat: 43.9000, Lng: -79.3800}})

	if p.PreSnapLat != nil || p.PreSnapLng != nil {
		t.Fatalf("expected no pre-snap fields when gate rejects, got %+v / %+v", p.PreSnapLat, p.PreSnapLng)
	}
	if p.Lat != 43.6500 || p.Lng != -79.3800 {
		t.Fatalf("expected coordinates unchanged, got (%f, %f)", p.Lat, p.Lng)
	}
}

func TestSnapIsIdempotent(t *testing.T) {
	s := NewSnapper(nil, 500, 150)
	p := &models.Property{Lat: 43.6500, Lng: -79.3800}
	poi := []BrandPOI{{Lat: 43.6501, Lng: -79.3801}}

	s.Snap(p, poi)
	firstLat, firstLng := p.Lat, p.Lng

	s.Snap(p, poi)
	if p.Lat != firstLat || p.Lng != firstLng {
		t.Fatalf("second snap changed coordinates: (%f,%f) -> (%f,%f)", firstLat, firstLng, p.Lat, p.Lng)
	}
}
