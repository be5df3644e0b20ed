package brands

import (
	"testing"

	"github.com/brandonolsen/cleo-consolidator/app/models"
	"github.com/brandonolsen/cleo-consolidator/internal/normalizer"
)

func TestExtractStreetNumberWithSuitePrefix(t *testing.T) {
	num, street, ok := ExtractStreetNumber("B03-70 KING WILLIAM ST")
	if !ok || num != "70" || street != "KING WILLIAM ST" {
		t.Fatalf("got num=%q street=%q ok=%v", num, street, ok)
	}
}

func TestBrandImportExactMatch(t *testing.T) {
	norm := normalizer.NewAddressNormalizer()
	props := []*models.Property{
		{ID: "P00001", Address: "70 King William St", City: "Hamilton", RTIDs: []string{"RT1"}},
	}
	idx := BuildAddressIndex(props, norm)
	store := models.BrandStoreRecord{Brand: "Harvey's", Address: "B03-70 KING WILLIAM ST", City: "Hamilton"}

	am, reason := MatchAddress(store, idx, norm, DefaultThresholds())
	if am == nil {
		t.Fatalf("expected a match, got reason %q", reason)
	}
	if am.PropID != "P00001" || am.Method != models.MatchExact {
		t.Fatalf("unexpected match: %+v", am)
	}
}

func TestProximityMatch(t *testing.T) {
	idx := BuildProximityIndex([]ProximityPoint{{PropID: "P00003", Lat: 43.6501, Lng: -79.3801}})
	propID, dist, found := idx.Nearest(43.6500, -79.3800, 150)
	if !found || propID != "P00003" {
		t.Fatalf("expected proximity match, found=%v id=%q", found, propID)
	}
	if dist < 13 || dist > 16 {
		t.Fatalf("expected ~14.2m, got %.2f", dist)
	}
}

func TestSanityGateRejectsFarBrandPOI(t *testing.T) {
	idx := BuildProximityIndex([]ProximityPoint{{PropID: "P00099", Lat: 43.9000, Lng: -79.3800}})
	_, _, found := idx.Nearest(43.6500, -79.3800, 500)
	if found {
		t.Fatalf("expected no match beyond 500m gate")
	}
}
