package parcels

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/brandonolsen/cleo-consolidator/app/models"
	"github.com/brandonolsen/cleo-consolidator/internal/registry"
	"github.com/brandonolsen/cleo-consolidator/internal/spatial"
)

func squareParcel(id string, centerLat, centerLng, halfSide float64) models.ParcelFeature {
	ring := models.Ring{
		{centerLng - halfSide, centerLat - halfSide},
		{centerLng + halfSide, centerLat - halfSide},
		{centerLng + halfSide, centerLat + halfSide},
		{centerLng - halfSide, centerLat + halfSide},
		{centerLng - halfSide, centerLat - halfSide},
	}
	return models.ParcelFeature{
		ID:          id,
		PIN:         "PIN-" + id,
		AreaSqm:     1000,
		CentroidLat: centerLat,
		CentroidLng: centerLng,
		Geometry:    models.Polygon{Rings: []models.Ring{ring}},
	}
}

func TestConsolidateGroupsTwoPropertiesOnSameParcel(t *testing.T) {
	dir := t.TempDir()
	regPath := filepath.Join(dir, "properties.json")
	if err := os.WriteFile(regPath, []byte(`{"meta":{},"properties":{}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	logger := zap.NewNop()
	reg, err := registry.New(regPath, logger)
	if err != nil {
		t.Fatal(err)
	}

	p1 := &models.Property{ID: "P00001", Lat: 43.6500, Lng: -79.3800}
	p2 := &models.Property{ID: "P00002", Lat: 43.6501, Lng: -79.3801}
	reg.Put(p1)
	reg.Put(p2)

	pcl := squareParcel("PCL00001", 43.6500, -79.3800, 0.01)
	idx := spatial.NewParcelIndex([]models.ParcelFeature{pcl})

	store, err := spatial.NewParcelStore(filepath.Join(dir, "parcels.json"))
	if err != nil {
		t.Fatal(err)
	}

	summary := Consolidate(reg, store, idx, nil, nil)

	if summary.PropertiesWithParcel != 2 {
		t.Fatalf("expected 2 properties with parcel, got %d", summary.PropertiesWithParcel)
	}
	if summary.ParcelGroups != 1 {
		t.Fatalf("expected 1 parcel group, got %d", summary.ParcelGroups)
	}

	got1 := reg.Get("P00001")
	got2 := reg.Get("P00002")
	if got1.ParcelID != "PCL00001" || got2.ParcelID != "PCL00001" {
		t.Fatalf("expected both properties to share parcel id, got %q / %q", got1.ParcelID, got2.ParcelID)
	}
	if got1.ParcelAreaSqm != 1000 || got2.ParcelAreaSqm != 1000 {
		t.Fatalf("expected parcel area projected onto both properties")
	}
	if !got1.InParcelGroup("P00002") || !got2.InParcelGroup("P00001") {
		t.Fatalf("expected symmetric parcel_group, got %v / %v", got1.ParcelGroup, got2.ParcelGroup)
	}
}

func TestConsolidateClearsStaleParcelFields(t *testing.T) {
	dir := t.TempDir()
	regPath := filepath.Join(dir, "properties.json")
	if err := os.WriteFile(regPath, []byte(`{"meta":{},"properties":{}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	logger := zap.NewNop()
	reg, err := registry.New(regPath, logger)
	if err != nil {
		t.Fatal(err)
	}

	p := &models.Property{
		ID: "P00003", Lat: 0, Lng: 0,
		ParcelID: "STALE", ParcelGroup: []string{"P00099"}, ParcelBrands: []string{"OLD BRAND"},
	}
	reg.Put(p)

	idx := spatial.NewParcelIndex(nil)
	store, err := spatial.NewParcelStore(filepath.Join(dir, "parcels.json"))
	if err != nil {
		t.Fatal(err)
	}

	summary := Consolidate(reg, store, idx, nil, nil)

	got := reg.Get("P00003")
	if got.ParcelID != "" || got.ParcelGroup != nil || got.ParcelBrands != nil {
		t.Fatalf("expected stale parcel fields cleared, got %+v", got)
	}
	if len(summary.NoCoverage) != 1 || summary.NoCoverage[0] != "P00003" {
		t.Fatalf("expected property flagged as no-coverage, got %v", summary.NoCoverage)
	}
}
