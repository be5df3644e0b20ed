package pipeline

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/brandonolsen/cleo-consolidator/app/models"
	"github.com/brandonolsen/cleo-consolidator/internal/brands"
	"github.com/brandonolsen/cleo-consolidator/internal/geocode"
	"github.com/brandonolsen/cleo-consolidator/internal/normalizer"
	"github.com/brandonolsen/cleo-consolidator/internal/registry"
	"github.com/brandonolsen/cleo-consolidator/internal/spatial"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	dir := t.TempDir()

	logger := zap.NewNop()
	coords, err := geocode.NewStore(filepath.Join(dir, "coordinates.json"), logger)
	if err != nil {
		t.Fatal(err)
	}
	reg, err := registry.New(filepath.Join(dir, "properties.json"), logger)
	if err != nil {
		t.Fatal(err)
	}

	return &Pipeline{
		Logger:     logger,
		Normalizer: normalizer.NewAddressNormalizer(),
		Coords:     coords,
		Registry:   reg,
	}
}

func TestRunClusterGroupsNearbyProperties(t *testing.T) {
	p := newTestPipeline(t)

	p.Registry.Put(&models.Property{ID: "P00001", Address: "100 King St W", Lat: 43.6500, Lng: -79.3800})
	p.Registry.Put(&models.Property{ID: "P00002", Address: "100 King Street W", Lat: 43.6501, Lng: -79.3801})
	p.Registry.Put(&models.Property{ID: "P00003", Address: "500 Bay St", Lat: 44.0000, Lng: -80.0000})

	clusters := p.RunCluster(150)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
}

func TestRunBrandImportMatchesByAddress(t *testing.T) {
	p := newTestPipeline(t)

	p.Registry.Put(&models.Property{ID: "P00010", Address: "123 Main St", City: "Toronto", Lat: 43.65, Lng: -79.38})

	stores := []models.BrandStoreRecord{
		{Brand: "Tim Hortons", StoreName: "Main St", Address: "123 Main Street", City: "Toronto", Lat: 43.65, Lng: -79.38},
	}

	result, err := p.RunBrandImport(stores, brands.DefaultThresholds())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}
	if result.Matches[0].PropID != "P00010" {
		t.Errorf("expected match against P00010, got %s", result.Matches[0].PropID)
	}
}

func TestRunBrandImportFallsBackToProximity(t *testing.T) {
	p := newTestPipeline(t)

	p.Registry.Put(&models.Property{ID: "P00020", Address: "999 Unrelated Ave", City: "Toronto", Lat: 43.70, Lng: -79.40})

	stores := []models.BrandStoreRecord{
		{Brand: "Tim Hortons", StoreName: "Nearby", Address: "1 Totally Different Rd", City: "Toronto", Lat: 43.70001, Lng: -79.40001},
	}

	result, err := p.RunBrandImport(stores, brands.DefaultThresholds())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 proximity match, got %d", len(result.Matches))
	}
	if result.Matches[0].Entry.Method != models.MatchProximity {
		t.Errorf("expected proximity match method, got %v", result.Matches[0].Entry.Method)
	}
}

func TestSaveFlushesAllStores(t *testing.T) {
	dir := t.TempDir()
	logger := zap.NewNop()

	coords, err := geocode.NewStore(filepath.Join(dir, "coordinates.json"), logger)
	if err != nil {
		t.Fatal(err)
	}
	reg, err := registry.New(filepath.Join(dir, "properties.json"), logger)
	if err != nil {
		t.Fatal(err)
	}
	parcelDB, err := spatial.NewParcelStore(filepath.Join(dir, "parcels.json"))
	if err != nil {
		t.Fatal(err)
	}

	p := &Pipeline{Logger: logger, Coords: coords, Registry: reg, ParcelDB: parcelDB}
	if err := p.Save(); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
}
