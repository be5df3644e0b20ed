// Package pipeline wires every stage (geocoding, clustering, brand import,
// GeoWarehouse resolution, parcel consolidation, coordinate snapping) into
// one struct so a CLI entrypoint or an HTTP handler can trigger a stage by
// name, matching the "sequence of idempotent stages" run model (§0).
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/brandonolsen/cleo-consolidator/app/config"
	"github.com/brandonolsen/cleo-consolidator/app/models"
	"github.com/brandonolsen/cleo-consolidator/internal/brands"
	"github.com/brandonolsen/cleo-consolidator/internal/enrichment"
	"github.com/brandonolsen/cleo-consolidator/internal/geocode"
	"github.com/brandonolsen/cleo-consolidator/internal/geowarehouse"
	"github.com/brandonolsen/cleo-consolidator/internal/normalizer"
	"github.com/brandonolsen/cleo-consolidator/internal/osm"
	"github.com/brandonolsen/cleo-consolidator/internal/parcels"
	"github.com/brandonolsen/cleo-consolidator/internal/registry"
	"github.com/brandonolsen/cleo-consolidator/internal/spatial"
)

// Pipeline holds every stage's dependencies, constructed once at startup.
type Pipeline struct {
	Logger     *zap.Logger
	Normalizer *normalizer.AddressNormalizer
	Coords     *geocode.Store
	Registry   *registry.Registry
	ParcelDB   *spatial.ParcelStore
	ParcelIdx  *spatial.ParcelIndex
	Footprints *spatial.FootprintIndex
	Overpass   *osm.Client
	Aliases    *brands.AliasSearcher
	Cache      geocode.Cache
}

// New constructs every stage dependency from cfg. Cache may be nil: every
// stage that consults it treats a nil Cache as "caching disabled".
func New(cfg *config.Cfg, logger *zap.Logger, cache geocode.Cache) (*Pipeline, error) {
	dataDir := cfg.Data.Dir

	coords, err := geocode.NewStore(dataDir+"/"+cfg.Data.Coordinates, logger)
	if err != nil {
		return nil, fmt.Errorf("opening coordinate store: %w", err)
	}
	reg, err := registry.New(dataDir+"/"+cfg.Data.Properties, logger)
	if err != nil {
		return nil, fmt.Errorf("opening property registry: %w", err)
	}
	parcelDB, err := spatial.NewParcelStore(dataDir + "/" + cfg.Data.Parcels)
	if err != nil {
		return nil, fmt.Errorf("opening parcel store: %w", err)
	}
	parcelIdx := spatial.NewParcelIndex(parcelDB.Features())

	footprintFeatures, err := loadJSONArray[models.FootprintFeature](dataDir + "/" + cfg.Data.Footprints)
	if err != nil {
		if logger != nil {
			logger.Warn("loading footprints failed, using an empty footprint index", zap.Error(err))
		}
		footprintFeatures = nil
	}
	footprintIdx := spatial.NewFootprintIndex(footprintFeatures)

	var overpassClient *osm.Client
	if len(cfg.Overpass.Endpoints) > 0 {
		overpassClient = osm.NewClient(cfg.Overpass.Endpoints, time.Duration(cfg.Overpass.MinIntervalMs)*time.Millisecond, logger)
		if cfg.Overpass.Disabled {
			overpassClient.Disable()
		}
	}

	aliasSearcher := brands.NewAliasSearcher(brands.AliasSearcherConfig{
		Host:      cfg.Meili.Host,
		APIKey:    cfg.Meili.APIKey,
		IndexName: cfg.Meili.IndexName,
	}, logger)

	return &Pipeline{
		Logger:     logger,
		Normalizer: normalizer.NewAddressNormalizer(),
		Coords:     coords,
		Registry:   reg,
		ParcelDB:   parcelDB,
		ParcelIdx:  parcelIdx,
		Footprints: footprintIdx,
		Overpass:   overpassClient,
		Aliases:    aliasSearcher,
		Cache:      cache,
	}, nil
}

// loadJSONArray reads path as a JSON array of T, or returns an empty slice
// if the file doesn't exist yet (footprints/parcel geometry are optional,
// harvester-provided input, §3).
func loadJSONArray[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return out, nil
}

// NewJobID mints a correlation ID for one stage invocation, tying together
// its log lines and HTTP response the way a job/batch ID ties together a
// geocoding batch (§4.C).
func NewJobID() string {
	return uuid.NewString()
}

// RunGeocode drives one provider's pending addresses through the
// Coordinate Store (§4.C), fronting the provider with the geocode cache
// when one is configured so repeat runs don't re-bill already-seen
// addresses.
func (p *Pipeline) RunGeocode(ctx context.Context, provider geocode.Provider, minInterval rate.Limit, saveEvery int) (geocode.BatchSummary, error) {
	if p.Cache != nil {
		provider = geocode.NewCachingProvider(provider, p.Cache)
	}
	orch := geocode.NewOrchestrator(p.Coords, p.Logger, minInterval, saveEvery)
	return orch.Run(ctx, provider)
}

// RunCluster groups every geocoded address into location clusters (§4.E).
func (p *Pipeline) RunCluster(proximityMeters float64) []models.LocationCluster {
	var inputs []geocode.ClusterInput
	for _, prop := range p.Registry.All() {
		if prop.Lat == 0 && prop.Lng == 0 {
			continue
		}
		inputs = append(inputs, geocode.ClusterInput{
			Address:          prop.Address,
			Lat:              prop.Lat,
			Lng:              prop.Lng,
			FormattedAddress: prop.Address,
			References:       []models.ClusterReference{{RTID: prop.ID, Role: models.ClusterRoleProperty, OriginalAddress: prop.Address}},
		})
	}
	return geocode.Cluster(inputs, proximityMeters)
}

// BrandImportResult is the summary handed back by RunBrandImport.
type BrandImportResult struct {
	Matches   []brands.MatchFileEntry
	Unmatched []models.UnmatchedStore
	Summary   brands.ImportSummary
}

// RunBrandImport runs the full two-phase-match-then-import sequence from
// §4.G over stores, using the given thresholds. Phase 2 places each property
// at its registry lat/lng; the Coordinate Store is not consulted.
func (p *Pipeline) RunBrandImport(stores []models.BrandStoreRecord, th brands.Thresholds) (BrandImportResult, error) {
	if p.Aliases != nil {
		for i, store := range stores {
			if canonical, found, err := p.Aliases.ResolveBrand(store.Brand); err == nil && found {
				stores[i].Brand = canonical
			}
		}
	}

	sorted := brands.SortedStores(stores)
	properties := p.Registry.All()

	addrIdx := brands.BuildAddressIndex(properties, p.Normalizer)

	var proximityPoints []brands.ProximityPoint
	for _, prop := range properties {
		if prop.Lat == 0 && prop.Lng == 0 {
			continue
		}
		proximityPoints = append(proximityPoints, brands.ProximityPoint{PropID: prop.ID, Lat: prop.Lat, Lng: prop.Lng})
	}
	proximityIdx := brands.BuildProximityIndex(proximityPoints)

	matched := make(map[int]brands.AddressMatch)
	unmatchedReasons := make(map[int]string)

	for i, store := range sorted {
		if am, reason := brands.MatchAddress(store, addrIdx, p.Normalizer, th); am != nil {
			matched[i] = *am
			continue
		} else {
			unmatchedReasons[i] = reason
		}

		if propID, _, found := proximityIdx.Nearest(store.Lat, store.Lng, th.ProximityMeters); found {
			matched[i] = brands.AddressMatch{PropID: propID, Method: models.MatchProximity}
			continue
		}
	}

	entries, unmatched, summary, err := brands.ImportBrandStores(p.Registry, p.Normalizer, sorted, matched, unmatchedReasons, th)
	if err != nil {
		return BrandImportResult{}, err
	}
	return BrandImportResult{Matches: entries, Unmatched: unmatched, Summary: summary}, nil
}

// RunGeoWarehouseResolve resolves every deduplicated GW record against the
// registry (§4.H).
func (p *Pipeline) RunGeoWarehouseResolve(records []geowarehouse.Record) int {
	deduped := geowarehouse.DedupRecordsByPIN(records)
	for _, r := range deduped {
		prop := geowarehouse.Resolve(p.Registry, p.Normalizer, r)
		p.Registry.Put(prop)
	}
	return len(deduped)
}

// RunSnap applies the Coordinate Snapper to every property (§4.K).
func (p *Pipeline) RunSnap(brandPOIsByAddress func(propID string) []enrichment.BrandPOI, thresholds config.MatchingThresholds) int {
	if p.Footprints == nil {
		return 0
	}
	snapper := enrichment.NewSnapper(p.Footprints, thresholds.BrandSanityGateM, thresholds.FootprintNearestM)
	count := 0
	for _, prop := range p.Registry.All() {
		var pois []enrichment.BrandPOI
		if brandPOIsByAddress != nil {
			pois = brandPOIsByAddress(prop.ID)
		}
		snapper.Snap(prop, pois)
		p.Registry.Put(prop)
		count++
	}
	return count
}

// RunParcelConsolidate runs the Parcel Consolidator over every property
// (§4.L).
func (p *Pipeline) RunParcelConsolidate(brandPOIs []parcels.BrandPOI) parcels.Summary {
	return parcels.Consolidate(p.Registry, p.ParcelDB, p.ParcelIdx, p.Footprints, brandPOIs)
}

// Save flushes every on-disk store the pipeline owns.
func (p *Pipeline) Save() error {
	if err := p.Coords.Save(); err != nil {
		return fmt.Errorf("saving coordinate store: %w", err)
	}
	if err := p.Registry.Save(); err != nil {
		return fmt.Errorf("saving property registry: %w", err)
	}
	if err := p.ParcelDB.Save(); err != nil {
		return fmt.Errorf("saving parcel store: %w", err)
	}
	return nil
}
