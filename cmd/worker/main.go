package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/brandonolsen/cleo-consolidator/app/config"
	"github.com/brandonolsen/cleo-consolidator/app/models"
	"github.com/brandonolsen/cleo-consolidator/app/services"
	"github.com/brandonolsen/cleo-consolidator/internal/brands"
	"github.com/brandonolsen/cleo-consolidator/internal/geocode"
	"github.com/brandonolsen/cleo-consolidator/internal/geowarehouse"
	"github.com/brandonolsen/cleo-consolidator/internal/parcels"
	"github.com/brandonolsen/cleo-consolidator/internal/pipeline"
)

// main runs the consolidator's stage sequence once, end to end, then exits
// (or is interrupted by SIGINT/SIGTERM between stages).
func main() {
	if err := config.Load(getEnv("CLEO_CONFIG", "config/cleo.yaml")); err != nil {
		panic(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting Cleo Consolidator worker")

	ctx, cancel := context.WithCancel(context.Background())
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Info("Interrupt received, cancelling in-flight stage")
		cancel()
	}()

	cache := services.NewCacheService(1 * time.Hour)

	p, err := pipeline.New(&config.C, logger, cache)
	if err != nil {
		logger.Fatal("Failed to construct pipeline", zap.Error(err))
	}

	runStages(ctx, p, logger)

	if err := p.Save(); err != nil {
		logger.Error("Failed to flush stores", zap.Error(err))
	}

	logger.Info("Worker run complete")
}

// runStages drives every pipeline stage in dependency order: geocode first
// (coordinates feed clustering), then brand import and GeoWarehouse
// resolution (both enrich the property registry independently), then
// snapping and parcel consolidation last (both need the enriched registry).
func runStages(ctx context.Context, p *pipeline.Pipeline, logger *zap.Logger) {
	if provider := buildEnabledProvider(); provider != nil {
		cfg := selectedProviderCfg()
		minInterval := rate.Every(time.Duration(cfg.MinIntervalMs) * time.Millisecond)
		summary, err := p.RunGeocode(ctx, provider, minInterval, cfg.SaveEvery)
		if err != nil {
			logger.Error("Geocode stage failed", zap.Error(err))
		} else {
			logger.Info("Geocode stage complete",
				zap.String("provider", summary.Provider),
				zap.Int("attempted", summary.Attempted),
				zap.Int("succeeded", summary.Succeeded),
				zap.Int("failed", summary.Failed))
		}
	}

	if ctx.Err() != nil {
		return
	}

	if stores, err := loadJSONArray[models.BrandStoreRecord](brandStoresInputPath()); err != nil {
		logger.Error("Failed to load brand store input", zap.Error(err))
	} else if len(stores) > 0 {
		result, err := p.RunBrandImport(stores, brands.DefaultThresholds())
		if err != nil {
			logger.Error("Brand import stage failed", zap.Error(err))
		} else {
			logger.Info("Brand import stage complete",
				zap.Int("matched", len(result.Matches)),
				zap.Int("unmatched", len(result.Unmatched)))
		}
	}

	if ctx.Err() != nil {
		return
	}

	if records, err := loadJSONArray[geowarehouse.Record](geoWarehouseInputPath()); err != nil {
		logger.Error("Failed to load GeoWarehouse input", zap.Error(err))
	} else if len(records) > 0 {
		resolved := p.RunGeoWarehouseResolve(records)
		logger.Info("GeoWarehouse resolve stage complete", zap.Int("resolved", resolved))
	}

	if ctx.Err() != nil {
		return
	}

	snapped := p.RunSnap(nil, config.C.Matching)
	logger.Info("Snap stage complete", zap.Int("snapped", snapped))

	if ctx.Err() != nil {
		return
	}

	if pois, err := loadJSONArray[parcels.BrandPOI](brandPOIsInputPath()); err != nil {
		logger.Error("Failed to load brand POI input", zap.Error(err))
	} else {
		summary := p.RunParcelConsolidate(pois)
		logger.Info("Parcel consolidate stage complete",
			zap.Int("properties_with_parcel", summary.PropertiesWithParcel),
			zap.Int("parcel_groups", summary.ParcelGroups),
			zap.Int("no_coverage", len(summary.NoCoverage)))
	}
}

// buildEnabledProvider picks the first enabled geocode provider from
// config.C.Geocoding. Only Geocodio has a concrete implementation; Mapbox
// and Here are config-only placeholders (§4.C names all three but only one
// is exercised end to end here).
func buildEnabledProvider() geocode.Provider {
	if config.C.Geocoding.Geocodio.Enabled {
		cfg := config.C.Geocoding.Geocodio
		return geocode.NewGeocodioProvider(cfg.APIKey, cfg.BatchSize)
	}
	return nil
}

func selectedProviderCfg() config.GeocodeProviderCfg {
	return config.C.Geocoding.Geocodio
}

func brandStoresInputPath() string {
	return config.C.Data.Dir + "/brand_stores_input.json"
}

func geoWarehouseInputPath() string {
	return config.C.Data.Dir + "/geowarehouse_input.json"
}

func brandPOIsInputPath() string {
	return config.C.Data.Dir + "/brand_pois_input.json"
}

// loadJSONArray reads path as a JSON array of T, tolerating a missing file
// as "nothing to process" rather than an error, matching the optional,
// harvester-provided input convention used throughout the pipeline package.
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
		return nil, err
	}
	return out, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
