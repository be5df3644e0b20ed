package geocode

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/brandonolsen/cleo-consolidator/app/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Provider is the generalized forward-geocode contract every backend
// (Geocodio, Mapbox-alike, Here-alike) satisfies. An address with no result
// is a nil *ProviderResult in BatchForward's return slice, never an error;
// Orchestrator.Run also discards results with a coarse accuracy type.
type Provider interface {
	Name() string
	BatchSize() int
	BatchForward(ctx context.Context, addresses []string) ([]*ProviderResult, error)
}

// ProviderResult is one address's forward-geocode outcome.
type ProviderResult struct {
	Lat              float64
	Lng              float64
	Accuracy         *float64
	AccuracyType     string
	FormattedAddress string
}

// coarseAccuracyTypes are too imprecise to use (§6: state/county-level hits
// are treated as null).
var coarseAccuracyTypes = map[string]bool{"state": true, "county": true}

// BatchSummary is the structured result handed back to the orchestrator
// caller, per §7's "components return structured summary records".
type BatchSummary struct {
	Provider     string
	Attempted    int
	Succeeded    int
	Failed       int
	FailedBatches int
}

// Orchestrator drives batched, rate-limited, checkpointed geocoding against
// the pending set from one provider (§4.C).
type Orchestrator struct {
	store       *Store
	logger      *zap.Logger
	saveEvery   int
	limiter     *rate.Limiter
}

// NewOrchestrator wires a rate limiter in front of every provider call,
// generalizing the ArcGIS/Overpass throttle pattern in §5 to geocoding too.
func NewOrchestrator(store *Store, logger *zap.Logger, minInterval rate.Limit, saveEvery int) *Orchestrator {
	if saveEvery <= 0 {
		saveEvery = 10
	}
	return &Orchestrator{
		store:     store,
		logger:    logger,
		saveEvery: saveEvery,
		limiter:   rate.NewLimiter(minInterval, 1),
	}
}

// Run walks the provider's pending addresses in sorted, fixed-size batches,
// merging each batch back into the store and persisting periodically. A
// batch-level failure counts every address in that batch in summary.Failed
// and the run continues with the next batch (§4.C, §7 Transient I/O).
// Nothing about the failure is written to the store, so those addresses
// stay pending for the provider.
func (o *Orchestrator) Run(ctx context.Context, p Provider) (BatchSummary, error) {
	pending := o.store.PendingForProvider(p.Name())
	sort.Strings(pending)

	summary := BatchSummary{Provider: p.Name(), Attempted: len(pending)}
	batchSize := p.BatchSize()
	if batchSize <= 0 {
		batchSize = 50
	}

	batchesSinceSave := 0
	for start := 0; start < len(pending); start += batchSize {
		select {
		case <-ctx.Done():
			if err := o.store.Save(); err != nil {
				return summary, fmt.Errorf("saving on cancellation: %w", err)
			}
			return summary, ctx.Err()
		default:
		}

		end := start + batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		if err := o.limiter.Wait(ctx); err != nil {
			return summary, fmt.Errorf("rate limiter wait: %w", err)
		}

		results, err := p.BatchForward(ctx, batch)
		if err != nil {
			summary.FailedBatches++
			summary.Failed += len(batch)
			if o.logger != nil {
				o.logger.Warn("geocode batch failed", zap.String("provider", p.Name()), zap.Int("batch_size", len(batch)), zap.Error(err))
			}
			continue
		}
		if len(results) != len(batch) {
			return summary, fmt.Errorf("provider %s returned %d results for %d addresses", p.Name(), len(results), len(batch))
		}

		for i, addr := range batch {
			r := results[i]
			if r == nil || coarseAccuracyTypes[r.AccuracyType] {
				summary.Failed++
				continue
			}
			entry := models.GeocodeEntry{
				Lat:          r.Lat,
				Lng:          r.Lng,
				Accuracy:     r.Accuracy,
				AccuracyType: r.AccuracyType,
				GeocodedAt:   time.Now(),
			}
			o.store.SetProvider(addr, p.Name(), entry)
			summary.Succeeded++
		}

		batchesSinceSave++
		if batchesSinceSave >= o.saveEvery {
			if err := o.store.Save(); err != nil {
				return summary, fmt.Errorf("periodic save: %w", err)
			}
			batchesSinceSave = 0
		}
	}

	if err := o.store.Save(); err != nil {
		return summary, fmt.Errorf("final save: %w", err)
	}
	return summary, nil
}
