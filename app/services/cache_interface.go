package services

import (
	"context"
	"time"

	"github.com/brandonolsen/cleo-consolidator/app/models"
)

// CacheStats reports cache hit/miss counts for the ops stats endpoint.
type CacheStats struct {
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// GeocodeCache is the interface every cache tier (in-memory, Redis, Mongo,
// hybrid) implements, fronting the Coordinate Store so repeated lookups of
// the same address+provider don't re-bill the geocoding provider.
type GeocodeCache interface {
	Get(ctx context.Context, key string) (*models.GeocodeEntry, bool, error)
	Set(ctx context.Context, key string, entry *models.GeocodeEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	GetStats(ctx context.Context) (*CacheStats, error)
	Exists(ctx context.Context, key string) (bool, error)
	GetTTL(ctx context.Context, key string) (time.Duration, error)
	Close() error
}
