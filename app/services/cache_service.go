package services

import (
	"context"
	"sync"
	"time"

	"github.com/brandonolsen/cleo-consolidator/app/models"
)

// CacheService is a plain in-memory TTL cache, used in tests and for local
// runs without Redis/Mongo configured.
type CacheService struct {
	cache      map[string]*models.GeocodeEntry
	timestamps map[string]time.Time
	mu         sync.RWMutex
	ttl        time.Duration
	hits       int64
	misses     int64
}

// NewCacheService builds an in-memory cache with the given TTL.
func NewCacheService(ttl time.Duration) *CacheService {
	return &CacheService{
		cache:      make(map[string]*models.GeocodeEntry),
		timestamps: make(map[string]time.Time),
		ttl:        ttl,
	}
}

func (cs *CacheService) Get(ctx context.Context, key string) (*models.GeocodeEntry, bool, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	result, exists := cs.cache[key]
	if !exists {
		cs.misses++
		return nil, false, nil
	}
	if cs.isExpired(key) {
		go cs.deleteExpired(key)
		cs.misses++
		return nil, false, nil
	}
	cs.hits++
	return result, true, nil
}

func (cs *CacheService) Set(ctx context.Context, key string, entry *models.GeocodeEntry) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.timestamps[key] = time.Now()
	cs.cache[key] = entry
	return nil
}

func (cs *CacheService) Delete(ctx context.Context, key string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.cache, key)
	delete(cs.timestamps, key)
	return nil
}

func (cs *CacheService) Clear(ctx context.Context) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.cache = make(map[string]*models.GeocodeEntry)
	cs.timestamps = make(map[string]time.Time)
	cs.hits, cs.misses = 0, 0
	return nil
}

// Size returns the current item count.
func (cs *CacheService) Size() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.cache)
}

func (cs *CacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	total := cs.hits + cs.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(cs.hits) / float64(total)
	}
	return &CacheStats{
		HitRate:    hitRate,
		TotalHits:  cs.hits,
		TotalMiss:  cs.misses,
		TotalItems: int64(len(cs.cache)),
	}, nil
}

// CleanupExpired removes every expired entry.
func (cs *CacheService) CleanupExpired() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for key := range cs.cache {
		if cs.isExpired(key) {
			delete(cs.cache, key)
			delete(cs.timestamps, key)
		}
	}
}

func (cs *CacheService) isExpired(key string) bool {
	timestamp, exists := cs.timestamps[key]
	if !exists {
		return true
	}
	return time.Since(timestamp) > cs.ttl
}

func (cs *CacheService) deleteExpired(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.cache, key)
	delete(cs.timestamps, key)
}

func (cs *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	_, exists := cs.cache[key]
	return exists, nil
}

func (cs *CacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	timestamp, exists := cs.timestamps[key]
	if !exists {
		return 0, nil
	}
	remaining := cs.ttl - time.Since(timestamp)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// StartCleanupWorker runs CleanupExpired on a ticker until the process exits.
func (cs *CacheService) StartCleanupWorker(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			cs.CleanupExpired()
		}
	}()
}

func (cs *CacheService) Close() error { return nil }
