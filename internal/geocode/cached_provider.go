package geocode

import (
	"context"
	"fmt"

	"github.com/brandonolsen/cleo-consolidator/app/models"
)

// Cache is the subset of the hybrid geocode cache a CachingProvider needs.
// Satisfied structurally by app/services.GeocodeCache (in-memory, Redis,
// MongoDB, or hybrid tier) without internal/geocode importing app/services.
type Cache interface {
	Get(ctx context.Context, key string) (*models.GeocodeEntry, bool, error)
	Set(ctx context.Context, key string, entry *models.GeocodeEntry) error
}

// CachingProvider fronts a Provider with cache, so repeat geocode runs over
// addresses already resolved in a prior run don't re-bill the provider.
// Keyed by "<provider>:<address>" so one cache instance can front multiple
// providers without collisions.
type CachingProvider struct {
	inner Provider
	cache Cache
}

// NewCachingProvider wraps inner with cache.
func NewCachingProvider(inner Provider, cache Cache) *CachingProvider {
	return &CachingProvider{inner: inner, cache: cache}
}

func (c *CachingProvider) Name() string   { return c.inner.Name() }
func (c *CachingProvider) BatchSize() int { return c.inner.BatchSize() }

// BatchForward serves whatever it can from cache, sends only the misses to
// the wrapped provider, and writes fresh results back before returning the
// combined, order-preserved result slice.
func (c *CachingProvider) BatchForward(ctx context.Context, addresses []string) ([]*ProviderResult, error) {
	results := make([]*ProviderResult, len(addresses))
	var missIdx []int
	var missAddrs []string

	for i, addr := range addresses {
		if entry, found, err := c.cache.Get(ctx, c.cacheKey(addr)); err == nil && found {
			results[i] = &ProviderResult{
				Lat:          entry.Lat,
				Lng:          entry.Lng,
				Accuracy:     entry.Accuracy,
				AccuracyType: entry.AccuracyType,
			}
			continue
		}
		missIdx = append(missIdx, i)
		missAddrs = append(missAddrs, addr)
	}

	if len(missAddrs) == 0 {
		return results, nil
	}

	missResults, err := c.inner.BatchForward(ctx, missAddrs)
	if err != nil {
		return nil, err
	}
	if len(missResults) != len(missAddrs) {
		return nil, fmt.Errorf("provider %s returned %d results for %d addresses", c.inner.Name(), len(missResults), len(missAddrs))
	}

	for j, idx := range missIdx {
		r := missResults[j]
		results[idx] = r
		if r == nil {
			continue
		}
		entry := models.GeocodeEntry{
			Lat:          r.Lat,
			Lng:          r.Lng,
			Accuracy:     r.Accuracy,
			AccuracyType: r.AccuracyType,
		}
		if err := c.cache.Set(ctx, c.cacheKey(missAddrs[j]), &entry); err != nil {
			continue
		}
	}

	return results, nil
}

func (c *CachingProvider) cacheKey(address string) string {
	return c.inner.Name() + ":" + address
}
