// Package osm wraps the Overpass API (module N): a narrow HTTP client for
// pulling named tenant POIs and building tags used to enrich footprints.
package osm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrDisabled is returned by every query method once Disable has been
// called, per the spec's open question on disabling the Overpass endpoint.
var ErrDisabled = errors.New("osm: overpass client disabled")

const maxRetries = 3

// Feature is one named point returned by an Overpass query.
type Feature struct {
	ID   int64
	Name string
	Lat  float64
	Lng  float64
	Tags map[string]string
}

// Client rotates across a set of equivalent Overpass endpoints, rate
// limiting requests and retrying on 429 or connection failure.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
	limiter    *rate.Limiter

	mu        sync.Mutex
	endpoints []string
	next      int
	disabled  bool
}

// NewClient builds a Client over endpoints, rate limited to at most one
// request every minInterval (default 2s, matching the source's documented
// Overpass courtesy delay).
func NewClient(endpoints []string, minInterval time.Duration, logger *zap.Logger) *Client {
	if minInterval <= 0 {
		minInterval = 2 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		limiter:    rate.NewLimiter(rate.Every(minInterval), 1),
		endpoints:  endpoints,
	}
}

// Disable flips the client into a mode where every query method returns
// ErrDisabled immediately, without making a request.
func (c *Client) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disabled = true
}

func (c *Client) isDisabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disabled
}

// currentEndpoint returns the endpoint the pointer is on. The pointer only
// moves in advanceEndpoint.
func (c *Client) currentEndpoint() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.endpoints) == 0 {
		return "", errors.New("osm: no overpass endpoints configured")
	}
	ep := c.endpoints[c.next%len(c.endpoints)]
	return ep, nil
}

// advanceEndpoint moves the pointer to the next endpoint (round-robin),
// used after a failed attempt so a retry doesn't hit the same endpoint twice
// in a row.
func (c *Client) advanceEndpoint() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.endpoints) > 0 {
		c.next++
	}
}

// QueryTenants returns named POIs within radiusMeters of (lat, lng),
// deduplicated by OSM node ID, for brand-tenant enrichment.
func (c *Client) QueryTenants(ctx context.Context, lat, lng, radiusMeters float64) ([]Feature, error) {
	if c.isDisabled() {
		return nil, ErrDisabled
	}
	query := fmt.Sprintf(`[out:json][timeout:25];node(around:%f,%f,%f)["name"];out body;`, radiusMeters, lat, lng)
	return c.runDeduped(ctx, query)
}

// QueryBuildings returns building footprints (nodes carrying a "building"
// tag) within the given bounding box, for the Footprint Index's building
// enrichment path.
func (c *Client) QueryBuildings(ctx context.Context, south, west, north, east float64) ([]Feature, error) {
	if c.isDisabled() {
		return nil, ErrDisabled
	}
	query := fmt.Sprintf(`[out:json][timeout:25];node["building"](%f,%f,%f,%f);out body;`, south, west, north, east)
	return c.runDeduped(ctx, query)
}

func (c *Client) runDeduped(ctx context.Context, query string) ([]Feature, error) {
	raw, err := c.run(ctx, query)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool, len(raw))
	out := make([]Feature, 0, len(raw))
	for _, f := range raw {
		if seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		out = append(out, f)
	}
	return out, nil
}

type overpassResponse struct {
	Elements []struct {
		ID   int64             `json:"id"`
		Lat  float64           `json:"lat"`
		Lon  float64           `json:"lon"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

func (c *Client) run(ctx context.Context, query string) ([]Feature, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		endpoint, err := c.currentEndpoint()
		if err != nil {
			return nil, err
		}

		resp, err := c.do(ctx, endpoint, query)
		if err != nil {
			lastErr = err
			c.advanceEndpoint()
			if c.logger != nil {
				c.logger.Warn("overpass request failed, retrying", zap.String("endpoint", endpoint), zap.Int("attempt", attempt+1), zap.Error(err))
			}
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("osm: query failed after %d attempts: %w", maxRetries, lastErr)
}

func (c *Client) do(ctx context.Context, endpoint, query string) ([]Feature, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString("data="+query))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("osm: rate limited by %s", endpoint)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("osm: %s returned %d: %s", endpoint, resp.StatusCode, string(body))
	}

	var parsed overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("osm: decoding response from %s: %w", endpoint, err)
	}

	features := make([]Feature, 0, len(parsed.Elements))
	for _, el := range parsed.Elements {
		features = append(features, Feature{
			ID:   el.ID,
			Name: el.Tags["name"],
			Lat:  el.Lat,
			Lng:  el.Lon,
			Tags: el.Tags,
		})
	}
	return features, nil
}
