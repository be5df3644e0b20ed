package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GeocodioProvider implements Provider against Geocodio's batch geocoding
// endpoint. No ecosystem Geocodio SDK exists in the example pack, so this
// talks the documented HTTP API directly with net/http, the same way the
// Overpass client talks to Overpass directly rather than through a wrapper
// library.
type GeocodioProvider struct {
	apiKey     string
	batchSize  int
	httpClient *http.Client
}

const geocodioBatchEndpoint = "https://api.geocod.io/v1.7/geocode"

// NewGeocodioProvider builds a provider capped at batchSize addresses per
// call (Geocodio's batch endpoint accepts up to 10,000; the pipeline's own
// GeocodeProviderCfg.BatchSize governs how aggressively this runner uses
// that ceiling).
func NewGeocodioProvider(apiKey string, batchSize int) *GeocodioProvider {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &GeocodioProvider{
		apiKey:     apiKey,
		batchSize:  batchSize,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *GeocodioProvider) Name() string   { return "geocodio" }
func (g *GeocodioProvider) BatchSize() int { return g.batchSize }

type geocodioBatchResponse struct {
	Results []geocodioResultEntry `json:"results"`
}

type geocodioResultEntry struct {
	Query    string             `json:"query"`
	Response geocodioAddresses `json:"response"`
}

type geocodioAddresses struct {
	Results []geocodioAddressResult `json:"results"`
}

type geocodioAddressResult struct {
	FormattedAddress string `json:"formatted_address"`
	Location         struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
	Accuracy     float64 `json:"accuracy"`
	AccuracyType string  `json:"accuracy_type"`
}

// BatchForward POSTs every address in one batch call and maps each result
// back to its input position, matching the caller contract in Provider.
func (g *GeocodioProvider) BatchForward(ctx context.Context, addresses []string) ([]*ProviderResult, error) {
	form := url.Values{}
	for i, addr := range addresses {
		form.Add(fmt.Sprintf("q.%d", i), addr)
	}

	reqURL := geocodioBatchEndpoint + "?api_key=" + url.QueryEscape(g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building geocodio request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling geocodio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocodio returned status %d", resp.StatusCode)
	}

	var batch geocodioBatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, fmt.Errorf("decoding geocodio response: %w", err)
	}

	byQuery := make(map[string]geocodioResultEntry, len(batch.Results))
	for _, r := range batch.Results {
		byQuery[r.Query] = r
	}

	out := make([]*ProviderResult, len(addresses))
	for i, addr := range addresses {
		entry, ok := byQuery[addr]
		if !ok || len(entry.Response.Results) == 0 {
			continue
		}
		best := entry.Response.Results[0]
		accuracy := best.Accuracy
		out[i] = &ProviderResult{
			Lat:              best.Location.Lat,
			Lng:              best.Location.Lng,
			Accuracy:         &accuracy,
			AccuracyType:     best.AccuracyType,
			FormattedAddress: best.FormattedAddress,
		}
	}
	return out, nil
}
