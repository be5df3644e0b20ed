package geocode

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/brandonolsen/cleo-consolidator/app/models"
	"go.uber.org/zap"
)

// Store is the Coordinate Store (§4.B): a single on-disk JSON document,
// written with atomic-replace semantics, keyed by normalized address.
// Reads share mu's read lock; writes are serialized behind mu, matching
// the single-writer/many-reader contract in §5.
type Store struct {
	mu       sync.RWMutex
	path     string
	doc      models.CoordinateDocument
	logger   *zap.Logger
}

// NewStore loads path if it exists, or starts from an empty document.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	s := &Store{
		path:   path,
		logger: logger,
		doc: models.CoordinateDocument{
			Meta:      models.CoordinateMeta{Version: 1},
			Addresses: make(map[string]map[string]models.GeocodeEntry),
		},
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading coordinate store %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("parsing coordinate store %s: %w", path, err)
	}
	if s.doc.Addresses == nil {
		s.doc.Addresses = make(map[string]map[string]models.GeocodeEntry)
	}
	return s, nil
}

// Get returns the provider->entry map for address, or (nil, false) if absent.
func (s *Store) Get(address string) (map[string]models.GeocodeEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, ok := s.doc.Addresses[address]
	if !ok {
		return nil, false
	}
	out := make(map[string]models.GeocodeEntry, len(entries))
	for k, v := range entries {
		out[k] = v
	}
	return out, true
}

// SetProvider idempotently overwrites the entry for (address, provider).
func (s *Store) SetProvider(address, provider string, entry models.GeocodeEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc.Addresses[address] == nil {
		s.doc.Addresses[address] = make(map[string]models.GeocodeEntry)
	}
	s.doc.Addresses[address][provider] = entry
}

// BestCoords implements §4.B's selection rule: single provider wins outright;
// with multiple non-scraper providers, per-axis median; scraper only as a
// last resort when nothing else is present.
func (s *Store) BestCoords(address string) (lat, lng float64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, found := s.doc.Addresses[address]
	if !found || len(entries) == 0 {
		return 0, 0, false
	}

	var lats, lngs []float64
	var scraper *models.GeocodeEntry
	for provider, e := range entries {
		if provider == models.ProviderScraper {
			v := e
			scraper = &v
			continue
		}
		lats = append(lats, e.Lat)
		lngs = append(lngs, e.Lng)
	}

	if len(lats) == 0 {
		if scraper != nil {
			return scraper.Lat, scraper.Lng, true
		}
		return 0, 0, false
	}
	if len(lats) == 1 {
		return lats[0], lngs[0], true
	}
	sort.Float64s(lats)
	sort.Float64s(lngs)
	mid := len(lats) / 2
	return lats[mid], lngs[mid], true
}

// PendingForProvider lists addresses lacking a result for provider, in
// sorted order so downstream batching is deterministic.
func (s *Store) PendingForProvider(provider string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for addr, entries := range s.doc.Addresses {
		if _, ok := entries[provider]; !ok {
			out = append(out, addr)
		}
	}
	sort.Strings(out)
	return out
}

// Register ensures address exists in the store with no providers yet, so
// subsequent pending-queries pick it up. Idempotent.
func (s *Store) Register(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doc.Addresses[address]; !ok {
		s.doc.Addresses[address] = make(map[string]models.GeocodeEntry)
	}
}

// DivergenceReport implements §4.B's divergence report: for every address
// with >=2 providers, compute every pairwise haversine distance and report
// the worst pair; only addresses whose max distance >= thresholdM are kept,
// sorted descending.
func (s *Store) DivergenceReport(thresholdM float64) []models.DivergenceEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.DivergenceEntry
	for addr, entries := range s.doc.Addresses {
		if len(entries) < 2 {
			continue
		}
		type named struct {
			provider string
			e        models.GeocodeEntry
		}
		var list []named
		for p, e := range entries {
			list = append(list, named{p, e})
		}
		sort.Slice(list, func(i, j int) bool { return list[i].provider < list[j].provider })

		var maxDist float64
		var worstA, worstB string
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				d := HaversineMeters(list[i].e.Lat, list[i].e.Lng, list[j].e.Lat, list[j].e.Lng)
				if d > maxDist {
					maxDist = d
					worstA = list[i].provider
					worstB = list[j].provider
				}
			}
		}
		if maxDist >= thresholdM {
			out = append(out, models.DivergenceEntry{
				Address:    addr,
				MaxMeters:  maxDist,
				WorstPairA: worstA,
				WorstPairB: worstB,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MaxMeters > out[j].MaxMeters })
	return out
}

// Save atomically replaces the on-disk document: write to a temp file in the
// same directory, then rename. On any error the prior file is left intact
// and the temp file is removed.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Meta.UpdatedAt = time.Now()
	s.doc.Meta.TotalAddresses = len(s.doc.Addresses)
	providers := map[string]bool{}
	for _, entries := range s.doc.Addresses {
		for p := range entries {
			providers[p] = true
		}
	}
	var provList []string
	for p := range providers {
		provList = append(provList, p)
	}
	sort.Strings(provList)
	s.doc.Meta.Providers = provList

	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling coordinate store: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".coordinates-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if _, statErr := os.Stat(tmpPath); statErr == nil {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("fsyncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("renaming temp file into place: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("coordinate store saved", zap.Int("addresses", len(s.doc.Addresses)), zap.String("path", s.path))
	}
	return nil
}
