// Package registry implements the Property Registry (§4.F): the canonical
// P-keyed entity table, with monotonic ID allocation, dedup, and atomic save.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/brandonolsen/cleo-consolidator/app/models"
	"github.com/brandonolsen/cleo-consolidator/internal/normalizer"
	"go.uber.org/zap"
)

var pIDRe = regexp.MustCompile(`^P(\d+)$`)

// dedupNorm normalizes stored address/city before indexing, so the index
// keys match what FindByDedupKey builds from already-normalized input.
var dedupNorm = normalizer.NewAddressNormalizer()

// Registry holds the in-memory properties map plus a dedup-key index built
// from the properties currently loaded.
type Registry struct {
	mu       sync.RWMutex
	path     string
	logger   *zap.Logger
	doc      models.RegistryDocument
	nextSeq  int
	byDedup  map[string]string // dedup key -> P-ID, for properties with non-empty rt_ids or gw_ids
}

// New loads path if present, or starts empty. The ID allocator is
// initialized by scanning existing IDs for the maximum numeric suffix.
func New(path string, logger *zap.Logger) (*Registry, error) {
	r := &Registry{
		path:   path,
		logger: logger,
		doc: models.RegistryDocument{
			Properties: make(map[string]*models.Property),
		},
		byDedup: make(map[string]string),
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("reading registry %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &r.doc); err != nil {
		return nil, fmt.Errorf("parsing registry %s: %w", path, err)
	}
	if r.doc.Properties == nil {
		r.doc.Properties = make(map[string]*models.Property)
	}
	for id, p := range r.doc.Properties {
		r.indexDedup(id, p)
		if m := pIDRe.FindStringSubmatch(id); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > r.nextSeq {
				r.nextSeq = n
			}
		}
	}
	return r, nil
}

func (r *Registry) indexDedup(id string, p *models.Property) {
	key := dedupNorm.DedupKey(p.Address, p.City)
	if len(p.RTIDs) > 0 || len(p.GWIDs) > 0 {
		r.byDedup[key] = id
	}
}

// AllocateID returns the next monotonic P-ID. Never reassigns an existing one.
func (r *Registry) AllocateID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSeq++
	return fmt.Sprintf("P%05d", r.nextSeq)
}

// Get returns the property for id, or nil.
func (r *Registry) Get(id string) *models.Property {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.doc.Properties[id]
}

// FindByDedupKey returns the P-ID of a non-brand-only property sharing the
// dedup key, if one exists.
func (r *Registry) FindByDedupKey(normAddress, normCity string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byDedup[models.DedupKey(normAddress, normCity)]
	return id, ok
}

// Put inserts or replaces a property and reindexes its dedup key.
func (r *Registry) Put(p *models.Property) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc.Properties[p.ID] = p
	r.indexDedup(p.ID, p)
}

// Delete removes a property (used by orphan cleanup during brand import).
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.doc.Properties, id)
}

// All returns every property, for callers that need to range over the
// full registry (spatial indexing, consolidation).
func (r *Registry) All() []*models.Property {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Property, 0, len(r.doc.Properties))
	for _, p := range r.doc.Properties {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Save recomputes meta, sorts properties by ID, and atomically replaces the
// on-disk document (§4.F, §7 invariant-violation-safe atomic replace).
func (r *Registry) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.doc.Recompute(time.Now())

	data, err := marshalSorted(&r.doc)
	if err != nil {
		return fmt.Errorf("marshaling registry: %w", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".properties-*.tmp")
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
	if err := os.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("renaming temp file into place: %w", err)
	}
	if r.logger != nil {
		r.logger.Info("registry saved", zap.Int("properties", len(r.doc.Properties)), zap.String("path", r.path))
	}
	return nil
}

// marshalSorted renders properties in ID order for byte-stable reruns
// (§8: "running import_to_registry twice yields the same registry
// byte-for-byte after stable sort").
func marshalSorted(doc *models.RegistryDocument) ([]byte, error) {
	ids := make([]string, 0, len(doc.Properties))
	for id := range doc.Properties {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	ordered := &struct {
		Meta       models.RegistryMeta `json:"meta"`
		Properties json.RawMessage     `json:"properties"`
	}{Meta: doc.Meta}

	buf := []byte("{")
	for i, id := range ids {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyBytes, _ := json.Marshal(id)
		valBytes, err := json.Marshal(doc.Properties[id])
		if err != nil {
			return nil, err
		}
		buf = append(buf, keyBytes...)
		buf = append(buf, ':')
		buf = append(buf, valBytes...)
	}
	buf = append(buf, '}')
	ordered.Properties = buf
	return json.MarshalIndent(ordered, "", "  ")
}
