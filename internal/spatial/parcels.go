package spatial

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/brandonolsen/cleo-consolidator/app/models"
)

// ParcelIndex wraps Index over municipal parcel polygons, with the same
// query surface as FootprintIndex (§4.J).
type ParcelIndex struct {
	idx      *Index
	features map[string]models.ParcelFeature
}

func NewParcelIndex(features []models.ParcelFeature) *ParcelIndex {
	inputs := make([]FeatureInput, 0, len(features))
	byID := make(map[string]models.ParcelFeature, len(features))
	for _, f := range features {
		inputs = append(inputs, FeatureInput{ID: f.ID, Poly: f.Geometry})
		byID[f.ID] = f
	}
	return &ParcelIndex{idx: Build(inputs), features: byID}
}

func (pi *ParcelIndex) FindContaining(lat, lng float64) []string {
	return pi.idx.FindContaining(lat, lng)
}

func (pi *ParcelIndex) FindNearest(lat, lng, maxMeters float64) (string, bool) {
	return pi.idx.FindNearest(lat, lng, maxMeters)
}

func (pi *ParcelIndex) GetFeature(id string) (models.ParcelFeature, bool) {
	f, ok := pi.features[id]
	return f, ok
}

func (pi *ParcelIndex) GetAreaSqm(id string) (float64, bool) {
	return pi.idx.GetAreaSqm(id)
}

func (pi *ParcelIndex) GetCentroid(id string) (lat, lng float64, ok bool) {
	return pi.idx.GetCentroid(id)
}

// ParcelStore persists parcels.json: features, the property->parcel
// mapping, and the no-coverage list (§6 External Interfaces).
type ParcelStore struct {
	path string
	doc  models.ParcelDocument
}

// NewParcelStore loads path if present, or starts empty.
func NewParcelStore(path string) (*ParcelStore, error) {
	s := &ParcelStore{path: path, doc: models.ParcelDocument{
		PropertyToParcel: make(map[string]string),
	}}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading parcel store %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("parsing parcel store %s: %w", path, err)
	}
	if s.doc.PropertyToParcel == nil {
		s.doc.PropertyToParcel = make(map[string]string)
	}
	return s, nil
}

func (s *ParcelStore) Features() []models.ParcelFeature { return s.doc.Features }

// ExplicitParcelFor returns the harvester-provided parcel mapping for a
// property, if any (§4.L: "prefer an explicit mapping ... else
// parcel_index.find_containing").
func (s *ParcelStore) ExplicitParcelFor(propID string) (string, bool) {
	id, ok := s.doc.PropertyToParcel[propID]
	return id, ok
}

// SetFeatures replaces the stored feature collection.
func (s *ParcelStore) SetFeatures(features []models.ParcelFeature) {
	s.doc.Features = features
}

// Save atomically replaces parcels.json.
func (s *ParcelStore) Save() error {
	s.doc.Meta.Built = time.Now().UTC().Format(time.RFC3339)
	s.doc.Meta.TotalFeatures = len(s.doc.Features)

	sort.Slice(s.doc.Features, func(i, j int) bool { return s.doc.Features[i].ID < s.doc.Features[j].ID })

	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling parcel store: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".parcels-*.tmp")
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
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}
