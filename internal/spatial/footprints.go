package spatial

import "github.com/brandonolsen/cleo-consolidator/app/models"

// FootprintIndex wraps Index over building footprint features. Footprints
// are read-only input (§3): there is no Save/persistence here.
type FootprintIndex struct {
	idx      *Index
	features map[string]models.FootprintFeature
}

// NewFootprintIndex builds the index from a loaded feature collection. Load
// failures (handled by the caller) downgrade to an empty index whose
// queries all return empty, per §4's failure semantics.
func NewFootprintIndex(features []models.FootprintFeature) *FootprintIndex {
	inputs := make([]FeatureInput, 0, len(features))
	byID := make(map[string]models.FootprintFeature, len(features))
	for _, f := range features {
		inputs = append(inputs, FeatureInput{ID: f.ID, Poly: f.Geometry})
		byID[f.ID] = f
	}
	return &FootprintIndex{idx: Build(inputs), features: byID}
}

func (fi *FootprintIndex) FindContaining(lat, lng float64) []string {
	return fi.idx.FindContaining(lat, lng)
}

func (fi *FootprintIndex) FindNearest(lat, lng, maxMeters float64) (string, bool) {
	return fi.idx.FindNearest(lat, lng, maxMeters)
}

func (fi *FootprintIndex) GetFeature(id string) (models.FootprintFeature, bool) {
	f, ok := fi.features[id]
	return f, ok
}

func (fi *FootprintIndex) GetAreaSqm(id string) (float64, bool) {
	return fi.idx.GetAreaSqm(id)
}

func (fi *FootprintIndex) FeaturesInBBox(south, west, north, east float64) []string {
	return fi.idx.FeaturesInBBox(south, west, north, east)
}
