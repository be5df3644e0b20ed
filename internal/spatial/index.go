package spatial

import (
	"math"
	"sort"

	"github.com/brandonolsen/cleo-consolidator/app/models"
	"github.com/uber/h3-go/v4"
)

// h3Resolution buckets features into roughly 150-200m cells, fine enough
// that find_containing/find_nearest only need to scan a handful of
// candidates rather than the whole feature set. This replaces the source's
// STRtree pre-filter (no Go R-tree library exists in the retrieval pack).
const h3Resolution = 9

// indexedFeature pairs a feature's id/geometry/centroid with its h3 cell.
type indexedFeature struct {
	id       string
	poly     models.Polygon
	centLat  float64
	centLng  float64
	areaSqm  float64
	cell     h3.Cell
}

// Index is a generic h3-bucketed spatial index over polygon features,
// shared by the Footprint Index (I) and Parcel Index (J) — both use the
// identical query contract in §4.I/4.J.
type Index struct {
	features map[string]*indexedFeature
	byCell   map[h3.Cell][]string
}

// FeatureInput is the minimal shape Build needs from a caller's feature type.
type FeatureInput struct {
	ID   string
	Poly models.Polygon
}

// Build constructs the index, repairing-or-dropping each polygon per §4.I/J.
// Centroid/area are computed once here so later queries are pure.
func Build(inputs []FeatureInput) *Index {
	idx := &Index{
		features: make(map[string]*indexedFeature, len(inputs)),
		byCell:   make(map[h3.Cell][]string),
	}
	for _, in := range inputs {
		poly, ok := RepairOrDrop(in.Poly)
		if !ok {
			continue
		}
		lat, lng := Centroid(poly)
		cell := h3.LatLngToCell(h3.NewLatLng(lat, lng), h3Resolution)
		f := &indexedFeature{
			id: in.ID, poly: poly, centLat: lat, centLng: lng,
			areaSqm: ShoelaceAreaSqm(poly), cell: cell,
		}
		idx.features[in.ID] = f
		idx.byCell[cell] = append(idx.byCell[cell], in.ID)
	}
	return idx
}

// candidateIDs returns every feature id whose centroid cell lies within k
// rings of (lat,lng)'s cell.
func (idx *Index) candidateIDs(lat, lng float64, k int) []string {
	origin := h3.LatLngToCell(h3.NewLatLng(lat, lng), h3Resolution)
	cells, err := h3.GridDisk(origin, k)
	if err != nil {
		cells = []h3.Cell{origin}
	}
	var out []string
	for _, c := range cells {
		out = append(out, idx.byCell[c]...)
	}
	return out
}

// FindContaining returns every feature id whose true polygon.contains(point)
// holds, post-filtered from the h3 candidate set (§4.I/J).
func (idx *Index) FindContaining(lat, lng float64) []string {
	var out []string
	for _, id := range idx.candidateIDs(lat, lng, 1) {
		f := idx.features[id]
		if f != nil && Contains(lat, lng, f.poly) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// FindNearest queries a buffered envelope around (lat,lng) (buffer in
// degrees = maxMeters/79000, §9) and returns the nearest feature within
// maxMeters by true haversine, breaking ties by lowest id (§9's
// deterministic tie-break rule).
func (idx *Index) FindNearest(lat, lng, maxMeters float64) (string, bool) {
	bufferDeg := BufferDegrees(maxMeters)
	// Convert the degree buffer to an approximate ring count using the same
	// rough meters-per-degree scale factor as the rest of §4.I/J.
	k := int(math.Ceil(bufferDeg * RoughMetersPerDegree / 174.0))
	if k < 1 {
		k = 1
	}

	bestDist := math.MaxFloat64
	var bestID string
	for _, id := range idx.candidateIDs(lat, lng, k) {
		f := idx.features[id]
		if f == nil {
			continue
		}
		d := haversine(lat, lng, f.centLat, f.centLng)
		if d > maxMeters {
			continue
		}
		if d < bestDist || (d == bestDist && id < bestID) {
			bestDist = d
			bestID = id
		}
	}
	if bestID == "" {
		return "", false
	}
	return bestID, true
}

// GetPolygon returns the stored (repaired) polygon for id.
func (idx *Index) GetPolygon(id string) (models.Polygon, bool) {
	f, ok := idx.features[id]
	if !ok {
		return models.Polygon{}, false
	}
	return f.poly, true
}

// GetAreaSqm returns the precomputed shoelace area for id.
func (idx *Index) GetAreaSqm(id string) (float64, bool) {
	f, ok := idx.features[id]
	if !ok {
		return 0, false
	}
	return f.areaSqm, true
}

// GetCentroid returns the stored centroid for id.
func (idx *Index) GetCentroid(id string) (lat, lng float64, ok bool) {
	f, found := idx.features[id]
	if !found {
		return 0, 0, false
	}
	return f.centLat, f.centLng, true
}

// FeaturesInBBox linear-scans by stored centroid — bbox queries are
// viewport-sized, so no index is required (§4.I/J).
func (idx *Index) FeaturesInBBox(south, west, north, east float64) []string {
	var out []string
	for id, f := range idx.features {
		if f.centLat >= south && f.centLat <= north && f.centLng >= west && f.centLng <= east {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func haversine(lat1, lng1, lat2, lng2 float64) float64 {
	const R = 6371000.0
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) + math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
