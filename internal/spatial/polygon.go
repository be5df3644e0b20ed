package spatial

import (
	"math"

	"github.com/brandonolsen/cleo-consolidator/app/models"
)

// degreesToMetersBufferDivisor and degreesToMetersDistanceScale are the
// source's intentionally approximate degrees->meters constants (§9): they
// gate candidates only, never report a reported distance, and must be
// preserved verbatim.
const (
	degreesToMetersBufferDivisor = 79000.0
	degreesToMetersDistanceScale = 95000.0
)

// PointInRing implements ray-casting point-in-polygon for one ring.
func PointInRing(lat, lng float64, ring models.Ring) bool {
	inside := false
	n := len(ring)
	if n < 3 {
		return false
	}
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if ((yi > lat) != (yj > lat)) &&
			(lng < (xj-xi)*(lat-yi)/(yj-yi)+xi) {
			inside = !inside
		}
	}
	return inside
}

// Contains reports whether (lat,lng) falls inside the polygon's outer ring
// and not inside any hole ring. Invalid (fewer than 3 points) or empty
// polygons are treated as non-containing rather than erroring (§4.I/J:
// "invalid or empty polygons are dropped").
func Contains(lat, lng float64, poly models.Polygon) bool {
	if len(poly.Rings) == 0 {
		return false
	}
	if !PointInRing(lat, lng, poly.Rings[0]) {
		return false
	}
	for _, hole := range poly.Rings[1:] {
		if PointInRing(lat, lng, hole) {
			return false
		}
	}
	return true
}

// ShoelaceAreaSqm computes polygon area via the shoelace formula in a local
// equirectangular projection centered on the outer ring's first vertex
// (§4.I/J), which keeps the math in plain meters without needing a full
// geodesic area library.
func ShoelaceAreaSqm(poly models.Polygon) float64 {
	if len(poly.Rings) == 0 || len(poly.Rings[0]) < 3 {
		return 0
	}
	area := ringAreaSqm(poly.Rings[0])
	for _, hole := range poly.Rings[1:] {
		area -= ringAreaSqm(hole)
	}
	if area < 0 {
		area = -area
	}
	return area
}

func ringAreaSqm(ring models.Ring) float64 {
	origin := ring[0]
	latRad := origin[1] * math.Pi / 180
	metersPerDegLat := 111320.0
	metersPerDegLng := 111320.0 * math.Cos(latRad)

	pts := make([][2]float64, len(ring))
	for i, p := range ring {
		pts[i] = [2]float64{
			(p[0] - origin[0]) * metersPerDegLng,
			(p[1] - origin[1]) * metersPerDegLat,
		}
	}

	var sum float64
	n := len(pts)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i][0]*pts[j][1] - pts[j][0]*pts[i][1]
	}
	return sum / 2
}

// Centroid returns the arithmetic mean of the outer ring's vertices — good
// enough for a display/consolidation centroid, matching what the source
// stores alongside each feature rather than computing a true area centroid.
func Centroid(poly models.Polygon) (lat, lng float64) {
	if len(poly.Rings) == 0 || len(poly.Rings[0]) == 0 {
		return 0, 0
	}
	var sumLat, sumLng float64
	ring := poly.Rings[0]
	for _, p := range ring {
		sumLng += p[0]
		sumLat += p[1]
	}
	n := float64(len(ring))
	return sumLat / n, sumLng / n
}

// RepairOrDrop returns (poly, true) unless the polygon is structurally
// invalid (no outer ring, or outer ring with fewer than 3 points), matching
// §4.I/J's "invalid polygons are repaired with a zero-distance buffer on
// load; still-invalid or empty polygons are dropped." A zero-distance
// buffer on an already-simple ring is a no-op, so repair here is simply
// validation — real self-intersections are outside what stdlib math can fix
// without a full geometry engine.
func RepairOrDrop(poly models.Polygon) (models.Polygon, bool) {
	if len(poly.Rings) == 0 || len(poly.Rings[0]) < 3 {
		return models.Polygon{}, false
	}
	return poly, true
}

// BufferDegrees converts a meter radius to the approximate degree buffer
// used to size candidate-gathering envelopes (§4.I/J, §9).
func BufferDegrees(maxMeters float64) float64 {
	return maxMeters / degreesToMetersBufferDivisor
}

// RoughMetersPerDegree is the approximate Ontario-latitude scale factor used
// only to gate find_nearest candidates (§9) — never to report a distance.
const RoughMetersPerDegree = degreesToMetersDistanceScale
