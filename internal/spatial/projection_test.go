package spatial

import "testing"

func almostEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func TestWebMercatorRoundTrip(t *testing.T) {
	lat, lng := 43.6532, -79.3832
	x, y := WGS84ToWebMercator(lat, lng)
	lat2, lng2 := WebMercatorToWGS84(x, y)
	if !almostEqual(lat, lat2, 0.0001) || !almostEqual(lng, lng2, 0.0001) {
		t.Fatalf("round trip mismatch: (%f,%f) -> (%f,%f)", lat, lng, lat2, lng2)
	}
}

func TestUTM17NRoundTrip(t *testing.T) {
	points := [][2]float64{
		{43.6532, -79.3832}, // Toronto
		{43.2557, -79.8711}, // Hamilton
		{45.4215, -75.6972}, // Ottawa (edge of zone)
	}
	for _, pt := range points {
		e, n := WGS84ToUTM17N(pt[0], pt[1])
		lat2, lng2 := UTM17NToWGS84(e, n)
		// ~1m tolerance in degrees near 43N is roughly 0.00001 deg.
		if !almostEqual(pt[0], lat2, 0.00001) || !almostEqual(pt[1], lng2, 0.00001) {
			t.Fatalf("UTM round trip mismatch for %v: got (%f,%f)", pt, lat2, lng2)
		}
	}
}
