// Package spatial implements Projection Math (§4.M) and the Footprint/Parcel
// spatial indices (§4.I/4.J).
package spatial

import "math"

// WGS84 ellipsoid constants, shared by the Web Mercator and UTM series.
const (
	wgs84SemiMajor    = 6378137.0
	wgs84Flattening   = 1.0 / 298.257223563
	utm17NCentralMeridian = -81.0
	utmScaleFactor    = 0.9996
	utm17NFalseEasting = 500000.0
)

// WGS84ToWebMercator converts a lat/lng (EPSG:4326) to Web Mercator meters
// (EPSG:3857 / 102100).
func WGS84ToWebMercator(lat, lng float64) (x, y float64) {
	x = lng * math.Pi / 180 * wgs84SemiMajor
	y = math.Log(math.Tan(math.Pi/4+lat*math.Pi/360)) * wgs84SemiMajor
	return x, y
}

// WebMercatorToWGS84 inverts WGS84ToWebMercator.
func WebMercatorToWGS84(x, y float64) (lat, lng float64) {
	lng = (x / wgs84SemiMajor) * 180 / math.Pi
	lat = (2*math.Atan(math.Exp(y/wgs84SemiMajor)) - math.Pi/2) * 180 / math.Pi
	return lat, lng
}

// utmSeries holds the precomputed ellipsoid series constants shared by the
// forward and inverse transverse Mercator transforms.
type utmSeries struct {
	e2, ePrime2, n, n2, n3, n4 float64
}

func newUTMSeries() utmSeries {
	f := wgs84Flattening
	e2 := f * (2 - f)
	ePrime2 := e2 / (1 - e2)
	n := f / (2 - f)
	return utmSeries{e2: e2, ePrime2: ePrime2, n: n, n2: n * n, n3: n * n * n, n4: n * n * n * n}
}

// WGS84ToUTM17N converts a WGS84 lat/lng to NAD83 UTM Zone 17N meters
// (EPSG:26917), using the standard Krüger transverse Mercator series to
// sub-meter accuracy across Ontario (§4.M).
func WGS84ToUTM17N(lat, lng float64) (easting, northing float64) {
	s := newUTMSeries()
	a := wgs84SemiMajor
	latRad := lat * math.Pi / 180
	lngRad := lng * math.Pi / 180
	lng0 := utm17NCentralMeridian * math.Pi / 180

	// Meridional arc length.
	A0 := 1 + s.n2/4 + s.n4/64
	A2 := 3.0 / 2 * (s.n - s.n3/8)
	A4 := 15.0 / 16 * (s.n2 - s.n4/4)
	A6 := 35.0 / 48 * s.n3
	M := a / (1 + s.n) * (A0*latRad - A2*math.Sin(2*latRad) + A4*math.Sin(4*latRad) - A6*math.Sin(6*latRad))

	sinLat := math.Sin(latRad)
	cosLat := math.Cos(latRad)
	tanLat := math.Tan(latRad)

	nu := a / math.Sqrt(1-s.e2*sinLat*sinLat)
	t := tanLat * tanLat
	c := s.ePrime2 * cosLat * cosLat
	dLng := lngRad - lng0

	easting = utm17NFalseEasting + utmScaleFactor*nu*(dLng*cosLat+
		(dLng*dLng*dLng/6)*cosLat*cosLat*cosLat*(1-t+c)+
		(dLng*dLng*dLng*dLng*dLng/120)*math.Pow(cosLat, 5)*(5-18*t+t*t+72*c-58*s.ePrime2))

	northing = utmScaleFactor * (M + nu*tanLat*(
		(dLng*dLng/2)*cosLat*cosLat+
			(dLng*dLng*dLng*dLng/24)*math.Pow(cosLat, 4)*(5-t+9*c+4*c*c)))

	if lat < 0 {
		northing += 10000000
	}
	return easting, northing
}

// UTM17NToWGS84 inverts WGS84ToUTM17N via the standard footpoint-latitude
// iterative series, accurate to well within 1m across Ontario.
func UTM17NToWGS84(easting, northing float64) (lat, lng float64) {
	s := newUTMSeries()
	a := wgs84SemiMajor
	x := easting - utm17NFalseEasting
	y := northing

	M := y / utmScaleFactor
	mu := M / (a / (1 + s.n) * (1 + s.n2/4 + s.n4/64))

	e1 := (1 - math.Sqrt(1-s.e2)) / (1 + math.Sqrt(1-s.e2))
	j1 := 3*e1/2 - 27*e1*e1*e1/32
	j2 := 21*e1*e1/16 - 55*e1*e1*e1*e1/32
	j3 := 151 * e1 * e1 * e1 / 96
	j4 := 1097 * e1 * e1 * e1 * e1 / 512

	fp := mu + j1*math.Sin(2*mu) + j2*math.Sin(4*mu) + j3*math.Sin(6*mu) + j4*math.Sin(8*mu)

	sinFp := math.Sin(fp)
	cosFp := math.Cos(fp)
	tanFp := math.Tan(fp)

	c1 := s.ePrime2 * cosFp * cosFp
	t1 := tanFp * tanFp
	n1 := a / math.Sqrt(1-s.e2*sinFp*sinFp)
	r1 := a * (1 - s.e2) / math.Pow(1-s.e2*sinFp*sinFp, 1.5)
	d := x / (n1 * utmScaleFactor)

	latRad := fp - (n1*tanFp/r1)*(d*d/2-(5+3*t1+10*c1-4*c1*c1-9*s.ePrime2)*d*d*d*d/24)
	lngRad := (d - (1+2*t1+c1)*d*d*d/6 + (5-2*c1+28*t1-3*c1*c1+8*s.ePrime2+24*t1*t1)*d*d*d*d*d/120) / cosFp

	lng0 := utm17NCentralMeridian * math.Pi / 180
	return latRad * 180 / math.Pi, lng0*180/math.Pi + lngRad*180/math.Pi
}
