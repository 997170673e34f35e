package geo

import "math"

const earthRadiusMeters = 6_371_000.0

// LatLng represents a geographic coordinate in degrees (WGS84).
type LatLng struct {
	Lat float64
	Lng float64
}

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Distance returns the great-circle distance in meters between a and b.
func Distance(a, b LatLng) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// Projection is the closest point on a segment to a query point.
type Projection struct {
	Point LatLng  // closest point on the segment
	Dist  float64 // meters from the query point to Point
	Ratio float64 // 0.0 = at A, 1.0 = at B
}

// Project returns the closest point on segment AB to P.
//
// The projection ratio is computed in a local equirectangular projection and
// clamped to [0,1], so the result never extrapolates past either endpoint. A
// clamped ratio returns A or B verbatim rather than an interpolated copy.
// Dist is the great-circle distance from P to the returned point.
func Project(p, a, b LatLng) Projection {
	// Degenerate segment: compare original coordinates exactly, before
	// cosLat scaling can make identical points differ by ~1e-15.
	if a == b {
		return Projection{Point: a, Dist: Distance(p, a), Ratio: 0}
	}

	cosLat := math.Cos((a.Lat + b.Lat) / 2 * math.Pi / 180)

	// Convert to approximate planar coordinates (degree-scaled).
	ax := a.Lng * cosLat
	ay := a.Lat
	bx := b.Lng * cosLat
	by := b.Lat
	px := p.Lng * cosLat
	py := p.Lat

	dx := bx - ax
	dy := by - ay
	lenSq := dx*dx + dy*dy

	var t float64
	if lenSq > 0 {
		t = ((px-ax)*dx + (py-ay)*dy) / lenSq
	}

	switch {
	case t <= 0:
		return Projection{Point: a, Dist: Distance(p, a), Ratio: 0}
	case t >= 1:
		return Projection{Point: b, Dist: Distance(p, b), Ratio: 1}
	}

	proj := LatLng{
		Lat: a.Lat + t*(b.Lat-a.Lat),
		Lng: a.Lng + t*(b.Lng-a.Lng),
	}
	return Projection{Point: proj, Dist: Distance(p, proj), Ratio: t}
}
