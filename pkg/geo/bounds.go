package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// metersPerDegreeLat is the length of one degree of latitude on the sphere.
const metersPerDegreeLat = math.Pi / 180 * earthRadiusMeters

// Point converts the coordinate to an orb point (lon, lat order).
func (ll LatLng) Point() orb.Point {
	return orb.Point{ll.Lng, ll.Lat}
}

// FromPoint converts an orb point back to a LatLng.
func FromPoint(p orb.Point) LatLng {
	return LatLng{Lat: p.Lat(), Lng: p.Lon()}
}

// SegmentBound returns the bounding box of segment AB.
func SegmentBound(a, b LatLng) orb.Bound {
	return a.Point().Bound().Extend(b.Point())
}

// BoundAround returns a box that contains every point within the given number
// of meters of c. The longitude span uses the box's highest absolute latitude,
// so the box errs on the side of being too large. Near the poles the box
// covers all longitudes.
func BoundAround(c LatLng, meters float64) orb.Bound {
	// 1% slack absorbs the difference between the spherical and planar metrics.
	dLat := meters / metersPerDegreeLat * 1.01

	minLat := math.Max(c.Lat-dLat, -90)
	maxLat := math.Min(c.Lat+dLat, 90)

	maxAbsLat := math.Max(math.Abs(minLat), math.Abs(maxLat))
	cosLat := math.Cos(maxAbsLat * math.Pi / 180)

	minLng, maxLng := -180.0, 180.0
	if cosLat > 1e-6 {
		dLng := dLat / cosLat
		if dLng < 180 {
			minLng = math.Max(c.Lng-dLng, -180)
			maxLng = math.Min(c.Lng+dLng, 180)
		}
	}

	return orb.Bound{
		Min: orb.Point{minLng, minLat},
		Max: orb.Point{maxLng, maxLat},
	}
}

// Covers reports whether outer fully contains inner.
func Covers(outer, inner orb.Bound) bool {
	return outer.Contains(inner.Min) && outer.Contains(inner.Max)
}
