package track

import (
	"fmt"

	"github.com/paulmach/orb"

	"snap_gpx/pkg/geo"
)

// Point is a single track point. Attrs is an opaque payload owned by whoever
// built the track (for GPX input, the original point with its elevation, time
// and extensions). The snapping code copies it but never looks inside.
//
// Detour marks a waypoint inserted by snapping. The two segments touching it
// are the out-and-back legs of its detour, not part of the route.
type Point struct {
	geo.LatLng
	Attrs  any
	Detour bool
}

// Synthetic reports whether the point was created by snapping rather than
// read from the input.
func (p Point) Synthetic() bool {
	return p.Attrs == nil
}

// Waypoint is a standalone point of interest. Read-only to the snapping code.
type Waypoint struct {
	geo.LatLng
	Name  string
	Attrs any
}

// Track is an ordered sequence of points forming a polyline. Point order is
// the along-track order; mutations go through Insert and Move, both of which
// bump the version so cached segment indices can be detected as stale.
type Track struct {
	Name    string
	points  []Point
	version uint64
}

// New creates a track holding a copy of pts.
func New(name string, pts []Point) *Track {
	cp := make([]Point, len(pts))
	copy(cp, pts)
	return &Track{Name: name, points: cp}
}

// Len returns the number of points.
func (t *Track) Len() int {
	return len(t.points)
}

// NumSegments returns the number of segments (Len-1, or 0 for fewer than 2 points).
func (t *Track) NumSegments() int {
	if len(t.points) < 2 {
		return 0
	}
	return len(t.points) - 1
}

// At returns the point at index i.
func (t *Track) At(i int) Point {
	return t.points[i]
}

// Segment returns the endpoints of segment i (points i and i+1).
func (t *Track) Segment(i int) (a, b geo.LatLng) {
	return t.points[i].LatLng, t.points[i+1].LatLng
}

// Points returns a copy of the point sequence.
func (t *Track) Points() []Point {
	cp := make([]Point, len(t.points))
	copy(cp, t.points)
	return cp
}

// Version changes every time the track is mutated.
func (t *Track) Version() uint64 {
	return t.version
}

// Insert places pts before index at (at == Len appends) and returns the index
// of the first inserted point. Points previously at index >= at shift right by
// len(pts).
func (t *Track) Insert(at int, pts ...Point) int {
	if at < 0 || at > len(t.points) {
		panic(fmt.Sprintf("track: insert index %d out of range [0,%d]", at, len(t.points)))
	}
	if len(pts) == 0 {
		return at
	}
	t.points = append(t.points, pts...) // grow
	copy(t.points[at+len(pts):], t.points[at:len(t.points)-len(pts)])
	copy(t.points[at:], pts)
	t.version++
	return at
}

// Move overwrites the position of point i, keeping its Attrs.
func (t *Track) Move(i int, ll geo.LatLng) {
	t.points[i].LatLng = ll
	t.version++
}

// Length returns the along-track length in meters.
func (t *Track) Length() float64 {
	var total float64
	for i := 0; i < len(t.points)-1; i++ {
		total += geo.Distance(t.points[i].LatLng, t.points[i+1].LatLng)
	}
	return total
}

// Bound returns the bounding box of all points.
func (t *Track) Bound() orb.Bound {
	if len(t.points) == 0 {
		return orb.Bound{}
	}
	b := t.points[0].Point().Bound()
	for _, p := range t.points[1:] {
		b = b.Extend(p.Point())
	}
	return b
}

// LineString returns the track geometry.
func (t *Track) LineString() orb.LineString {
	ls := make(orb.LineString, len(t.points))
	for i, p := range t.points {
		ls[i] = p.Point()
	}
	return ls
}
