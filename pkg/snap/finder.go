package snap

import (
	"math"

	"snap_gpx/pkg/geo"
	"snap_gpx/pkg/track"
)

const (
	// tieEpsilon is the distance difference (meters) below which two
	// candidates count as equally close. The earlier candidate wins.
	tieEpsilon = 1e-6

	// vertexTolerance is how close (meters) a projection must be to an
	// existing point to be treated as that point.
	vertexTolerance = 0.05

	// ratioEpsilon treats projection ratios this close to 0 or 1 as endpoints.
	ratioEpsilon = 1e-9
)

// Projection is the closest point on a track to a waypoint.
type Projection struct {
	Segment int        // index of the segment's first point; in [0, Len-2]
	Point   geo.LatLng // closest point on the segment
	Dist    float64    // meters from the waypoint to Point
	Ratio   float64    // 0.0 = at point Segment, 1.0 = at point Segment+1
	Vertex  int        // index of the existing point Point coincides with, or -1
}

// OnVertex reports whether the projection coincides with an existing point.
func (p Projection) OnVertex() bool {
	return p.Vertex >= 0
}

// Finder locates the nearest point on a track.
type Finder interface {
	// Nearest returns the closest point on t to wpt. ok is false when t has
	// fewer than two points, when wpt is not a finite position, or when no
	// segment yields a finite distance.
	Nearest(wpt geo.LatLng, t *track.Track) (proj Projection, ok bool)
}

// Scan is a Finder that checks every segment.
type Scan struct{}

// Nearest implements Finder.
func (Scan) Nearest(wpt geo.LatLng, t *track.Track) (Projection, bool) {
	n := t.NumSegments()
	if n == 0 || !finite(wpt) {
		return Projection{}, false
	}

	best := Projection{Dist: math.Inf(1)}
	for i := 0; i < n; i++ {
		consider(&best, wpt, t, i)
	}
	return finish(t, best)
}

// finish resolves the vertex of the winning projection. ok is false if
// nothing was found.
func finish(t *track.Track, best Projection) (Projection, bool) {
	if math.IsInf(best.Dist, 1) {
		return Projection{}, false
	}
	best.Vertex = vertexOf(t, best)
	return best, true
}

// finite reports whether both coordinates are real numbers.
func finite(ll geo.LatLng) bool {
	return !math.IsNaN(ll.Lat) && !math.IsInf(ll.Lat, 0) &&
		!math.IsNaN(ll.Lng) && !math.IsInf(ll.Lng, 0)
}

// consider projects wpt onto segment i and keeps it if it beats best by more
// than tieEpsilon. Segments must be offered in ascending order for the lower
// index to win ties.
//
// A segment touching a detour waypoint only matches that waypoint itself, so
// later waypoints are measured against the route and not against earlier
// detours.
func consider(best *Projection, wpt geo.LatLng, t *track.Track, i int) {
	pa, pb := t.At(i), t.At(i+1)
	if pa.Detour || pb.Detour {
		d, ratio := pa, 0.0
		if pb.Detour {
			d, ratio = pb, 1
		}
		dist := geo.Distance(wpt, d.LatLng)
		if dist <= vertexTolerance && dist < best.Dist-tieEpsilon {
			*best = Projection{Segment: i, Point: d.LatLng, Dist: dist, Ratio: ratio}
		}
		return
	}

	p := geo.Project(wpt, pa.LatLng, pb.LatLng)
	if p.Dist < best.Dist-tieEpsilon {
		*best = Projection{
			Segment: i,
			Point:   p.Point,
			Dist:    p.Dist,
			Ratio:   p.Ratio,
		}
	}
}

// vertexOf returns the index of the existing point the projection lands on,
// or -1 if it falls strictly between the segment's endpoints.
func vertexOf(t *track.Track, p Projection) int {
	switch {
	case p.Ratio < ratioEpsilon:
		return p.Segment
	case p.Ratio > 1-ratioEpsilon:
		return p.Segment + 1
	}

	a, b := t.Segment(p.Segment)
	if geo.Distance(p.Point, a) < vertexTolerance {
		return p.Segment
	}
	if geo.Distance(p.Point, b) < vertexTolerance {
		return p.Segment + 1
	}
	return -1
}
