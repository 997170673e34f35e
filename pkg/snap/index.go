package snap

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"

	"snap_gpx/pkg/geo"
	"snap_gpx/pkg/track"
)

// DefaultIndexThreshold is the track length (in points) from which the
// default finder switches from a linear scan to the R-tree.
const DefaultIndexThreshold = 512

// initialSearchRadius is the first query radius in meters. Each miss doubles it.
const initialSearchRadius = 50.0

// Indexed is a Finder backed by an R-tree of segment bounding boxes.
//
// The tree is built for one track at a time and rebuilt whenever that track's
// version changes, so a snap that inserts points never leaves stale segment
// indices behind. Results are identical to Scan. Not safe for concurrent use.
type Indexed struct {
	tr      *track.Track
	version uint64
	tree    rtree.RTreeG[int]
	bound   orb.Bound

	candidates []int
	builds     int
}

// Nearest implements Finder.
func (f *Indexed) Nearest(wpt geo.LatLng, t *track.Track) (Projection, bool) {
	if t.NumSegments() == 0 || !finite(wpt) {
		return Projection{}, false
	}
	f.ensure(t)

	for radius := initialSearchRadius; ; radius *= 2 {
		box := geo.BoundAround(wpt, radius)
		covers := geo.Covers(box, f.bound)

		f.candidates = f.candidates[:0]
		f.tree.Search([2]float64(box.Min), [2]float64(box.Max), func(_, _ [2]float64, seg int) bool {
			f.candidates = append(f.candidates, seg)
			return true
		})
		if len(f.candidates) == 0 {
			if covers {
				return Scan{}.Nearest(wpt, t)
			}
			continue
		}

		// Ascending order keeps the lower-index tie-break of Scan.
		sort.Ints(f.candidates)
		best := Projection{Dist: math.Inf(1)}
		for _, i := range f.candidates {
			consider(&best, wpt, t, i)
		}

		// Every segment outside the box is farther than radius, so it can
		// neither beat nor tie best.
		if best.Dist+tieEpsilon <= radius || covers {
			return finish(t, best)
		}
	}
}

// ensure (re)builds the tree if t is a different track or has been mutated.
func (f *Indexed) ensure(t *track.Track) {
	if f.tr == t && f.version == t.Version() {
		return
	}

	f.tree = rtree.RTreeG[int]{}
	for i := 0; i < t.NumSegments(); i++ {
		a, b := t.Segment(i)
		sb := geo.SegmentBound(a, b)
		f.tree.Insert([2]float64(sb.Min), [2]float64(sb.Max), i)
	}
	f.bound = t.Bound()
	f.tr = t
	f.version = t.Version()
	f.builds++
}

// Auto uses Scan for short tracks and Indexed for long ones.
type Auto struct {
	Threshold int
	indexed   Indexed
}

// NewFinder returns the default finder. A threshold <= 0 disables the index.
func NewFinder(threshold int) Finder {
	if threshold <= 0 {
		return Scan{}
	}
	return &Auto{Threshold: threshold}
}

// Nearest implements Finder.
func (a *Auto) Nearest(wpt geo.LatLng, t *track.Track) (Projection, bool) {
	if t.Len() >= a.Threshold {
		return a.indexed.Nearest(wpt, t)
	}
	return Scan{}.Nearest(wpt, t)
}
