package snap

import (
	"math"

	"github.com/paulmach/orb/geojson"

	"snap_gpx/pkg/track"
)

// GeoJSON renders snapped tracks as LineStrings and waypoints as Points, with
// each waypoint annotated by how it was handled. Useful for eyeballing a run
// in any GeoJSON viewer. Waypoints without finite coordinates have no
// geometry and are left out.
func GeoJSON(tracks []*track.Track, wpts []track.Waypoint, r *Report) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for i, t := range tracks {
		f := geojson.NewFeature(t.LineString())
		f.Properties["kind"] = "track"
		f.Properties["index"] = i
		f.Properties["name"] = t.Name
		f.Properties["points"] = t.Len()
		fc.Append(f)
	}

	type summary struct {
		snapped []int
		nearest float64
		action  Action
	}
	byWaypoint := make([]summary, len(wpts))
	for i := range byWaypoint {
		byWaypoint[i].nearest = math.Inf(1)
		byWaypoint[i].action = Skipped
	}
	if r != nil {
		for _, tr := range r.Tracks {
			for _, w := range tr.Waypoints {
				s := &byWaypoint[w.Index]
				if w.Action == Inserted || w.Action == Moved {
					s.snapped = append(s.snapped, tr.Index)
				}
				if w.Segment >= 0 && w.Distance < s.nearest {
					s.nearest = w.Distance
					s.action = w.Action
				}
			}
		}
	}

	for i, w := range wpts {
		if !finite(w.LatLng) {
			continue
		}
		f := geojson.NewFeature(w.Point())
		f.Properties["kind"] = "waypoint"
		f.Properties["index"] = i
		f.Properties["name"] = w.Name
		s := byWaypoint[i]
		f.Properties["snapped_tracks"] = s.snapped
		if !math.IsInf(s.nearest, 1) {
			f.Properties["nearest_meters"] = s.nearest
			f.Properties["action"] = s.action.String()
		}
		fc.Append(f)
	}

	return fc
}
