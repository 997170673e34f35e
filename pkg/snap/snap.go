package snap

import (
	"errors"

	polyline "github.com/twpayne/go-polyline"

	"snap_gpx/pkg/track"
)

// DefaultMaxDistance is the default snapping radius in meters.
const DefaultMaxDistance = 100.0

var (
	// ErrNoTracks is reported when the input has no tracks.
	ErrNoTracks = errors.New("no tracks found")
	// ErrNoWaypoints is reported when the input has no waypoints.
	ErrNoWaypoints = errors.New("no waypoints found")
	// ErrDegenerateTrack is reported for tracks with fewer than two points.
	ErrDegenerateTrack = errors.New("track has fewer than two points")
	// ErrWaypointTooFar is recorded for waypoints beyond the max distance.
	ErrWaypointTooFar = errors.New("waypoint too far from track")
	// ErrAlreadySnapped is recorded when the track already passes through the waypoint.
	ErrAlreadySnapped = errors.New("waypoint already on track")
	// ErrInvalidWaypoint is recorded for waypoints whose coordinates are NaN
	// or infinite.
	ErrInvalidWaypoint = errors.New("waypoint has non-finite coordinates")
)

// Options configures a snapping run.
type Options struct {
	MaxDistance float64 // meters; waypoints farther than this are discarded
	Mode        Mode
	Finder      Finder                           // nil = NewFinder(DefaultIndexThreshold)
	Logf        func(format string, args ...any) // optional debug output
}

// DefaultOptions returns add mode with a 100 m radius.
func DefaultOptions() Options {
	return Options{
		MaxDistance: DefaultMaxDistance,
		Mode:        ModeAdd,
	}
}

// Snap runs with the default finder and no logging.
func Snap(tracks []*track.Track, wpts []track.Waypoint, maxDistance float64, mode Mode) *Report {
	return Run(tracks, wpts, Options{MaxDistance: maxDistance, Mode: mode})
}

// Run snaps every waypoint onto every track, mutating the tracks in place.
//
// Tracks are processed in order and, within a track, waypoints in order. Each
// waypoint is resolved against the track as left by the previous waypoint,
// since every insertion shifts the segment indices after it.
func Run(tracks []*track.Track, wpts []track.Waypoint, opts Options) *Report {
	if opts.Mode == "" {
		opts.Mode = ModeAdd
	}
	finder := opts.Finder
	if finder == nil {
		finder = NewFinder(DefaultIndexThreshold)
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	report := &Report{
		Mode:        opts.Mode,
		MaxDistance: opts.MaxDistance,
	}
	if len(tracks) == 0 {
		report.Warnings = append(report.Warnings, ErrNoTracks)
	}
	if len(wpts) == 0 {
		report.Warnings = append(report.Warnings, ErrNoWaypoints)
	}
	if len(report.Warnings) > 0 {
		return report
	}

	for ti, t := range tracks {
		tr := TrackReport{
			Index:        ti,
			Name:         t.Name,
			PointsBefore: t.Len(),
			LengthBefore: t.Length(),
		}

		if t.NumSegments() == 0 {
			logf("Track %d (%s): %d point(s), skipping", ti, t.Name, t.Len())
			report.Warnings = append(report.Warnings, &TrackError{Index: ti, Name: t.Name, Err: ErrDegenerateTrack})
			tr.Degenerate = true
		}

		for wi, w := range wpts {
			rec := WaypointResult{Index: wi, Name: w.Name, Segment: -1, At: -1}

			if !finite(w.LatLng) {
				rec.Action, rec.Reason = Skipped, ErrInvalidWaypoint
				logf("Track %d waypoint %d (%s): %s, %v", ti, wi, w.Name, rec.Action, rec.Reason)
				tr.add(rec)
				continue
			}

			proj, ok := finder.Nearest(w.LatLng, t)
			switch {
			case !ok:
				out := Apply(t, w, nil, opts.Mode)
				rec.Action, rec.Reason = out.Action, out.Err
			case proj.Dist > opts.MaxDistance:
				rec.Action, rec.Reason = Discarded, ErrWaypointTooFar
				rec.Distance, rec.Segment = proj.Dist, proj.Segment
			default:
				out := Apply(t, w, &proj, opts.Mode)
				rec.Action, rec.Reason, rec.At = out.Action, out.Err, out.At
				rec.Distance, rec.Segment = proj.Dist, proj.Segment
			}

			logf("Track %d waypoint %d (%s): %s at %.1f m", ti, wi, w.Name, rec.Action, rec.Distance)
			tr.add(rec)
		}

		tr.PointsAfter = t.Len()
		tr.LengthAfter = t.Length()
		tr.Polyline = encodeTrack(t)
		report.Tracks = append(report.Tracks, tr)
	}

	return report
}

// encodeTrack returns the track geometry as a Google encoded polyline.
func encodeTrack(t *track.Track) string {
	coords := make([][]float64, t.Len())
	for i := range coords {
		p := t.At(i)
		coords[i] = []float64{p.Lat, p.Lng}
	}
	return string(polyline.EncodeCoords(coords))
}
