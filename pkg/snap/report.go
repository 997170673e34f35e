package snap

import (
	"encoding/json"
	"fmt"
	"math"
)

// Report summarises a snapping run.
type Report struct {
	Mode        Mode          `json:"mode"`
	MaxDistance float64       `json:"max_distance_meters"`
	Tracks      []TrackReport `json:"tracks"`
	Warnings    []error       `json:"-"`
}

// TrackReport is the per-track part of a Report.
type TrackReport struct {
	Index        int              `json:"index"`
	Name         string           `json:"name,omitempty"`
	Degenerate   bool             `json:"degenerate,omitempty"`
	PointsBefore int              `json:"points_before"`
	PointsAfter  int              `json:"points_after"`
	LengthBefore float64          `json:"length_before_meters"`
	LengthAfter  float64          `json:"length_after_meters"`
	Inserted     int              `json:"inserted"`
	Moved        int              `json:"moved"`
	Skipped      int              `json:"skipped"`
	Discarded    int              `json:"discarded"`
	Polyline     string           `json:"polyline"`
	Waypoints    []WaypointResult `json:"waypoints"`
}

// WaypointResult is the disposition of one waypoint against one track.
type WaypointResult struct {
	Index    int     `json:"index"`
	Name     string  `json:"name,omitempty"`
	Action   Action  `json:"action"`
	Distance float64 `json:"distance_meters"`
	Segment  int     `json:"segment"` // -1 when the track has no segments
	At       int     `json:"at"`      // track point on the waypoint after snapping, -1 if none
	Reason   error   `json:"-"`
}

// TrackError ties a warning to a track.
type TrackError struct {
	Index int
	Name  string
	Err   error
}

func (e *TrackError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("track %d (%s): %v", e.Index, e.Name, e.Err)
	}
	return fmt.Sprintf("track %d: %v", e.Index, e.Err)
}

func (e *TrackError) Unwrap() error { return e.Err }

func (tr *TrackReport) add(rec WaypointResult) {
	switch rec.Action {
	case Inserted:
		tr.Inserted++
	case Moved:
		tr.Moved++
	case Discarded:
		tr.Discarded++
	default:
		tr.Skipped++
	}
	tr.Waypoints = append(tr.Waypoints, rec)
}

// Totals holds counts across all tracks.
type Totals struct {
	Tracks    int `json:"tracks"`
	Inserted  int `json:"inserted"`
	Moved     int `json:"moved"`
	Skipped   int `json:"skipped"`
	Discarded int `json:"discarded"`
}

// Totals sums the per-track counts.
func (r *Report) Totals() Totals {
	tot := Totals{Tracks: len(r.Tracks)}
	for _, tr := range r.Tracks {
		tot.Inserted += tr.Inserted
		tot.Moved += tr.Moved
		tot.Skipped += tr.Skipped
		tot.Discarded += tr.Discarded
	}
	return tot
}

// Summary is a one-line human readable digest.
func (r *Report) Summary() string {
	t := r.Totals()
	return fmt.Sprintf("%d track(s): %d inserted, %d moved, %d skipped, %d discarded (mode %s, max %g m)",
		t.Tracks, t.Inserted, t.Moved, t.Skipped, t.Discarded, r.Mode, r.MaxDistance)
}

// MarshalJSON adds totals and flattens warnings and reasons to strings.
// Non-finite distances, which JSON cannot carry, are written as 0.
func (r *Report) MarshalJSON() ([]byte, error) {
	type trackJSON struct {
		TrackReport
		Waypoints []waypointJSON `json:"waypoints"`
	}

	out := struct {
		Mode        Mode        `json:"mode"`
		MaxDistance float64     `json:"max_distance_meters"`
		Totals      Totals      `json:"totals"`
		Warnings    []string    `json:"warnings,omitempty"`
		Tracks      []trackJSON `json:"tracks"`
	}{
		Mode:        r.Mode,
		MaxDistance: jsonFloat(r.MaxDistance),
		Totals:      r.Totals(),
		Tracks:      make([]trackJSON, 0, len(r.Tracks)),
	}
	for _, w := range r.Warnings {
		out.Warnings = append(out.Warnings, w.Error())
	}
	for _, tr := range r.Tracks {
		tr.LengthBefore, tr.LengthAfter = jsonFloat(tr.LengthBefore), jsonFloat(tr.LengthAfter)
		tj := trackJSON{TrackReport: tr, Waypoints: make([]waypointJSON, len(tr.Waypoints))}
		for i, w := range tr.Waypoints {
			w.Distance = jsonFloat(w.Distance)
			tj.Waypoints[i] = waypointJSON{WaypointResult: w}
			if w.Reason != nil {
				tj.Waypoints[i].Reason = w.Reason.Error()
			}
		}
		out.Tracks = append(out.Tracks, tj)
	}
	return json.Marshal(out)
}

type waypointJSON struct {
	WaypointResult
	Reason string `json:"reason,omitempty"`
}

func jsonFloat(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
