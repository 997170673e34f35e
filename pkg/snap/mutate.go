package snap

import (
	"fmt"

	"snap_gpx/pkg/geo"
	"snap_gpx/pkg/track"
)

// Mode selects how a waypoint is snapped onto a track.
type Mode string

const (
	// ModeAdd inserts an out-and-back detour from the track to the waypoint.
	ModeAdd Mode = "add"
	// ModeMove relocates the nearest existing track point onto the waypoint.
	ModeMove Mode = "move"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeAdd, ModeMove:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeAdd, ModeMove)
}

// Action is what happened to a waypoint.
type Action int

const (
	// Skipped leaves the track unchanged. The Outcome's Err says why.
	Skipped Action = iota
	// Inserted adds a detour to the waypoint.
	Inserted
	// Moved relocates an existing track point onto the waypoint.
	Moved
	// Discarded means the waypoint is beyond the max distance.
	Discarded
)

var actionNames = [...]string{"skipped", "inserted", "moved", "discarded"}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// MarshalText encodes the action by name.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Outcome records the effect of Apply.
type Outcome struct {
	Action Action
	At     int   // index of the point now on the waypoint, -1 if none
	Added  int   // number of points inserted
	Err    error // reason for Skipped
}

// Apply snaps wpt onto t at proj. The caller has already checked the distance
// threshold. A nil proj (degenerate track) is a no-op.
func Apply(t *track.Track, wpt track.Waypoint, proj *Projection, mode Mode) Outcome {
	if proj == nil {
		return Outcome{Action: Skipped, At: -1, Err: ErrDegenerateTrack}
	}
	if mode == ModeMove {
		return move(t, wpt, proj)
	}
	return add(t, wpt, proj)
}

// add inserts a detour so the track reaches the waypoint and returns to
// where it left:
//
//	A, P, W, P', B   projection P strictly inside segment AB
//	V, W, V'         projection on existing point V
//
// A waypoint lying on the segment interior still gets the full P, W, P'
// triple, so W is always flanked by its two detour legs.
func add(t *track.Track, wpt track.Waypoint, proj *Projection) Outcome {
	w := track.Point{LatLng: wpt.LatLng, Detour: true}

	if proj.OnVertex() {
		v := t.At(proj.Vertex)
		if proj.Dist <= vertexTolerance || geo.Distance(v.LatLng, wpt.LatLng) <= vertexTolerance {
			return Outcome{Action: Skipped, At: proj.Vertex, Err: ErrAlreadySnapped}
		}
		// The duplicate shares v's Attrs, so it carries the same time,
		// elevation and extensions.
		at := t.Insert(proj.Vertex+1, w, v)
		return Outcome{Action: Inserted, At: at, Added: 2}
	}

	p := track.Point{LatLng: proj.Point}
	at := t.Insert(proj.Segment+1, p, w, p)
	return Outcome{Action: Inserted, At: at + 1, Added: 3}
}

// move relocates the segment endpoint closest to the waypoint. Equidistant
// endpoints resolve to the earlier one.
func move(t *track.Track, wpt track.Waypoint, proj *Projection) Outcome {
	i := proj.Segment
	a, b := t.Segment(i)
	if geo.Distance(wpt.LatLng, b) < geo.Distance(wpt.LatLng, a)-tieEpsilon {
		i++
	}

	if geo.Distance(t.At(i).LatLng, wpt.LatLng) <= vertexTolerance {
		return Outcome{Action: Skipped, At: i, Err: ErrAlreadySnapped}
	}
	t.Move(i, wpt.LatLng)
	return Outcome{Action: Moved, At: i}
}
