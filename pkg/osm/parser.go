// Package osm imports OpenStreetMap extracts as tracks and waypoints: ways
// become tracks, tagged nodes become waypoints.
package osm

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"

	"snap_gpx/pkg/geo"
	"snap_gpx/pkg/track"
)

// Format selects the encoding of an OSM input.
type Format int

const (
	FormatXML Format = iota
	FormatPBF
)

func (f Format) String() string {
	if f == FormatPBF {
		return "pbf"
	}
	return "xml"
}

// FormatFor picks the format from a file name: PBF for ".pbf", XML otherwise.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".pbf") {
		return FormatPBF
	}
	return FormatXML
}

// DefaultWaypointTag is the node tag that marks a waypoint when
// ParseOptions.WaypointTag is empty.
const DefaultWaypointTag = "name"

// ParseResult holds the tracks and waypoints read from an OSM extract.
type ParseResult struct {
	Tracks    []*track.Track
	Waypoints []track.Waypoint
}

// drivableHighways lists highway tag values accessible by car.
var drivableHighways = map[string]bool{
	"motorway":       true,
	"motorway_link":  true,
	"trunk":          true,
	"trunk_link":     true,
	"primary":        true,
	"primary_link":   true,
	"secondary":      true,
	"secondary_link": true,
	"tertiary":       true,
	"tertiary_link":  true,
	"unclassified":   true,
	"residential":    true,
	"living_street":  true,
	"service":        true,
}

// isDrivable returns true if the way is drivable by car.
func isDrivable(tags osm.Tags) bool {
	if !drivableHighways[tags.Find("highway")] {
		return false
	}

	// Skip area highways (pedestrian plazas).
	if tags.Find("area") == "yes" {
		return false
	}

	access := tags.Find("access")
	if access == "no" || access == "private" {
		return false
	}
	if tags.Find("motor_vehicle") == "no" {
		return false
	}

	return true
}

// trackName labels a way by its name, then its ref, then its id.
func trackName(w *osm.Way) string {
	if name := w.Tags.Find("name"); name != "" {
		return name
	}
	if ref := w.Tags.Find("ref"); ref != "" {
		return ref
	}
	return fmt.Sprintf("way/%d", w.ID)
}

// wayInfo holds way data collected during pass 1.
type wayInfo struct {
	Name    string
	NodeIDs []osm.NodeID
}

// BBox defines a geographic bounding box for filtering.
// If non-zero, only nodes inside the box are kept.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// IsZero returns true if the bbox is unset.
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

// Contains returns true if the point is inside the bounding box.
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// ParseOptions configures the OSM importer.
type ParseOptions struct {
	Format      Format
	BBox        BBox   // if non-zero, drop nodes outside this box
	WayTag      string // if set, only ways carrying this tag become tracks
	WaypointTag string // nodes carrying this tag become waypoints; DefaultWaypointTag if empty
	Drivable    bool   // only import ways drivable by car
}

// scanner is the common surface of the osmxml and osmpbf scanners.
type scanner interface {
	Scan() bool
	Object() osm.Object
	Err() error
	Close() error
}

func newScanner(ctx context.Context, r io.Reader, f Format, skipNodes, skipWays bool) scanner {
	if f == FormatPBF {
		s := osmpbf.New(ctx, r, 1)
		s.SkipNodes = skipNodes
		s.SkipWays = skipWays
		s.SkipRelations = true
		return s
	}
	return osmxml.New(ctx, r)
}

// Parse reads an OSM extract and returns its ways as tracks and its tagged
// nodes as waypoints. The reader is consumed twice (seeks back to start for
// the second pass), so it must implement io.ReadSeeker.
//
// A way whose nodes leave the bounding box, or reference nodes missing from
// the extract, is split at the gap; each run of two or more nodes becomes its
// own track.
func Parse(ctx context.Context, rs io.ReadSeeker, opts ...ParseOptions) (*ParseResult, error) {
	var opt ParseOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	wptTag := opt.WaypointTag
	if wptTag == "" {
		wptTag = DefaultWaypointTag
	}
	useBBox := !opt.BBox.IsZero()

	// Pass 1: Scan ways to collect referenced node IDs and way info.
	referencedNodes := make(map[osm.NodeID]struct{})
	var ways []wayInfo

	sc := newScanner(ctx, rs, opt.Format, true, false)
	for sc.Scan() {
		w, ok := sc.Object().(*osm.Way)
		if !ok {
			continue
		}
		if opt.WayTag != "" && !w.Tags.HasTag(opt.WayTag) {
			continue
		}
		if opt.Drivable && !isDrivable(w.Tags) {
			continue
		}
		if len(w.Nodes) < 2 {
			continue
		}

		nodeIDs := make([]osm.NodeID, len(w.Nodes))
		for i, wn := range w.Nodes {
			nodeIDs[i] = wn.ID
			referencedNodes[wn.ID] = struct{}{}
		}
		ways = append(ways, wayInfo{Name: trackName(w), NodeIDs: nodeIDs})
	}
	if err := sc.Err(); err != nil {
		sc.Close()
		return nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	sc.Close()

	log.Printf("Pass 1 complete: %d ways, %d referenced nodes", len(ways), len(referencedNodes))

	// Pass 2: Scan nodes for referenced coordinates and tagged waypoints.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	coords := make(map[osm.NodeID]geo.LatLng, len(referencedNodes))
	var wpts []track.Waypoint
	var bboxFiltered int

	sc = newScanner(ctx, rs, opt.Format, false, true)
	for sc.Scan() {
		n, ok := sc.Object().(*osm.Node)
		if !ok {
			continue
		}
		_, needed := referencedNodes[n.ID]
		value := n.Tags.Find(wptTag)
		if !needed && value == "" {
			continue
		}
		if useBBox && !opt.BBox.Contains(n.Lat, n.Lon) {
			bboxFiltered++
			continue
		}

		ll := geo.LatLng{Lat: n.Lat, Lng: n.Lon}
		if needed {
			coords[n.ID] = ll
		}
		if value != "" {
			name := n.Tags.Find("name")
			if name == "" {
				name = value
			}
			wpts = append(wpts, track.Waypoint{LatLng: ll, Name: name, Attrs: n.ID})
		}
	}
	if err := sc.Err(); err != nil {
		sc.Close()
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	sc.Close()

	log.Printf("Pass 2 complete: %d node coordinates collected, %d waypoints", len(coords), len(wpts))

	// Build tracks from ways.
	var tracks []*track.Track
	var gaps int
	for _, w := range ways {
		runs := splitRuns(w.NodeIDs, coords)
		if len(runs) > 1 || (len(runs) == 1 && len(runs[0]) < len(w.NodeIDs)) {
			gaps++
		}
		for k, run := range runs {
			name := w.Name
			if len(runs) > 1 {
				name = fmt.Sprintf("%s #%d", name, k+1)
			}
			tracks = append(tracks, track.New(name, run))
		}
	}

	if bboxFiltered > 0 {
		log.Printf("Filtered %d nodes outside bounding box", bboxFiltered)
	}
	if gaps > 0 {
		log.Printf("Warning: %d ways split or trimmed at missing nodes", gaps)
	}
	log.Printf("Built %d tracks", len(tracks))

	return &ParseResult{Tracks: tracks, Waypoints: wpts}, nil
}

// splitRuns cuts a way's node list at nodes without coordinates and returns
// every run of at least two resolvable nodes.
func splitRuns(ids []osm.NodeID, coords map[osm.NodeID]geo.LatLng) [][]track.Point {
	var runs [][]track.Point
	var cur []track.Point
	flush := func() {
		if len(cur) >= 2 {
			runs = append(runs, cur)
		}
		cur = nil
	}
	for _, id := range ids {
		ll, ok := coords[id]
		if !ok {
			flush()
			continue
		}
		cur = append(cur, track.Point{LatLng: ll, Attrs: id})
	}
	flush()
	return runs
}
