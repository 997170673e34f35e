// Package gpxio reads and writes GPX files and adapts them to tracks and
// waypoints. Each <trkseg> becomes one track; the original GPX point is kept
// as the track point's Attrs so everything but the position survives a
// snapping run unchanged.
package gpxio

import (
	"fmt"
	"io"

	"github.com/tkrajina/gpxgo/gpx"

	"snap_gpx/pkg/geo"
	"snap_gpx/pkg/track"
)

const defaultVersion = "1.1"

// segmentRef locates a track segment inside the GPX document.
type segmentRef struct {
	trk, seg int
}

// Document is a parsed GPX file together with its track views.
type Document struct {
	GPX    *gpx.GPX
	tracks []*track.Track
	refs   []segmentRef
}

// ReadFile parses the GPX file at path.
func ReadFile(path string) (*Document, error) {
	g, err := gpx.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return wrap(g), nil
}

// Parse reads a GPX document from r.
func Parse(r io.Reader) (*Document, error) {
	g, err := gpx.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse gpx: %w", err)
	}
	return wrap(g), nil
}

// ParseBytes parses a GPX document held in memory.
func ParseBytes(data []byte) (*Document, error) {
	g, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse gpx: %w", err)
	}
	return wrap(g), nil
}

// New builds a GPX document from scratch, one <trk> per track.
func New(creator string, tracks []*track.Track, wpts []track.Waypoint) *Document {
	g := &gpx.GPX{
		Creator: creator,
		Version: defaultVersion,
	}
	for _, t := range tracks {
		g.Tracks = append(g.Tracks, gpx.GPXTrack{
			Name:     t.Name,
			Segments: []gpx.GPXTrackSegment{{}},
		})
	}
	for _, w := range wpts {
		p := toGPXPoint(w.LatLng, w.Attrs)
		if p.Name == "" {
			p.Name = w.Name
		}
		g.Waypoints = append(g.Waypoints, p)
	}

	d := &Document{GPX: g, tracks: tracks}
	for i := range tracks {
		d.refs = append(d.refs, segmentRef{trk: i, seg: 0})
	}
	return d
}

func wrap(g *gpx.GPX) *Document {
	d := &Document{GPX: g}
	for ti, trk := range g.Tracks {
		for si, seg := range trk.Segments {
			pts := make([]track.Point, len(seg.Points))
			for i, p := range seg.Points {
				pts[i] = track.Point{
					LatLng: geo.LatLng{Lat: p.Latitude, Lng: p.Longitude},
					Attrs:  p,
				}
			}
			d.tracks = append(d.tracks, track.New(segmentName(trk, ti, si), pts))
			d.refs = append(d.refs, segmentRef{trk: ti, seg: si})
		}
	}
	return d
}

// segmentName labels a segment for reports: the track name (or "track N"),
// plus "#k" when the track has more than one segment.
func segmentName(trk gpx.GPXTrack, ti, si int) string {
	name := trk.Name
	if name == "" {
		name = fmt.Sprintf("track %d", ti+1)
	}
	if len(trk.Segments) > 1 {
		name = fmt.Sprintf("%s #%d", name, si+1)
	}
	return name
}

// Tracks returns one track per GPX track segment, in document order.
// Mutations are written back by Marshal.
func (d *Document) Tracks() []*track.Track {
	return d.tracks
}

// Waypoints returns the document's <wpt> elements.
func (d *Document) Waypoints() []track.Waypoint {
	wpts := make([]track.Waypoint, len(d.GPX.Waypoints))
	for i, p := range d.GPX.Waypoints {
		wpts[i] = track.Waypoint{
			LatLng: geo.LatLng{Lat: p.Latitude, Lng: p.Longitude},
			Name:   p.Name,
			Attrs:  p,
		}
	}
	return wpts
}

// Sync copies the current track points back into the GPX structure. Points
// read from the file keep every field except the position; points created by
// snapping are written with a position only.
func (d *Document) Sync() {
	for i, t := range d.tracks {
		ref := d.refs[i]
		pts := make([]gpx.GPXPoint, t.Len())
		for j := range pts {
			p := t.At(j)
			pts[j] = toGPXPoint(p.LatLng, p.Attrs)
		}
		d.GPX.Tracks[ref.trk].Segments[ref.seg].Points = pts
	}
}

// Marshal syncs the tracks and serialises the document as indented XML. The
// GPX version of the input is kept when it is one gpxgo can write.
func (d *Document) Marshal() ([]byte, error) {
	d.Sync()

	version := d.GPX.Version
	if version != "1.0" && version != "1.1" {
		version = defaultVersion
	}
	data, err := d.GPX.ToXml(gpx.ToXmlParams{Version: version, Indent: true})
	if err != nil {
		return nil, fmt.Errorf("encode gpx: %w", err)
	}
	return data, nil
}

func toGPXPoint(ll geo.LatLng, attrs any) gpx.GPXPoint {
	var p gpx.GPXPoint
	if orig, ok := attrs.(gpx.GPXPoint); ok {
		p = orig
	}
	p.Latitude = ll.Lat
	p.Longitude = ll.Lng
	return p
}
