package osm

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/osm"

	"snap_gpx/pkg/geo"
	"snap_gpx/pkg/track"
)

const sampleOSM = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="0" lon="0" version="1"/>
  <node id="2" lat="0" lon="1" version="1"/>
  <node id="3" lat="0" lon="2" version="1"/>
  <node id="4" lat="5" lon="5" version="1"/>
  <node id="5" lat="0.0005" lon="1" version="1">
    <tag k="name" v="Cafe"/>
    <tag k="amenity" v="cafe"/>
  </node>
  <node id="6" lat="0.001" lon="1.5" version="1">
    <tag k="amenity" v="bench"/>
  </node>
  <way id="10" version="1">
    <nd ref="1"/><nd ref="2"/><nd ref="3"/>
    <tag k="highway" v="residential"/>
    <tag k="name" v="Main Street"/>
  </way>
  <way id="11" version="1">
    <nd ref="3"/><nd ref="4"/>
    <tag k="highway" v="footway"/>
    <tag k="ref" v="F1"/>
  </way>
  <way id="12" version="1">
    <nd ref="1"/><nd ref="99"/><nd ref="2"/><nd ref="3"/>
    <tag k="waterway" v="stream"/>
  </way>
  <way id="13" version="1">
    <nd ref="4"/>
    <tag k="highway" v="residential"/>
  </way>
</osm>`

func parseSample(t *testing.T, opt ParseOptions) *ParseResult {
	t.Helper()
	res, err := Parse(context.Background(), strings.NewReader(sampleOSM), opt)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return res
}

func trackNames(tracks []*track.Track) []string {
	names := make([]string, len(tracks))
	for i, tr := range tracks {
		names[i] = tr.Name
	}
	return names
}

func TestParseTracks(t *testing.T) {
	res := parseSample(t, ParseOptions{})

	want := []string{"Main Street", "F1", "way/12"}
	if diff := cmp.Diff(want, trackNames(res.Tracks)); diff != "" {
		t.Fatalf("track names (-want +got):\n%s", diff)
	}

	main := res.Tracks[0]
	if main.Len() != 3 {
		t.Fatalf("Main Street has %d points, want 3", main.Len())
	}
	if got := main.At(1).LatLng; got != (geo.LatLng{Lat: 0, Lng: 1}) {
		t.Errorf("point 1 = %+v", got)
	}
	if got := main.At(1).Attrs; got != osm.NodeID(2) {
		t.Errorf("point 1 Attrs = %v, want node 2", got)
	}

	// Node 99 is missing, so way 12 keeps only its resolvable tail.
	if res.Tracks[2].Len() != 2 {
		t.Errorf("way/12 has %d points, want 2", res.Tracks[2].Len())
	}
}

func TestParseWaypoints(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want []string
	}{
		{name: "default name tag", tag: "", want: []string{"Cafe"}},
		{name: "amenity tag", tag: "amenity", want: []string{"Cafe", "bench"}},
		{name: "unused tag", tag: "shop", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parseSample(t, ParseOptions{WaypointTag: tt.tag})
			var got []string
			for _, w := range res.Waypoints {
				got = append(got, w.Name)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("waypoints (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name string
		opt  ParseOptions
		want []string
	}{
		{
			name: "way tag",
			opt:  ParseOptions{WayTag: "highway"},
			want: []string{"Main Street", "F1"},
		},
		{
			name: "drivable only",
			opt:  ParseOptions{Drivable: true},
			want: []string{"Main Street"},
		},
		{
			name: "bbox drops the far node",
			opt:  ParseOptions{BBox: BBox{MinLat: -1, MaxLat: 1, MinLng: -1, MaxLng: 3}},
			want: []string{"Main Street", "way/12"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parseSample(t, tt.opt)
			if diff := cmp.Diff(tt.want, trackNames(res.Tracks)); diff != "" {
				t.Errorf("tracks (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitRuns(t *testing.T) {
	coords := map[osm.NodeID]geo.LatLng{
		1: {Lat: 0, Lng: 0},
		2: {Lat: 0, Lng: 1},
		4: {Lat: 0, Lng: 3},
		5: {Lat: 0, Lng: 4},
		7: {Lat: 0, Lng: 6},
	}
	runs := splitRuns([]osm.NodeID{1, 2, 3, 4, 5, 6, 7}, coords)
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0][0].Attrs != osm.NodeID(1) || runs[1][0].Attrs != osm.NodeID(4) {
		t.Errorf("runs start at %v and %v, want nodes 1 and 4", runs[0][0].Attrs, runs[1][0].Attrs)
	}
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"extract.osm", FormatXML},
		{"extract.osm.pbf", FormatPBF},
		{"EXTRACT.PBF", FormatPBF},
		{"extract.xml", FormatXML},
	}
	for _, tt := range tests {
		if got := FormatFor(tt.path); got != tt.want {
			t.Errorf("FormatFor(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestIsDrivable(t *testing.T) {
	tests := []struct {
		name string
		tags osm.Tags
		want bool
	}{
		{
			name: "residential road",
			tags: osm.Tags{{Key: "highway", Value: "residential"}},
			want: true,
		},
		{
			name: "footway",
			tags: osm.Tags{{Key: "highway", Value: "footway"}},
			want: false,
		},
		{
			name: "private access",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "access", Value: "private"},
			},
			want: false,
		},
		{
			name: "motor_vehicle=no",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "motor_vehicle", Value: "no"},
			},
			want: false,
		},
		{
			name: "area=yes (pedestrian plaza)",
			tags: osm.Tags{
				{Key: "highway", Value: "service"},
				{Key: "area", Value: "yes"},
			},
			want: false,
		},
		{
			name: "no highway tag",
			tags: osm.Tags{{Key: "name", Value: "Some Street"}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDrivable(tt.tags); got != tt.want {
				t.Errorf("isDrivable() = %v, want %v", got, tt.want)
			}
		})
	}
}
