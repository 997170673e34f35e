package gpxio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snap_gpx/pkg/geo"
	"snap_gpx/pkg/snap"
	"snap_gpx/pkg/track"
)

const sampleGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <wpt lat="0.0005" lon="1">
    <name>Summit</name>
  </wpt>
  <trk>
    <name>Ride</name>
    <trkseg>
      <trkpt lat="0" lon="0"><ele>100</ele></trkpt>
      <trkpt lat="0" lon="2"><ele>120</ele></trkpt>
    </trkseg>
    <trkseg>
      <trkpt lat="1" lon="0"></trkpt>
      <trkpt lat="1" lon="1"></trkpt>
    </trkseg>
  </trk>
  <trk>
    <trkseg>
      <trkpt lat="5" lon="5"></trkpt>
    </trkseg>
  </trk>
</gpx>`

func TestParseTracksAndWaypoints(t *testing.T) {
	doc, err := ParseBytes([]byte(sampleGPX))
	require.NoError(t, err)

	tracks := doc.Tracks()
	require.Len(t, tracks, 3)
	assert.Equal(t, "Ride #1", tracks[0].Name)
	assert.Equal(t, "Ride #2", tracks[1].Name)
	assert.Equal(t, "track 2", tracks[2].Name)
	assert.Equal(t, 2, tracks[0].Len())
	assert.Equal(t, 1, tracks[2].Len())
	assert.Equal(t, geo.LatLng{Lat: 0, Lng: 2}, tracks[0].At(1).LatLng)
	assert.False(t, tracks[0].At(0).Synthetic())

	wpts := doc.Waypoints()
	require.Len(t, wpts, 1)
	assert.Equal(t, "Summit", wpts[0].Name)
	assert.Equal(t, geo.LatLng{Lat: 0.0005, Lng: 1}, wpts[0].LatLng)
}

func TestParseInvalid(t *testing.T) {
	_, err := ParseBytes([]byte("<gpx><trk>"))
	require.Error(t, err)

	_, err = Parse(strings.NewReader("not xml at all"))
	require.Error(t, err)
}

func TestMarshalRoundTripKeepsAttributes(t *testing.T) {
	doc, err := ParseBytes([]byte(sampleGPX))
	require.NoError(t, err)

	tr := doc.Tracks()[0]
	snap.Snap([]*track.Track{tr}, doc.Waypoints(), 100, snap.ModeAdd)
	require.Equal(t, 5, tr.Len())

	data, err := doc.Marshal()
	require.NoError(t, err)

	again, err := ParseBytes(data)
	require.NoError(t, err)

	seg := again.GPX.Tracks[0].Segments[0].Points
	require.Len(t, seg, 5)
	assert.Equal(t, 100.0, seg[0].Elevation.Value())
	assert.Equal(t, 120.0, seg[4].Elevation.Value())
	assert.False(t, seg[2].Elevation.NotNull(), "synthetic point should carry no elevation")
	assert.InDelta(t, 0.0005, seg[2].Latitude, 1e-12)
	assert.InDelta(t, 1.0, seg[2].Longitude, 1e-12)

	// Untouched segments and waypoints survive as they were.
	assert.Len(t, again.GPX.Tracks[0].Segments[1].Points, 2)
	assert.Len(t, again.GPX.Tracks[1].Segments[0].Points, 1)
	require.Len(t, again.GPX.Waypoints, 1)
	assert.Equal(t, "Summit", again.GPX.Waypoints[0].Name)
}

func TestNewDocument(t *testing.T) {
	tr := track.New("way/7", []track.Point{
		{LatLng: geo.LatLng{Lat: 1, Lng: 2}},
		{LatLng: geo.LatLng{Lat: 1.5, Lng: 2.5}},
	})
	wpts := []track.Waypoint{{LatLng: geo.LatLng{Lat: 1, Lng: 2.1}, Name: "cafe"}}

	doc := New("snapgpx", []*track.Track{tr}, wpts)
	data, err := doc.Marshal()
	require.NoError(t, err)

	again, err := ParseBytes(data)
	require.NoError(t, err)
	require.Len(t, again.Tracks(), 1)
	assert.Equal(t, "way/7", again.Tracks()[0].Name)
	assert.Equal(t, 2, again.Tracks()[0].Len())
	require.Len(t, again.Waypoints(), 1)
	assert.Equal(t, "cafe", again.Waypoints()[0].Name)
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input string
		dist  float64
		want  string
	}{
		{"ride.gpx", 100, "ride_snapped_100.gpx"},
		{"dir/ride.gpx", 25.5, "dir/ride_snapped_25.5.gpx"},
		{"noext", 50, "noext_snapped_50.gpx"},
		{"a.b.gpx", 0, "a.b_snapped_0.gpx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputPath(tt.input, tt.dist), "input %q", tt.input)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.gpx")

	require.NoError(t, WriteFile(path, []byte("one"), false))

	err := WriteFile(path, []byte("two"), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutputExists))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one", string(got))

	require.NoError(t, WriteFile(path, []byte("three"), true))
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "three", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files left behind")
}

func TestWriteFileMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.gpx")

	require.NoError(t, WriteFile(path, []byte("one"), false))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	// Overwriting keeps whatever mode the user gave the file.
	require.NoError(t, os.Chmod(path, 0o600))
	require.NoError(t, WriteFile(path, []byte("two"), true))
	info, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.gpx")
	require.NoError(t, os.WriteFile(path, []byte(sampleGPX), 0o644))

	doc, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, doc.Tracks(), 3)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.gpx"))
	require.Error(t, err)
}
