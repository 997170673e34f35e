package track

import (
	"math"
	"testing"

	"snap_gpx/pkg/geo"
)

func pt(lat, lng float64, attrs any) Point {
	return Point{LatLng: geo.LatLng{Lat: lat, Lng: lng}, Attrs: attrs}
}

func TestInsert(t *testing.T) {
	tests := []struct {
		name    string
		at      int
		insert  []Point
		wantIdx int
		want    []string
	}{
		{
			name:    "middle",
			at:      1,
			insert:  []Point{pt(0, 0.5, "x"), pt(0, 0.6, "y")},
			wantIdx: 1,
			want:    []string{"a", "x", "y", "b", "c"},
		},
		{
			name:    "front",
			at:      0,
			insert:  []Point{pt(0, -1, "x")},
			wantIdx: 0,
			want:    []string{"x", "a", "b", "c"},
		},
		{
			name:    "append",
			at:      3,
			insert:  []Point{pt(0, 3, "x")},
			wantIdx: 3,
			want:    []string{"a", "b", "c", "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New("t", []Point{pt(0, 0, "a"), pt(0, 1, "b"), pt(0, 2, "c")})
			before := tr.Version()

			got := tr.Insert(tt.at, tt.insert...)
			if got != tt.wantIdx {
				t.Errorf("Insert returned %d, want %d", got, tt.wantIdx)
			}
			if tr.Version() == before {
				t.Error("version not bumped")
			}
			if tr.Len() != len(tt.want) {
				t.Fatalf("Len = %d, want %d", tr.Len(), len(tt.want))
			}
			for i, w := range tt.want {
				if tr.At(i).Attrs != w {
					t.Errorf("At(%d).Attrs = %v, want %s", i, tr.At(i).Attrs, w)
				}
			}
		})
	}
}

func TestInsertNothingKeepsVersion(t *testing.T) {
	tr := New("t", []Point{pt(0, 0, nil), pt(0, 1, nil)})
	if got := tr.Insert(1); got != 1 {
		t.Errorf("Insert returned %d, want 1", got)
	}
	if tr.Version() != 0 {
		t.Errorf("Version = %d, want 0", tr.Version())
	}
}

func TestInsertOutOfRangePanics(t *testing.T) {
	tr := New("t", []Point{pt(0, 0, nil)})
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	tr.Insert(5, pt(1, 1, nil))
}

func TestMoveKeepsAttrs(t *testing.T) {
	tr := New("t", []Point{pt(0, 0, "a"), pt(0, 1, "b")})
	tr.Move(1, geo.LatLng{Lat: 5, Lng: 5})

	p := tr.At(1)
	if p.Lat != 5 || p.Lng != 5 {
		t.Errorf("position = %+v, want (5,5)", p.LatLng)
	}
	if p.Attrs != "b" {
		t.Errorf("Attrs = %v, want b", p.Attrs)
	}
	if tr.Version() != 1 {
		t.Errorf("Version = %d, want 1", tr.Version())
	}
}

func TestNewCopiesInput(t *testing.T) {
	pts := []Point{pt(0, 0, nil), pt(0, 1, nil)}
	tr := New("t", pts)
	pts[0].Lat = 42

	if tr.At(0).Lat != 0 {
		t.Error("track aliases the caller's slice")
	}
	out := tr.Points()
	out[1].Lat = 42
	if tr.At(1).Lat != 0 {
		t.Error("Points() aliases internal storage")
	}
}

func TestNumSegments(t *testing.T) {
	for n, want := range map[int]int{0: 0, 1: 0, 2: 1, 5: 4} {
		tr := New("t", make([]Point, n))
		if got := tr.NumSegments(); got != want {
			t.Errorf("NumSegments with %d points = %d, want %d", n, got, want)
		}
	}
}

func TestLengthAndBound(t *testing.T) {
	tr := New("t", []Point{pt(0, 0, nil), pt(0, 1, nil), pt(1, 1, nil)})

	want := 2 * geo.Haversine(0, 0, 0, 1)
	if got := tr.Length(); math.Abs(got-want) > 1 {
		t.Errorf("Length = %f, want ~%f", got, want)
	}

	b := tr.Bound()
	if b.Min.Lat() != 0 || b.Max.Lat() != 1 || b.Min.Lon() != 0 || b.Max.Lon() != 1 {
		t.Errorf("Bound = %v", b)
	}
	if ls := tr.LineString(); len(ls) != 3 || ls[2].Lat() != 1 {
		t.Errorf("LineString = %v", ls)
	}
}

func TestSynthetic(t *testing.T) {
	if !pt(0, 0, nil).Synthetic() {
		t.Error("nil attrs should be synthetic")
	}
	if pt(0, 0, struct{}{}).Synthetic() {
		t.Error("non-nil attrs should not be synthetic")
	}
}
