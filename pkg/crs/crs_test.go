package crs

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestParse(t *testing.T) {
	tests := []struct {
		def       string
		name      string
		cartesian bool
	}{
		{"EPSG:4326", "EPSG:4326", false},
		{"epsg:3857", "EPSG:3857", true},
		{"EPSG:900913", "EPSG:900913", true},
		{"EPSG:32618", "EPSG:32618", true},
		{"EPSG:32733", "EPSG:32733", true},
		{"EPSG:4269", "EPSG:4269", false},
		{"+proj=longlat +datum=WGS84 +no_defs", "+proj=longlat +datum=WGS84 +no_defs", false},
		{"+proj=utm +zone=31 +ellps=WGS84 +units=m +no_defs", "+proj=utm +zone=31 +ellps=WGS84 +units=m +no_defs", true},
	}
	for _, tt := range tests {
		t.Run(tt.def, func(t *testing.T) {
			s, err := Parse(tt.def)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if s.Name != tt.name {
				t.Errorf("Name = %q, want %q", s.Name, tt.name)
			}
			if s.IsCartesian() != tt.cartesian {
				t.Errorf("IsCartesian() = %v, want %v", s.IsCartesian(), tt.cartesian)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, def := range []string{"", "EPSG:1", "EPSG:32661"} {
		_, err := Parse(def)
		var pe *ProjectionError
		if !errors.As(err, &pe) {
			t.Errorf("Parse(%q) error = %v, want ProjectionError", def, err)
		}
	}
}

func lonLatSquare(lon, lat, d float64) orb.Polygon {
	return orb.Polygon{{{lon, lat}, {lon + d, lat}, {lon + d, lat + d}, {lon, lat + d}, {lon, lat}}}
}

func TestNormalizeRejects(t *testing.T) {
	geoms := []orb.Geometry{lonLatSquare(0, 0, 0.001)}
	var pe *ProjectionError

	if _, err := Normalize(geoms, nil, MustParse("EPSG:3857")); !errors.As(err, &pe) {
		t.Errorf("nil source: error = %v, want ProjectionError", err)
	}
	if _, err := Normalize(geoms, MustParse("EPSG:4326"), MustParse("EPSG:4326")); !errors.As(err, &pe) {
		t.Errorf("geographic target: error = %v, want ProjectionError", err)
	}
}

func TestNormalizeWebMercator(t *testing.T) {
	src, dst := MustParse("EPSG:4326"), MustParse("EPSG:3857")
	pt := []orb.Geometry{orb.Point{1, 0}}
	n, err := Normalize(pt, src, dst)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	x := n.Projected[0].(orb.Point)[0]
	if math.Abs(x-111319.49079327357) > 1e-3 {
		t.Errorf("projected x = %f, want 111319.49", x)
	}
	if n.Offset.X != x {
		t.Errorf("Offset.X = %f, want %f", n.Offset.X, x)
	}
	if c := n.Centered[0].(orb.Point); math.Abs(c[0]) > 1e-9 || math.Abs(c[1]) > 1e-9 {
		t.Errorf("centred point = %v, want origin", c)
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	src, dst := MustParse("EPSG:4326"), MustParse("EPSG:3857")
	geoms := []orb.Geometry{
		lonLatSquare(-73.99, 40.75, 0.0001),
		lonLatSquare(-73.9898, 40.75, 0.0001),
		orb.LineString{{-73.991, 40.749}, {-73.989, 40.751}},
	}
	n, err := Normalize(geoms, src, dst)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	back, err := Denormalize(n.Centered, n.Offset, n.Target, src)
	if err != nil {
		t.Fatalf("Denormalize() error = %v", err)
	}
	for i := range geoms {
		want := pointsOf(geoms[i])
		got := pointsOf(back[i])
		if len(got) != len(want) {
			t.Fatalf("geometry %d: %d points, want %d", i, len(got), len(want))
		}
		for j := range want {
			if math.Abs(got[j][0]-want[j][0]) > 1e-7 || math.Abs(got[j][1]-want[j][1]) > 1e-7 {
				t.Errorf("geometry %d point %d = %v, want %v", i, j, got[j], want[j])
			}
		}
	}
}

func TestNormalizeCenteredIsNoop(t *testing.T) {
	s := MustParse("EPSG:3857")
	geoms := []orb.Geometry{orb.Polygon{{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}, {-1, -1}}}}
	n, err := Normalize(geoms, s, s)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if !n.Offset.IsZero() {
		t.Errorf("Offset = %+v, want zero", n.Offset)
	}
	if got := n.Centered[0].(orb.Polygon)[0][2]; got != (orb.Point{1, 1}) {
		t.Errorf("centred vertex = %v, want [1 1]", got)
	}
}

func TestNormalizeInfersUTM(t *testing.T) {
	geoms := []orb.Geometry{lonLatSquare(-74.0, 40.7, 0.001)}
	n, err := Normalize(geoms, MustParse("EPSG:4326"), nil)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if n.Target.Name != "EPSG:32618" {
		t.Errorf("inferred target = %s, want EPSG:32618", n.Target.Name)
	}

	south := []orb.Geometry{orb.Point{18.4, -33.9}}
	n, err = Normalize(south, MustParse("EPSG:4326"), nil)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if n.Target.Name != "EPSG:32734" {
		t.Errorf("inferred target = %s, want EPSG:32734", n.Target.Name)
	}
}

func pointsOf(g orb.Geometry) []orb.Point {
	switch t := g.(type) {
	case orb.Polygon:
		return t[0]
	case orb.LineString:
		return t
	}
	return nil
}
