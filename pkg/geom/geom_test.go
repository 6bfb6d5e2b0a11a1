package geom

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func square(x, y, s float64) orb.Ring {
	return orb.Ring{{x, y}, {x + s, y}, {x + s, y + s}, {x, y + s}, {x, y}}
}

func TestExtractRingsPolygon(t *testing.T) {
	cw := orb.Ring{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}}
	hole := square(2, 2, 2)
	r, err := ExtractRings(orb.Polygon{cw, hole})
	if err != nil {
		t.Fatalf("ExtractRings() error = %v", err)
	}
	if len(r.Exteriors) != 1 || len(r.Interiors) != 1 {
		t.Fatalf("got %d exteriors / %d interiors, want 1 / 1", len(r.Exteriors), len(r.Interiors))
	}
	// Winding is kept as stored.
	if r.Exteriors[0][1] != (orb.Point{0, 10}) {
		t.Errorf("exterior was re-oriented: %v", r.Exteriors[0])
	}
}

func TestExtractRingsMultiPolygon(t *testing.T) {
	mp := orb.MultiPolygon{
		{square(0, 0, 10), square(1, 1, 1), square(5, 5, 1)},
		{square(20, 0, 5)},
		{square(40, 0, 10), square(42, 2, 2)},
	}
	r, err := ExtractRings(mp)
	if err != nil {
		t.Fatalf("ExtractRings() error = %v", err)
	}
	if len(r.Exteriors) != 3 {
		t.Errorf("exteriors = %d, want 3", len(r.Exteriors))
	}
	if len(r.Interiors) != 3 {
		t.Errorf("interiors = %d, want 3", len(r.Interiors))
	}
}

func TestExtractRingsUnsupported(t *testing.T) {
	for _, g := range []orb.Geometry{orb.Point{1, 2}, orb.LineString{{0, 0}, {1, 1}}, orb.MultiPoint{{0, 0}}} {
		_, err := ExtractRings(g)
		var ue *UnsupportedGeometryError
		if !errors.As(err, &ue) {
			t.Fatalf("ExtractRings(%T) error = %v, want UnsupportedGeometryError", g, err)
		}
		if ue.Type != g.GeoJSONType() {
			t.Errorf("Type = %q, want %q", ue.Type, g.GeoJSONType())
		}
	}
}

func TestCleanRing(t *testing.T) {
	r := orb.Ring{{0, 0}, {1, 0}, {1, 0}, {1, 1}, {0, 0}}
	got := CleanRing(r)
	if len(got) != 3 {
		t.Fatalf("CleanRing() = %v, want 3 vertices", got)
	}
	if math.Abs(SignedArea(got)-0.5) > 1e-12 {
		t.Errorf("SignedArea() = %f, want 0.5", SignedArea(got))
	}
}

func TestValidate(t *testing.T) {
	bowtie := orb.Polygon{{{0, 0}, {10, 10}, {10, 0}, {0, 10}, {0, 0}}}
	holeOutside := orb.Polygon{square(0, 0, 10), square(20, 20, 1)}
	crossingHole := orb.Polygon{square(0, 0, 10), square(8, 8, 5)}
	overlapping := orb.MultiPolygon{{square(0, 0, 10)}, {square(5, 5, 10)}}
	touchingHole := orb.Polygon{square(0, 0, 10), {{0, 5}, {3, 4}, {3, 6}, {0, 5}}}
	cornerParts := orb.MultiPolygon{{square(0, 0, 10)}, {square(10, 10, 10)}}
	edgeParts := orb.MultiPolygon{{square(0, 0, 10)}, {square(10, 0, 10)}}
	splitInterior := orb.Polygon{square(0, 0, 10), {{0, 5}, {5, 2}, {10, 5}, {5, 8}, {0, 5}}}
	tests := []struct {
		name  string
		g     orb.Geometry
		valid bool
	}{
		{"square", orb.Polygon{square(0, 0, 10)}, true},
		{"square with hole", orb.Polygon{square(0, 0, 10), square(2, 2, 2)}, true},
		{"disjoint multipolygon", orb.MultiPolygon{{square(0, 0, 1)}, {square(5, 5, 1)}}, true},
		{"hole touching shell at a vertex", touchingHole, true},
		{"parts meeting at a corner", cornerParts, true},
		{"unclosed ring", orb.Polygon{{{0, 0}, {4, 0}, {4, 4}, {0, 4}}}, true},
		{"point", orb.Point{1, 1}, true},
		{"line", orb.LineString{{0, 0}, {1, 1}}, true},
		{"bowtie", bowtie, false},
		{"two vertices", orb.Polygon{{{0, 0}, {1, 1}, {0, 0}}}, false},
		{"collinear", orb.Polygon{{{0, 0}, {1, 0}, {2, 0}, {0, 0}}}, false},
		{"hole outside", holeOutside, false},
		{"crossing hole", crossingHole, false},
		{"overlapping parts", overlapping, false},
		{"parts sharing an edge", edgeParts, false},
		{"hole splitting the interior", splitInterior, false},
		{"nan point", orb.Point{math.NaN(), 0}, false},
		{"one point line", orb.LineString{{0, 0}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.g)
			if tt.valid && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
			if !tt.valid {
				var ie *InvalidGeometryError
				if !errors.As(err, &ie) {
					t.Errorf("Validate() error = %v, want InvalidGeometryError", err)
				}
			}
		})
	}
}

func TestValidateUnsupported(t *testing.T) {
	var ue *UnsupportedGeometryError
	if err := Validate(orb.MultiPoint{{0, 0}}); !errors.As(err, &ue) {
		t.Errorf("Validate(MultiPoint) error = %v, want UnsupportedGeometryError", err)
	}
}

func TestPlanarCentroid(t *testing.T) {
	geoms := []orb.Geometry{
		orb.Polygon{square(0, 0, 2)},
		orb.Polygon{square(4, 0, 2)},
	}
	c, err := Planar{}.Centroid(geoms)
	if err != nil {
		t.Fatalf("Centroid() error = %v", err)
	}
	if math.Abs(c[0]-3) > 1e-9 || math.Abs(c[1]-1) > 1e-9 {
		t.Errorf("Centroid() = %v, want [3 1]", c)
	}

	c, err = Planar{}.Centroid([]orb.Geometry{orb.Point{1, 1}, orb.Point{3, 5}})
	if err != nil {
		t.Fatalf("Centroid(points) error = %v", err)
	}
	if c != (orb.Point{2, 3}) {
		t.Errorf("Centroid(points) = %v, want [2 3]", c)
	}

	if _, err := (Planar{}).Centroid(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("Centroid(nil) error = %v, want ErrEmpty", err)
	}
}

func TestPlanarCentroidOfUnion(t *testing.T) {
	a := orb.Polygon{square(0, 0, 10)}
	b := orb.Polygon{square(20, 0, 10)}
	tests := []struct {
		name  string
		geoms []orb.Geometry
		want  orb.Point
	}{
		{"repeated row", []orb.Geometry{a, a, b}, orb.Point{15, 5}},
		{"partial overlap", []orb.Geometry{a, orb.Polygon{square(5, 0, 10)}}, orb.Point{7.5, 5}},
		{"points ignored beside areas", []orb.Geometry{a, orb.Point{100, 100}}, orb.Point{5, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Planar{}.Centroid(tt.geoms)
			if err != nil {
				t.Fatalf("Centroid() error = %v", err)
			}
			if math.Abs(c[0]-tt.want[0]) > 1e-9 || math.Abs(c[1]-tt.want[1]) > 1e-9 {
				t.Errorf("Centroid() = %v, want %v", c, tt.want)
			}
		})
	}
}

func TestPlanarConvexHull(t *testing.T) {
	geoms := []orb.Geometry{
		orb.Polygon{square(0, 0, 2)},
		orb.Polygon{square(4, 0, 2)},
		orb.Point{3, 1}, // interior
	}
	hull, err := Planar{}.ConvexHull(geoms)
	if err != nil {
		t.Fatalf("ConvexHull() error = %v", err)
	}
	if hull[0] != hull[len(hull)-1] {
		t.Errorf("hull is not closed: %v", hull)
	}
	if len(hull) != 5 {
		t.Errorf("hull has %d vertices, want 5 (closed rectangle): %v", len(hull), hull)
	}
	if a := SignedArea(hull[:len(hull)-1]); math.Abs(a-12) > 1e-9 {
		t.Errorf("hull area = %f, want 12 (counter-clockwise)", a)
	}
}

func TestPlanarConvexHullDegenerate(t *testing.T) {
	hull, err := Planar{}.ConvexHull([]orb.Geometry{orb.Point{1, 1}, orb.Point{1, 1}})
	if err != nil {
		t.Fatalf("ConvexHull() error = %v", err)
	}
	if len(hull) != 2 || hull[0] != hull[1] {
		t.Errorf("ConvexHull(one point) = %v, want a closed single-point ring", hull)
	}

	if _, err := (Planar{}).ConvexHull(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("ConvexHull(nil) error = %v, want ErrEmpty", err)
	}
}

func TestTranslate(t *testing.T) {
	p := orb.Polygon{square(0, 0, 1)}
	got := Translate(p, 10, -5).(orb.Polygon)
	if got[0][2] != (orb.Point{11, -4}) {
		t.Errorf("Translate() vertex = %v, want [11 -4]", got[0][2])
	}
	if p[0][2] != (orb.Point{1, 1}) {
		t.Error("Translate() modified its input")
	}
}
