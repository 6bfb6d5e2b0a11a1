package geom

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	sf "github.com/peterstace/simplefeatures/geom"
)

// ErrEmpty is returned when an operation needs at least one coordinate.
var ErrEmpty = errors.New("geom: empty geometry collection")

// Ops computes collection-level measures over the union of a set of
// geometries.
type Ops interface {
	// Centroid returns the centroid of the union of geoms.
	Centroid(geoms []orb.Geometry) (orb.Point, error)

	// ConvexHull returns the closed, counter-clockwise exterior ring of the
	// convex hull of the union of geoms.
	ConvexHull(geoms []orb.Geometry) (orb.Ring, error)
}

// Planar implements Ops in pure Go with github.com/peterstace/simplefeatures.
// Only the highest-dimension members of a collection contribute to the
// centroid, so footprints win over lines and lines over points.
type Planar struct{}

var _ Ops = Planar{}

// Centroid implements Ops. Overlapping inputs count once.
func (Planar) Centroid(geoms []orb.Geometry) (orb.Point, error) {
	var byDim [3][]sf.Geometry
	for _, g := range geoms {
		if g == nil {
			continue
		}
		sg, err := toSimple(g)
		if err != nil {
			return orb.Point{}, err
		}
		if sg.IsEmpty() {
			continue
		}
		d := sg.Dimension()
		byDim[d] = append(byDim[d], sg)
	}
	for d := 2; d >= 0; d-- {
		if len(byDim[d]) == 0 {
			continue
		}
		u, err := sf.UnaryUnion(sf.NewGeometryCollection(byDim[d]).AsGeometry())
		if err != nil {
			return orb.Point{}, fmt.Errorf("geom: union: %w", err)
		}
		xy, ok := u.Centroid().XY()
		if !ok {
			break
		}
		return orb.Point{xy.X, xy.Y}, nil
	}
	return orb.Point{}, ErrEmpty
}

// ConvexHull implements Ops. Fewer than three distinct points give a
// degenerate closed ring.
func (Planar) ConvexHull(geoms []orb.Geometry) (orb.Ring, error) {
	gs := make([]sf.Geometry, 0, len(geoms))
	for _, g := range geoms {
		if g == nil {
			continue
		}
		sg, err := toSimple(g)
		if err != nil {
			return nil, err
		}
		gs = append(gs, sg)
	}
	h := sf.NewGeometryCollection(gs).AsGeometry().ConvexHull()

	var r orb.Ring
	switch h.Type() {
	case sf.TypePolygon:
		p, _ := h.AsPolygon()
		r = fromSequence(p.ExteriorRing().Coordinates())
	case sf.TypeLineString:
		l, _ := h.AsLineString()
		r = fromSequence(l.Coordinates())
	case sf.TypePoint:
		pt, _ := h.AsPoint()
		if xy, ok := pt.XY(); ok {
			r = orb.Ring{{xy.X, xy.Y}}
		}
	}
	if len(r) == 0 {
		return nil, ErrEmpty
	}
	if len(r) == 1 || r[0] != r[len(r)-1] {
		r = append(r, r[0])
	}
	if SignedArea(r) < 0 {
		r.Reverse()
	}
	return r, nil
}

// Points returns every coordinate of g in storage order.
func Points(g orb.Geometry) []orb.Point {
	var out []orb.Point
	switch t := g.(type) {
	case orb.Point:
		out = append(out, t)
	case orb.MultiPoint:
		out = append(out, t...)
	case orb.LineString:
		out = append(out, t...)
	case orb.MultiLineString:
		for _, l := range t {
			out = append(out, l...)
		}
	case orb.Ring:
		out = append(out, t...)
	case orb.Polygon:
		for _, r := range t {
			out = append(out, r...)
		}
	case orb.MultiPolygon:
		for _, p := range t {
			out = append(out, Points(p)...)
		}
	case orb.Collection:
		for _, c := range t {
			out = append(out, Points(c)...)
		}
	}
	return out
}
