package crs

import (
	"fmt"
	"math"

	"github.com/chazu/plinth/pkg/geom"
	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// Offset is the translation subtracted from projected coordinates to centre
// a collection on the origin. Exports add it back.
type Offset struct {
	X, Y float64
}

// IsZero reports whether the offset is (0, 0).
func (o Offset) IsZero() bool {
	return o.X == 0 && o.Y == 0
}

// Normalized is the result of Normalize.
type Normalized struct {
	// Target is the resolved projected system.
	Target *System
	// Projected holds the inputs reprojected into Target.
	Projected []orb.Geometry
	// Centered holds Projected translated by -Offset.
	Centered []orb.Geometry
	// Centroid is the centroid of the union of Projected.
	Centroid orb.Point
	Offset   Offset
}

// Normalizer reprojects and recentres geometry collections. Ops computes
// the union centroid; nil selects geom.Planar.
type Normalizer struct {
	Ops geom.Ops
}

// Normalize reprojects geoms from src into dst and recentres them on the
// centroid of their union.
//
// A nil src fails. A nil dst selects the UTM zone of the collection's
// geodesic centroid when src is geographic, and src itself when it is
// already cartesian. A non-cartesian dst fails.
func (n Normalizer) Normalize(geoms []orb.Geometry, src, dst *System) (*Normalized, error) {
	if src == nil {
		return nil, &ProjectionError{Reason: "input geometries have no reference system"}
	}
	if dst == nil {
		var err error
		if dst, err = infer(geoms, src); err != nil {
			return nil, err
		}
	}
	if !dst.IsCartesian() {
		return nil, &ProjectionError{System: dst.Name, Reason: "target reference system is not cartesian"}
	}

	projected, err := Reproject(geoms, src, dst)
	if err != nil {
		return nil, err
	}

	ops := n.Ops
	if ops == nil {
		ops = geom.Planar{}
	}
	c, err := ops.Centroid(projected)
	if err != nil {
		return nil, fmt.Errorf("crs: centroid: %w", err)
	}

	out := &Normalized{
		Target:    dst,
		Projected: projected,
		Centroid:  c,
		Offset:    Offset{X: c[0], Y: c[1]},
	}
	out.Centered = Recenter(projected, out.Offset)
	return out, nil
}

// Normalize runs a Normalizer with pure-Go operations.
func Normalize(geoms []orb.Geometry, src, dst *System) (*Normalized, error) {
	return Normalizer{}.Normalize(geoms, src, dst)
}

// Recenter translates every geometry by -off.
func Recenter(geoms []orb.Geometry, off Offset) []orb.Geometry {
	out := make([]orb.Geometry, len(geoms))
	for i, g := range geoms {
		if off.IsZero() {
			out[i] = g
			continue
		}
		out[i] = geom.Translate(g, -off.X, -off.Y)
	}
	return out
}

// Denormalize translates centred geometries by +off and reprojects them
// from the working system back to dst.
func Denormalize(geoms []orb.Geometry, off Offset, from, to *System) ([]orb.Geometry, error) {
	shifted := make([]orb.Geometry, len(geoms))
	for i, g := range geoms {
		shifted[i] = geom.Translate(g, off.X, off.Y)
	}
	return Reproject(shifted, from, to)
}

// Reproject transforms geoms from src to dst. Systems with the same
// definition are returned unchanged.
func Reproject(geoms []orb.Geometry, src, dst *System) ([]orb.Geometry, error) {
	if src.Equal(dst) {
		return append([]orb.Geometry(nil), geoms...), nil
	}
	t, err := src.Transformer(dst)
	if err != nil {
		return nil, err
	}
	fn := func(p orb.Point) (orb.Point, error) {
		x, y, err := t(p[0], p[1])
		if err != nil {
			return orb.Point{}, err
		}
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			return orb.Point{}, fmt.Errorf("point %v has no finite image", p)
		}
		return orb.Point{x, y}, nil
	}
	out := make([]orb.Geometry, len(geoms))
	for i, g := range geoms {
		m, err := geom.Map(g, fn)
		if err != nil {
			return nil, &ProjectionError{System: dst.Name, Reason: fmt.Sprintf("geometry %d: %v", i, err)}
		}
		out[i] = m
	}
	return out, nil
}

func infer(geoms []orb.Geometry, src *System) (*System, error) {
	if src.IsCartesian() {
		return src, nil
	}
	if !src.IsGeographic() {
		return nil, &ProjectionError{System: src.Name, Reason: "cannot infer a cartesian target from a non-geographic source"}
	}
	ll, err := GeodesicCentroid(geoms)
	if err != nil {
		return nil, err
	}
	zone := int(math.Floor((ll.Lng.Degrees()+180)/6)) + 1
	if zone > 60 {
		zone = 60
	}
	return UTM(zone, ll.Lat.Degrees() >= 0)
}

// GeodesicCentroid returns the normalised vector mean of every coordinate
// of geoms, read as longitude/latitude degrees.
func GeodesicCentroid(geoms []orb.Geometry) (s2.LatLng, error) {
	var sum r3.Vector
	var n int
	for _, g := range geoms {
		for _, p := range geom.Points(g) {
			sum = sum.Add(s2.PointFromLatLng(s2.LatLngFromDegrees(p[1], p[0])).Vector)
			n++
		}
	}
	if n == 0 || sum.Norm() == 0 {
		return s2.LatLng{}, &ProjectionError{Reason: "cannot infer a reference system from an empty collection"}
	}
	return s2.LatLngFromPoint(s2.Point{Vector: sum.Normalize()}), nil
}
