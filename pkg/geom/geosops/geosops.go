//go:build geos

// Package geosops implements geom.Ops on top of the GEOS C library through
// github.com/paulsmith/gogeos. It gives the same answers as geom.Planar
// using the GEOS overlay engine.
//
// This package requires libgeos_c to be installed.
// Build with: go build -tags=geos
package geosops

import (
	"fmt"

	"github.com/chazu/plinth/pkg/geom"
	"github.com/paulmach/orb"
	"github.com/paulsmith/gogeos/geos"
)

// Compile-time interface check.
var _ geom.Ops = (*Ops)(nil)

// Ops implements geom.Ops using GEOS.
type Ops struct{}

// New returns GEOS-backed operations.
func New() (geom.Ops, error) {
	return &Ops{}, nil
}

// Centroid implements geom.Ops.
func (o *Ops) Centroid(geoms []orb.Geometry) (orb.Point, error) {
	u, err := union(geoms)
	if err != nil {
		return orb.Point{}, err
	}
	c, err := u.Centroid()
	if err != nil {
		return orb.Point{}, fmt.Errorf("geosops: centroid: %w", err)
	}
	x, err := c.X()
	if err != nil {
		return orb.Point{}, err
	}
	y, err := c.Y()
	if err != nil {
		return orb.Point{}, err
	}
	return orb.Point{x, y}, nil
}

// ConvexHull implements geom.Ops.
func (o *Ops) ConvexHull(geoms []orb.Geometry) (orb.Ring, error) {
	u, err := union(geoms)
	if err != nil {
		return nil, err
	}
	h, err := u.ConvexHull()
	if err != nil {
		return nil, fmt.Errorf("geosops: convex hull: %w", err)
	}
	t, err := h.Type()
	if err != nil {
		return nil, err
	}
	if t != geos.POLYGON {
		// Degenerate hull (point or line): return its coordinates closed.
		cs, err := h.Coords()
		if err != nil {
			return nil, err
		}
		r := toRing(cs)
		if len(r) > 0 && r[0] != r[len(r)-1] {
			r = append(r, r[0])
		}
		return r, nil
	}
	shell, err := h.Shell()
	if err != nil {
		return nil, err
	}
	cs, err := shell.Coords()
	if err != nil {
		return nil, err
	}
	r := toRing(cs)
	if geom.SignedArea(r) < 0 {
		r.Reverse()
	}
	return r, nil
}

func union(geoms []orb.Geometry) (*geos.Geometry, error) {
	parts := make([]*geos.Geometry, 0, len(geoms))
	for _, g := range geoms {
		gg, err := toGeos(g)
		if err != nil {
			return nil, err
		}
		if gg != nil {
			parts = append(parts, gg)
		}
	}
	if len(parts) == 0 {
		return nil, geom.ErrEmpty
	}
	c, err := geos.NewCollection(geos.GEOMETRYCOLLECTION, parts...)
	if err != nil {
		return nil, fmt.Errorf("geosops: collection: %w", err)
	}
	u, err := c.UnaryUnion()
	if err != nil {
		return nil, fmt.Errorf("geosops: union: %w", err)
	}
	return u, nil
}

func toGeos(g orb.Geometry) (*geos.Geometry, error) {
	switch t := g.(type) {
	case nil:
		return nil, nil
	case orb.Point:
		return geos.NewPoint(geos.Coord{X: t[0], Y: t[1]})
	case orb.LineString:
		return geos.NewLineString(coords(t)...)
	case orb.Polygon:
		return polygon(t)
	case orb.MultiPolygon:
		ps := make([]*geos.Geometry, 0, len(t))
		for _, p := range t {
			gp, err := polygon(p)
			if err != nil {
				return nil, err
			}
			ps = append(ps, gp)
		}
		return geos.NewCollection(geos.MULTIPOLYGON, ps...)
	}
	return nil, geom.Unsupported("", g)
}

func polygon(p orb.Polygon) (*geos.Geometry, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("geosops: empty polygon")
	}
	holes := make([][]geos.Coord, 0, len(p)-1)
	for _, h := range p[1:] {
		holes = append(holes, coords(closed(h)))
	}
	return geos.NewPolygon(coords(closed(p[0])), holes...)
}

func closed(r orb.Ring) orb.Ring {
	if len(r) > 0 && r[0] != r[len(r)-1] {
		return append(append(orb.Ring{}, r...), r[0])
	}
	return r
}

func coords(pts []orb.Point) []geos.Coord {
	out := make([]geos.Coord, len(pts))
	for i, p := range pts {
		out[i] = geos.Coord{X: p[0], Y: p[1]}
	}
	return out
}

func toRing(cs []geos.Coord) orb.Ring {
	r := make(orb.Ring, len(cs))
	for i, c := range cs {
		r[i] = orb.Point{c.X, c.Y}
	}
	return r
}
