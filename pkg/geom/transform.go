package geom

import (
	"fmt"

	"github.com/paulmach/orb"
)

// PointFunc maps one coordinate to another.
type PointFunc func(orb.Point) (orb.Point, error)

// Map returns a deep copy of g with fn applied to every coordinate. The
// input is never modified.
func Map(g orb.Geometry, fn PointFunc) (orb.Geometry, error) {
	switch t := g.(type) {
	case nil:
		return nil, nil
	case orb.Point:
		return fn(t)
	case orb.MultiPoint:
		out, err := mapPoints(t, fn)
		return orb.MultiPoint(out), err
	case orb.LineString:
		out, err := mapPoints(t, fn)
		return orb.LineString(out), err
	case orb.MultiLineString:
		out := make(orb.MultiLineString, len(t))
		for i, l := range t {
			m, err := mapPoints(l, fn)
			if err != nil {
				return nil, err
			}
			out[i] = m
		}
		return out, nil
	case orb.Ring:
		out, err := mapPoints(t, fn)
		return orb.Ring(out), err
	case orb.Polygon:
		return mapPolygon(t, fn)
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(t))
		for i, p := range t {
			m, err := mapPolygon(p, fn)
			if err != nil {
				return nil, err
			}
			out[i] = m
		}
		return out, nil
	case orb.Collection:
		out := make(orb.Collection, len(t))
		for i, c := range t {
			m, err := Map(c, fn)
			if err != nil {
				return nil, err
			}
			out[i] = m
		}
		return out, nil
	}
	return nil, fmt.Errorf("geom: cannot map %s", TypeName(g))
}

func mapPoints(pts []orb.Point, fn PointFunc) ([]orb.Point, error) {
	out := make([]orb.Point, len(pts))
	for i, p := range pts {
		q, err := fn(p)
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}

func mapPolygon(p orb.Polygon, fn PointFunc) (orb.Polygon, error) {
	out := make(orb.Polygon, len(p))
	for i, r := range p {
		m, err := mapPoints(r, fn)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

// Translate returns a copy of g shifted by (dx, dy).
func Translate(g orb.Geometry, dx, dy float64) orb.Geometry {
	out, _ := Map(g, func(p orb.Point) (orb.Point, error) {
		return orb.Point{p[0] + dx, p[1] + dy}, nil
	})
	return out
}
