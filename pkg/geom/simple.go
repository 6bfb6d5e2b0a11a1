package geom

import (
	"github.com/paulmach/orb"
	sf "github.com/peterstace/simplefeatures/geom"
)

// toSimple converts g into a simplefeatures geometry without validating it.
// Rings are closed on the way.
func toSimple(g orb.Geometry) (sf.Geometry, error) {
	switch t := g.(type) {
	case orb.Point:
		return sf.XY{X: t[0], Y: t[1]}.AsPoint().AsGeometry(), nil
	case orb.MultiPoint:
		pts := make([]sf.Point, len(t))
		for i, p := range t {
			pts[i] = sf.XY{X: p[0], Y: p[1]}.AsPoint()
		}
		return sf.NewMultiPoint(pts).AsGeometry(), nil
	case orb.LineString:
		return sf.NewLineString(sequence(t, false)).AsGeometry(), nil
	case orb.MultiLineString:
		ls := make([]sf.LineString, len(t))
		for i, l := range t {
			ls[i] = sf.NewLineString(sequence(l, false))
		}
		return sf.NewMultiLineString(ls).AsGeometry(), nil
	case orb.Ring:
		return simplePolygon(orb.Polygon{t}).AsGeometry(), nil
	case orb.Polygon:
		return simplePolygon(t).AsGeometry(), nil
	case orb.MultiPolygon:
		return simpleMultiPolygon(t).AsGeometry(), nil
	case orb.Collection:
		gs := make([]sf.Geometry, 0, len(t))
		for _, c := range t {
			sg, err := toSimple(c)
			if err != nil {
				return sf.Geometry{}, err
			}
			gs = append(gs, sg)
		}
		return sf.NewGeometryCollection(gs).AsGeometry(), nil
	}
	return sf.Geometry{}, Unsupported("", g)
}

func simplePolygon(p orb.Polygon) sf.Polygon {
	rings := make([]sf.LineString, len(p))
	for i, r := range p {
		rings[i] = sf.NewLineString(sequence(r, true))
	}
	return sf.NewPolygon(rings)
}

func simpleMultiPolygon(mp orb.MultiPolygon) sf.MultiPolygon {
	polys := make([]sf.Polygon, len(mp))
	for i, p := range mp {
		polys[i] = simplePolygon(p)
	}
	return sf.NewMultiPolygon(polys)
}

func sequence(pts []orb.Point, close bool) sf.Sequence {
	coords := make([]float64, 0, 2*len(pts)+2)
	for _, p := range pts {
		coords = append(coords, p[0], p[1])
	}
	if close && len(pts) > 0 && pts[0] != pts[len(pts)-1] {
		coords = append(coords, pts[0][0], pts[0][1])
	}
	return sf.NewSequence(coords, sf.DimXY)
}

func fromSequence(seq sf.Sequence) orb.Ring {
	n := seq.Length()
	r := make(orb.Ring, n)
	for i := 0; i < n; i++ {
		xy := seq.GetXY(i)
		r[i] = orb.Point{xy.X, xy.Y}
	}
	return r
}
