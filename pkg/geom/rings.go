// Package geom holds the planar geometry operations that run before any
// solid is built: ring extraction, validity checks, centroids and hulls.
package geom

import (
	"fmt"

	"github.com/paulmach/orb"
)

// UnsupportedGeometryError reports a geometry type outside the handled set
// (Point, LineString, Polygon, MultiPolygon).
type UnsupportedGeometryError struct {
	Identity string // feature id, empty when unknown
	Type     string
}

func (e *UnsupportedGeometryError) Error() string {
	if e.Identity == "" {
		return fmt.Sprintf("geom: unsupported geometry type %q", e.Type)
	}
	return fmt.Sprintf("geom: unsupported geometry type %q for feature %q", e.Type, e.Identity)
}

// Unsupported builds an UnsupportedGeometryError for g.
func Unsupported(identity string, g orb.Geometry) *UnsupportedGeometryError {
	return &UnsupportedGeometryError{Identity: identity, Type: TypeName(g)}
}

// TypeName returns the GeoJSON type of g, or "nil".
func TypeName(g orb.Geometry) string {
	if g == nil {
		return "nil"
	}
	return g.GeoJSONType()
}

// Rings is the flat ring decomposition of a polygonal geometry. Part
// boundaries of a MultiPolygon are not kept.
type Rings struct {
	Exteriors []orb.Ring
	Interiors []orb.Ring
}

// ExtractRings decomposes a Polygon or MultiPolygon into its exterior and
// interior rings, in stored order and winding.
func ExtractRings(g orb.Geometry) (Rings, error) {
	var r Rings
	switch t := g.(type) {
	case orb.Polygon:
		if len(t) == 0 {
			return r, nil
		}
		r.Exteriors = append(r.Exteriors, t[0])
		r.Interiors = append(r.Interiors, t[1:]...)
	case orb.MultiPolygon:
		for _, p := range t {
			pr, err := ExtractRings(p)
			if err != nil {
				return Rings{}, err
			}
			r.Exteriors = append(r.Exteriors, pr.Exteriors...)
			r.Interiors = append(r.Interiors, pr.Interiors...)
		}
	default:
		return Rings{}, Unsupported("", g)
	}
	return r, nil
}

// CleanRing drops the closing duplicate vertex and consecutive repeated
// vertices. The result is an open ring.
func CleanRing(r orb.Ring) orb.Ring {
	out := make(orb.Ring, 0, len(r))
	for _, p := range r {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

// SignedArea returns the shoelace area of r, positive for counter-clockwise
// rings. The closing vertex may be present or implicit.
func SignedArea(r orb.Ring) float64 {
	n := len(r)
	if n < 3 {
		return 0
	}
	var a float64
	for i := 0; i < n; i++ {
		p, q := r[i], r[(i+1)%n]
		a += p[0]*q[1] - q[0]*p[1]
	}
	return a / 2
}
