package geom

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// InvalidGeometryError reports why a geometry failed validation.
type InvalidGeometryError struct {
	Type   string
	Reason string
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("geom: invalid %s: %s", e.Type, e.Reason)
}

func invalid(g orb.Geometry, format string, args ...any) error {
	return &InvalidGeometryError{Type: TypeName(g), Reason: fmt.Sprintf(format, args...)}
}

// Validate checks that g is valid in the OGC simple features sense. Rings
// may touch each other at isolated points, polygon parts may meet at
// corners but not along edges. It does not repair anything. Types outside
// the handled set return an *UnsupportedGeometryError.
func Validate(g orb.Geometry) error {
	switch t := g.(type) {
	case orb.Point:
		if !finite(t) {
			return invalid(g, "non-finite coordinate")
		}
	case orb.LineString:
		if len(t) < 2 {
			return invalid(g, "fewer than two points")
		}
		for _, p := range t {
			if !finite(p) {
				return invalid(g, "non-finite coordinate")
			}
		}
	case orb.Polygon:
		return validatePolygon(t)
	case orb.MultiPolygon:
		if len(t) == 0 {
			return invalid(g, "no polygons")
		}
		for i, p := range t {
			if err := validatePolygon(p); err != nil {
				return fmt.Errorf("part %d: %w", i, err)
			}
		}
		parts := make(orb.MultiPolygon, len(t))
		for i, p := range t {
			parts[i] = cleanPolygon(p)
		}
		if err := simpleMultiPolygon(parts).Validate(); err != nil {
			return invalid(g, "%v", err)
		}
	default:
		return Unsupported("", g)
	}
	return nil
}

// validatePolygon rejects degenerate rings with a specific reason before
// handing the ring topology to simplefeatures.
func validatePolygon(p orb.Polygon) error {
	if len(p) == 0 {
		return invalid(p, "no rings")
	}
	for i, r := range p {
		for _, pt := range r {
			if !finite(pt) {
				return invalid(p, "non-finite coordinate in ring %d", i)
			}
		}
		c := CleanRing(r)
		if len(c) < 3 {
			return invalid(p, "ring %d has fewer than three distinct vertices", i)
		}
		if SignedArea(c) == 0 {
			return invalid(p, "ring %d has zero area", i)
		}
	}
	if err := simplePolygon(cleanPolygon(p)).Validate(); err != nil {
		return invalid(p, "%v", err)
	}
	return nil
}

func cleanPolygon(p orb.Polygon) orb.Polygon {
	out := make(orb.Polygon, len(p))
	for i, r := range p {
		out[i] = CleanRing(r)
	}
	return out
}

func finite(p orb.Point) bool {
	return !math.IsNaN(p[0]) && !math.IsInf(p[0], 0) && !math.IsNaN(p[1]) && !math.IsInf(p[1], 0)
}
