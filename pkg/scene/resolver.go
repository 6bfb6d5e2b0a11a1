package scene

import (
	"fmt"

	"github.com/chazu/plinth/pkg/feature"
	"github.com/chazu/plinth/pkg/geom"
	"github.com/chazu/plinth/pkg/kernel"
	"github.com/chazu/plinth/pkg/layers"
	"github.com/chazu/plinth/pkg/solid"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// ColorAttribute is the feature attribute read for polygon colors.
const ColorAttribute = "color"

// DefaultColor is assigned to polygons without a color attribute.
var DefaultColor = layers.Color{R: 205, G: 247, B: 201, A: 255}

// Resolver turns features into scene objects.
type Resolver struct {
	Scene   *Scene
	Builder *solid.Builder
}

// NewResolver returns a resolver adding to s, building surfaces with b.
// A nil builder uses the default kernel.
func NewResolver(s *Scene, b *solid.Builder) *Resolver {
	if b == nil {
		b = solid.New(nil)
	}
	return &Resolver{Scene: s, Builder: b}
}

// Resolve adds f to the scene on layer and returns its handle. The object
// is named from the idField attribute, falling back to the feature's FID.
// Points and lines sit at elevation 0; polygons become flat faces.
func (r *Resolver) Resolve(f *feature.Feature, layer *layers.Layer, idField string) (uuid.UUID, error) {
	if layer == nil {
		return uuid.Nil, fmt.Errorf("scene: resolve %s: nil layer", identity(f, idField))
	}
	attrs := Attributes{
		LayerID: layer.ID,
		Name:    identity(f, idField),
	}

	switch g := f.Geometry.(type) {
	case orb.Point:
		return r.Scene.AddPoint(kernel.Point{X: g[0], Y: g[1], Z: 0}, attrs)

	case orb.LineString:
		pl := make(kernel.Polyline, len(g))
		for i, p := range g {
			pl[i] = kernel.Vec3{X: p[0], Y: p[1], Z: 0}
		}
		return r.Scene.AddCurve(pl, attrs)

	case orb.Polygon, orb.MultiPolygon:
		rs, err := geom.ExtractRings(g)
		if err != nil {
			return uuid.Nil, err
		}
		s, err := r.Builder.BuildRings(rs, 0, 0)
		if err != nil {
			return uuid.Nil, fmt.Errorf("scene: resolve %s: %w", attrs.Name, err)
		}
		attrs.Color = DefaultColor
		if v, ok := f.Attr(ColorAttribute); ok && !feature.IsUnset(v) {
			c, err := layers.ParseColor(v)
			if err != nil {
				return uuid.Nil, fmt.Errorf("scene: resolve %s: %w", attrs.Name, err)
			}
			attrs.Color = c
		}
		attrs.ColorFromObject = true
		return r.Scene.AddBrep(s, attrs)
	}
	return uuid.Nil, geom.Unsupported(identity(f, idField), f.Geometry)
}

func identity(f *feature.Feature, idField string) string {
	if idField != "" {
		if v, ok := f.Attr(idField); ok && !feature.IsUnset(v) {
			return feature.Key(v)
		}
	}
	if f.FID != "" {
		return f.FID
	}
	return fmt.Sprint(f.Index)
}
