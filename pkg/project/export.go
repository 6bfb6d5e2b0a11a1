package project

import (
	"fmt"

	"github.com/chazu/plinth/pkg/crs"
	"github.com/chazu/plinth/pkg/feature"
	"github.com/chazu/plinth/pkg/layers"
	"github.com/chazu/plinth/pkg/scene"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// ContextIDField is the identity attribute of street and POI features.
const ContextIDField = "osmid"

// ExportWorld returns the buildings moved back by the offset and
// reprojected into the source system. Each feature carries its object id
// in the "guid" attribute.
func (p *Project) ExportWorld() (*feature.Collection, error) {
	geoms := make([]orb.Geometry, len(p.Buildings))
	for i, b := range p.Buildings {
		geoms[i] = b.Feature.Geometry
	}
	to := p.Source
	if to == nil {
		to = p.Target
	}
	world, err := crs.Denormalize(geoms, p.Offset, p.Target, to)
	if err != nil {
		return nil, fmt.Errorf("project: export: %w", err)
	}
	out := &feature.Collection{CRS: to.Name, Features: make([]*feature.Feature, len(p.Buildings))}
	for i, b := range p.Buildings {
		f := b.Feature.Clone()
		f.Geometry = world[i]
		f.Set("guid", b.ID.String())
		out.Features[i] = f
	}
	return out, nil
}

// AddContext reprojects external features into the project frame and
// resolves each onto the layer at path, creating it if needed. An empty
// path uses the Context layer and an empty idField uses "osmid". The
// first resolver error stops the call.
func (p *Project) AddContext(c *feature.Collection, path, idField string) ([]uuid.UUID, error) {
	if path == "" {
		path = layers.Context
	}
	if idField == "" {
		idField = ContextIDField
	}
	l, err := p.Scene.Layers.AddLayer(path)
	if err != nil {
		return nil, fmt.Errorf("project: context: %w", err)
	}

	src := p.Source
	if c.CRS != "" {
		if src, err = crs.Parse(c.CRS); err != nil {
			return nil, fmt.Errorf("project: context: %w", err)
		}
	}
	if src == nil {
		return nil, fmt.Errorf("project: context: %w", &crs.ProjectionError{Reason: "context features have no reference system"})
	}
	projected, err := crs.Reproject(c.Geometries(), src, p.Target)
	if err != nil {
		return nil, fmt.Errorf("project: context: %w", err)
	}
	centred := crs.Recenter(projected, p.Offset)

	r := scene.NewResolver(p.Scene, p.builder)
	ids := make([]uuid.UUID, 0, len(c.Features))
	for i, f := range c.Features {
		g := f.Clone()
		g.Geometry = centred[i]
		id, err := r.Resolve(g, l, idField)
		if err != nil {
			return ids, fmt.Errorf("project: context row %d: %w", f.Index, err)
		}
		ids = append(ids, id)
	}
	p.logger.Printf("project: added %d context objects on %s", len(ids), l.FullPath)
	return ids, nil
}
