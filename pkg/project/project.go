// Package project assembles a scene from building footprints: template
// assignment, filtering, reprojection and recentering, parallel solid
// construction, default settings, layer assignment and the site boundary.
package project

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"strconv"

	"github.com/chazu/plinth/pkg/crs"
	"github.com/chazu/plinth/pkg/feature"
	"github.com/chazu/plinth/pkg/geom"
	"github.com/chazu/plinth/pkg/kernel"
	"github.com/chazu/plinth/pkg/layers"
	"github.com/chazu/plinth/pkg/scene"
	"github.com/chazu/plinth/pkg/solid"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"
)

// ErrNoFeatures is returned, wrapped with the stage, when no feature
// survives a pipeline stage.
var ErrNoFeatures = errors.New("no features left")

// BoundaryName names the site boundary curve.
const BoundaryName = "Convex hull boundary"

// Options configures FromFeatures.
type Options struct {
	// HeightField names the attribute holding the extrusion height.
	HeightField string
	// FIDField names the identifier attribute; empty uses "fid" and falls
	// back to the row index when the attribute is absent.
	FIDField string

	// SourceCRS overrides the collection's reference system.
	SourceCRS string
	// TargetCRS must be cartesian; empty infers a UTM zone.
	TargetCRS string

	// Template assignment, tried in this order: rename TemplateField to
	// TemplateName, look up TemplateMap by the MapToColumns values,
	// evaluate TemplateRules.
	TemplateField string
	TemplateMap   map[string]any
	MapToColumns  []string
	TemplateRules string

	Kernel  kernel.Kernel // nil selects brep
	Ops     geom.Ops      // nil selects geom.Planar
	Workers int           // zero uses GOMAXPROCS

	Logger *log.Logger
	// Progress is called once per built feature, from worker goroutines.
	Progress func()
}

// Building is one registered footprint solid.
type Building struct {
	ID uuid.UUID
	// Feature carries the recentred geometry and the final attributes.
	Feature *feature.Feature
}

// Project is an assembled scene plus the state needed to export it.
type Project struct {
	Scene     *scene.Scene
	Source    *crs.System
	Target    *crs.System
	Offset    crs.Offset
	Buildings []*Building
	Boundary  uuid.UUID

	// Common holds project-wide settings sections.
	Common      map[string]map[string]any
	Diagnostics Diagnostics

	builder *solid.Builder
	ops     geom.Ops
	logger  *log.Logger
}

// FromFeatures builds a project from a footprint collection.
func FromFeatures(ctx context.Context, c *feature.Collection, o Options) (*Project, error) {
	if o.HeightField == "" {
		return nil, errors.New("project: height field is required")
	}
	p := &Project{
		Scene:   scene.New(),
		Common:  make(map[string]map[string]any),
		builder: solid.New(o.Kernel),
		ops:     o.Ops,
		logger:  o.Logger,
	}
	if p.ops == nil {
		p.ops = geom.Planar{}
	}
	if p.logger == nil {
		p.logger = log.Default()
	}
	if c.Len() == 0 {
		return nil, fmt.Errorf("project: input: %w", ErrNoFeatures)
	}

	fs := make([]*feature.Feature, len(c.Features))
	for i, f := range c.Features {
		fs[i] = f.Clone()
	}

	tpl, err := newTemplater(o)
	if err != nil {
		return nil, err
	}
	for _, f := range fs {
		if err := tpl.assign(f); err != nil {
			p.logger.Printf("project: template rule failed for row %d: %v", f.Index, err)
		}
	}

	fs = p.filter(fs, StageInvalid, func(f *feature.Feature) error {
		return geom.Validate(f.Geometry)
	})
	if len(fs) == 0 {
		return nil, fmt.Errorf("project: %s: %w", StageInvalid, ErrNoFeatures)
	}

	fs = p.filter(fs, StageHeight, func(f *feature.Feature) error {
		if _, ok := f.Height(o.HeightField); !ok {
			return fmt.Errorf("missing %s", o.HeightField)
		}
		return nil
	})
	if len(fs) == 0 {
		return nil, fmt.Errorf("project: %s: %w", StageHeight, ErrNoFeatures)
	}

	assignFIDs(fs, o.FIDField)
	fs = feature.Explode(fs)

	if err := p.normalize(fs, c.CRS, o); err != nil {
		return nil, err
	}

	solids, err := p.build(ctx, fs, o)
	if err != nil {
		return nil, err
	}

	for i, f := range fs {
		if solids[i].err != nil {
			p.discard(StageBuild, f, solids[i].err)
			continue
		}
		applyDefaults(f)
		id, err := p.register(f, solids[i].solid)
		if err != nil {
			return nil, err
		}
		p.Buildings = append(p.Buildings, &Building{ID: id, Feature: f})
	}
	p.report(StageBuild, len(p.Buildings))
	if len(p.Buildings) == 0 {
		return nil, fmt.Errorf("project: %s: %w", StageBuild, ErrNoFeatures)
	}

	p.Common["project-settings"] = map[string]any{
		"OriginalProjectedOrigin": []float64{p.Offset.X, p.Offset.Y},
	}

	if err := p.addSiteBoundary(); err != nil {
		return nil, err
	}
	return p, nil
}

// filter keeps the features accepted by check and records the rest.
func (p *Project) filter(fs []*feature.Feature, stage Stage, check func(*feature.Feature) error) []*feature.Feature {
	kept := fs[:0]
	for _, f := range fs {
		if err := check(f); err != nil {
			p.discard(stage, f, err)
			continue
		}
		kept = append(kept, f)
	}
	p.report(stage, len(kept))
	return kept
}

func (p *Project) discard(stage Stage, f *feature.Feature, err error) {
	p.Diagnostics.Discards = append(p.Diagnostics.Discards, Discard{
		Stage:  stage,
		Index:  f.Index,
		Part:   f.Part,
		FID:    f.FID,
		Reason: err.Error(),
	})
}

func (p *Project) report(stage Stage, kept int) {
	idx := p.Diagnostics.Indices(stage)
	if len(idx) == 0 {
		p.logger.Printf("project: %s: %d features kept", stage, kept)
		return
	}
	p.logger.Printf("project: %s: %d entries were ignored: %v", stage, len(idx), idx)
}

// assignFIDs names every feature from field, or from its row index when
// the attribute is absent. The identifier is mirrored into the attributes.
func assignFIDs(fs []*feature.Feature, field string) {
	if field == "" {
		field = DefaultFIDField
	}
	for _, f := range fs {
		if v, ok := f.Attr(field); ok && !feature.IsUnset(v) {
			f.FID = feature.Key(v)
			continue
		}
		f.FID = strconv.Itoa(f.Index)
		f.Set(field, f.Index)
	}
}

func (p *Project) normalize(fs []*feature.Feature, collectionCRS string, o Options) error {
	srcDef := o.SourceCRS
	if srcDef == "" {
		srcDef = collectionCRS
	}
	var src, dst *crs.System
	var err error
	if srcDef != "" {
		if src, err = crs.Parse(srcDef); err != nil {
			return fmt.Errorf("project: source: %w", err)
		}
	}
	if o.TargetCRS != "" {
		if dst, err = crs.Parse(o.TargetCRS); err != nil {
			return fmt.Errorf("project: target: %w", err)
		}
	}

	geoms := make([]orb.Geometry, len(fs))
	for i, f := range fs {
		geoms[i] = f.Geometry
	}
	n, err := crs.Normalizer{Ops: p.ops}.Normalize(geoms, src, dst)
	if err != nil {
		return fmt.Errorf("project: normalize: %w", err)
	}
	for i, f := range fs {
		f.Geometry = n.Centered[i]
	}
	p.Source, p.Target, p.Offset = src, n.Target, n.Offset
	p.logger.Printf("project: projected to %s, recentred by (%.3f, %.3f)", n.Target, n.Offset.X, n.Offset.Y)
	return p.Scene.SetReferenceFrame(n.Target, n.Offset)
}

type built struct {
	solid kernel.Solid
	err   error
}

// build constructs every solid on a bounded worker pool. Per-feature
// failures are returned in the slice; only cancellation fails the call.
func (p *Project) build(ctx context.Context, fs []*feature.Feature, o Options) ([]built, error) {
	workers := o.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]built, len(fs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range fs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			h, _ := f.Height(o.HeightField)
			out[i].solid, out[i].err = p.buildOne(f, h)
			if o.Progress != nil {
				o.Progress()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("project: build: %w", err)
	}
	return out, nil
}

func (p *Project) buildOne(f *feature.Feature, height float64) (kernel.Solid, error) {
	rs, err := geom.ExtractRings(f.Geometry)
	if err != nil {
		var ue *geom.UnsupportedGeometryError
		if errors.As(err, &ue) {
			ue.Identity = f.FID
		}
		return nil, err
	}
	return p.builder.BuildRings(rs, 0, height)
}

// register adds a building solid on Buildings when it has a template and
// on Shading otherwise, named from its identifier.
func (p *Project) register(f *feature.Feature, s kernel.Solid) (uuid.UUID, error) {
	path := layers.Shading
	if v, ok := f.Attr(TemplateName); ok && !feature.IsUnset(v) {
		path = layers.Buildings
	}
	l := p.Scene.Layers.FindByFullPath(path)
	attrs := scene.Attributes{LayerID: l.ID, Name: f.FID}
	for k, v := range f.Attributes {
		attrs.SetUserString(k, userString(v))
	}
	id, err := p.Scene.AddBrep(s, attrs)
	if err != nil {
		return uuid.Nil, fmt.Errorf("project: register row %d: %w", f.Index, err)
	}
	return id, nil
}

func userString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	}
	return feature.Key(v)
}

// addSiteBoundary outlines the convex hull of every building footprint.
func (p *Project) addSiteBoundary() error {
	geoms := make([]orb.Geometry, len(p.Buildings))
	for i, b := range p.Buildings {
		geoms[i] = b.Feature.Geometry
	}
	hull, err := p.ops.ConvexHull(geoms)
	if err != nil {
		return fmt.Errorf("project: site boundary: %w", err)
	}
	pl := make(kernel.Polyline, len(hull))
	for i, pt := range hull {
		pl[i] = kernel.Vec3{X: pt[0], Y: pt[1]}
	}
	l := p.Scene.Layers.FindByFullPath(layers.SiteBoundary)
	id, err := p.Scene.AddCurve(pl, scene.Attributes{LayerID: l.ID, Name: BoundaryName})
	if err != nil {
		return fmt.Errorf("project: site boundary: %w", err)
	}
	p.Boundary = id
	return nil
}

// Builder returns the solid builder the project was assembled with.
func (p *Project) Builder() *solid.Builder {
	return p.builder
}
