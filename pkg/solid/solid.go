// Package solid turns ring sets and elevation intervals into kernel
// solids: a planar trimmed face when the interval is empty, an extruded
// volume otherwise. Construction failures are returned as *BuildError so
// callers can drop the feature and keep going.
package solid

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/plinth/pkg/geom"
	"github.com/chazu/plinth/pkg/kernel"
	"github.com/chazu/plinth/pkg/kernel/brep"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Epsilon is the absolute tolerance for elevation and length comparisons.
const Epsilon = 1e-12

// Construction steps named in a BuildError.
const (
	StepOuterProfile = "outer profile"
	StepInnerProfile = "inner profile"
	StepPath         = "sweep path"
	StepPlane        = "reference plane"
	StepFace         = "trimmed face"
	StepExtrusion    = "extrusion"
	StepRings        = "rings"
)

// BuildError reports which construction step failed.
type BuildError struct {
	Step   string
	Reason string
	Err    error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("solid: %s: %s", e.Step, e.Reason)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

func fail(step string, err error, format string, args ...any) *BuildError {
	return &BuildError{Step: step, Reason: fmt.Sprintf(format, args...), Err: err}
}

// Builder builds solids through a kernel.
type Builder struct {
	k kernel.Kernel
}

// New returns a Builder over k. A nil kernel selects the brep kernel.
func New(k kernel.Kernel) *Builder {
	if k == nil {
		k = brep.New()
	}
	return &Builder{k: k}
}

// Kernel returns the kernel solids are built with.
func (b *Builder) Kernel() kernel.Kernel {
	return b.k
}

// IsFlat reports whether the interval collapses to a surface.
func IsFlat(from, to float64) bool {
	return to-from <= Epsilon
}

// Build returns a trimmed face at from when to-from <= Epsilon, and an
// extrusion over [from, to] otherwise. A positive interval always extrudes
// upward. Both paths take the full exterior ring; a closing duplicate
// vertex is dropped before the kernel sees it.
func (b *Builder) Build(exterior orb.Ring, interiors []orb.Ring, from, to float64) (kernel.Solid, error) {
	if math.IsNaN(from) || math.IsNaN(to) || math.IsInf(from, 0) || math.IsInf(to, 0) {
		return nil, fail(StepPath, nil, "non-finite elevation [%v, %v]", from, to)
	}
	if to < from {
		return nil, fail(StepPath, nil, "elevation interval [%g, %g] is inverted", from, to)
	}

	outer, err := loop(exterior)
	if err != nil {
		return nil, fail(StepOuterProfile, err, "%v", err)
	}
	holes := make([]kernel.Loop, 0, len(interiors))
	for i, r := range interiors {
		h, err := loop(r)
		if err != nil {
			return nil, fail(StepInnerProfile, err, "ring %d: %v", i, err)
		}
		holes = append(holes, h)
	}

	if IsFlat(from, to) {
		s, err := b.k.TrimmedPlane(outer, holes, from)
		if err != nil {
			return nil, fail(StepFace, err, "%v", err)
		}
		return s, nil
	}

	s, err := b.k.Extrude(outer, holes, from, to)
	if err != nil {
		step := StepExtrusion
		switch {
		case errors.Is(err, brep.ErrInvalidPath):
			step = StepPath
		case errors.Is(err, brep.ErrInvalidPlane):
			step = StepPlane
		case errors.Is(err, brep.ErrInvalidCurve):
			step = StepOuterProfile
		}
		return nil, fail(step, err, "%v", err)
	}
	return s, nil
}

// BuildRings builds every exterior of rs with the interiors it contains.
// Multiple exteriors produce a multi-lump solid when the kernel supports
// merging (brep); other kernels fail for more than one exterior.
func (b *Builder) BuildRings(rs geom.Rings, from, to float64) (kernel.Solid, error) {
	if len(rs.Exteriors) == 0 {
		return nil, fail(StepRings, nil, "no exterior ring")
	}
	groups := assignHoles(rs)

	var out kernel.Solid
	for i, ext := range rs.Exteriors {
		s, err := b.Build(ext, groups[i], from, to)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = s
			continue
		}
		acc, ok := out.(*brep.Brep)
		part, ok2 := s.(*brep.Brep)
		if !ok || !ok2 {
			return nil, fail(StepRings, kernel.ErrUnsupported, "kernel %T cannot merge %d parts", b.k, len(rs.Exteriors))
		}
		acc.Append(part)
	}
	return out, nil
}

// assignHoles gives each interior to the first exterior containing it.
// Interiors inside no exterior are dropped.
func assignHoles(rs geom.Rings) [][]orb.Ring {
	groups := make([][]orb.Ring, len(rs.Exteriors))
	for _, h := range rs.Interiors {
		c := geom.CleanRing(h)
		if len(c) == 0 {
			continue
		}
		for i, ext := range rs.Exteriors {
			if planar.RingContains(closedRing(ext), c[0]) {
				groups[i] = append(groups[i], h)
				break
			}
		}
	}
	return groups
}

func closedRing(r orb.Ring) orb.Ring {
	if len(r) > 0 && r[0] != r[len(r)-1] {
		return append(append(orb.Ring{}, r...), r[0])
	}
	return r
}

func loop(r orb.Ring) (kernel.Loop, error) {
	c := geom.CleanRing(r)
	if len(c) < 3 {
		return nil, fmt.Errorf("ring has %d distinct vertices, need at least 3", len(c))
	}
	l := make(kernel.Loop, len(c))
	for i, p := range c {
		l[i] = kernel.Vec2{X: p[0], Y: p[1]}
	}
	return l, nil
}
