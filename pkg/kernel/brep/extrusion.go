package brep

import (
	"fmt"
	"math"

	"github.com/chazu/plinth/pkg/kernel"
)

// Extrusion sweeps an outer profile, minus any inner profiles, along a
// straight path. Profiles are read in the XY plane; their elevation is
// replaced by the path end points.
type Extrusion struct {
	outer *PolylineCurve
	inner []*PolylineCurve
	path  Line
	up    kernel.Vec3
	ready bool
}

// NewExtrusion returns an empty extrusion.
func NewExtrusion() *Extrusion {
	return &Extrusion{}
}

// SetOuterProfile sets the boundary profile.
func (e *Extrusion) SetOuterProfile(c *PolylineCurve) error {
	if !c.IsValid() {
		return fmt.Errorf("%w: outer profile", ErrInvalidCurve)
	}
	e.outer = c
	return nil
}

// AddInnerProfile adds a hole profile. The outer profile must be set first.
func (e *Extrusion) AddInnerProfile(c *PolylineCurve) error {
	if e.outer == nil {
		return ErrNoProfile
	}
	if !c.IsValid() {
		return fmt.Errorf("%w: inner profile %d", ErrInvalidCurve, len(e.inner))
	}
	e.inner = append(e.inner, c)
	return nil
}

// InnerProfiles returns the number of holes.
func (e *Extrusion) InnerProfiles() int {
	return len(e.inner)
}

// SetPathAndUp sets the sweep path and the profile up direction, which
// must be perpendicular to the path.
func (e *Extrusion) SetPathAndUp(path Line, up kernel.Vec3) error {
	if !path.IsValid() {
		return ErrInvalidPath
	}
	d := path.Direction()
	ul := math.Sqrt(up.Dot(up))
	if ul < Tolerance {
		return fmt.Errorf("%w: zero up vector", ErrInvalidPath)
	}
	if math.Abs(d.Dot(up))/(path.Length()*ul) > 1e-9 {
		return fmt.Errorf("%w: up vector not perpendicular to path", ErrInvalidPath)
	}
	if math.Abs(d.X) > Tolerance || math.Abs(d.Y) > Tolerance {
		return fmt.Errorf("%w: only vertical paths are supported", ErrInvalidPath)
	}
	e.path = path
	e.up = up
	e.ready = true
	return nil
}

// ToBrep converts the extrusion to a closed boundary representation with
// outward-facing faces: bottom cap, top cap and one wall per profile edge.
func (e *Extrusion) ToBrep() (*Brep, error) {
	if e.outer == nil {
		return nil, ErrNoProfile
	}
	if !e.ready {
		return nil, ErrInvalidPath
	}
	lo, hi := e.path.From.Z, e.path.To.Z
	if lo > hi {
		lo, hi = hi, lo
	}

	outer := e.outer
	if outer.SignedArea() < 0 {
		outer = outer.Reversed()
	}
	loops := [][]kernel.Vec3{outer.Points}
	for _, h := range e.inner {
		if h.SignedArea() > 0 {
			h = h.Reversed()
		}
		loops = append(loops, h.Points)
	}

	b := &Brep{Lumps: 1}
	bottom := Face{Normal: kernel.Vec3{Z: -1}}
	top := Face{Normal: kernel.Vec3{Z: 1}}
	for _, l := range loops {
		bottom.Loops = append(bottom.Loops, reverse(at(l, lo)))
		top.Loops = append(top.Loops, at(l, hi))
	}
	b.Faces = append(b.Faces, bottom, top)

	for _, l := range loops {
		n := len(l)
		for i := 0; i < n; i++ {
			a, c := l[i], l[(i+1)%n]
			a0 := kernel.Vec3{X: a.X, Y: a.Y, Z: lo}
			b0 := kernel.Vec3{X: c.X, Y: c.Y, Z: lo}
			b1 := kernel.Vec3{X: c.X, Y: c.Y, Z: hi}
			a1 := kernel.Vec3{X: a.X, Y: a.Y, Z: hi}
			b.Faces = append(b.Faces, newFace([]kernel.Vec3{a0, b0, b1, a1}))
		}
	}
	return b, nil
}

func at(l []kernel.Vec3, z float64) []kernel.Vec3 {
	out := make([]kernel.Vec3, len(l))
	for i, p := range l {
		out[i] = kernel.Vec3{X: p.X, Y: p.Y, Z: z}
	}
	return out
}

func reverse(l []kernel.Vec3) []kernel.Vec3 {
	out := make([]kernel.Vec3, len(l))
	for i, p := range l {
		out[len(l)-1-i] = p
	}
	return out
}
