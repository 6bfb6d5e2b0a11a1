package brep

import (
	"fmt"

	"github.com/chazu/plinth/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*BrepKernel)(nil)

// BrepKernel implements kernel.Kernel with exact polyhedral solids.
type BrepKernel struct {
	plane Plane
}

// New returns a BrepKernel working in the world XY plane.
func New() *BrepKernel {
	return &BrepKernel{plane: WorldXY()}
}

// TrimmedPlane returns a single planar face at elevation z facing +Z.
func (k *BrepKernel) TrimmedPlane(outer kernel.Loop, holes []kernel.Loop, z float64) (kernel.Solid, error) {
	if !k.plane.IsValid() {
		return nil, ErrInvalidPlane
	}
	oc := NewPolylineCurve(outer, z)
	if !oc.IsValid() {
		return nil, fmt.Errorf("%w: face boundary", ErrInvalidCurve)
	}
	if oc.SignedArea() < 0 {
		oc = oc.Reversed()
	}
	f := Face{Loops: [][]kernel.Vec3{oc.Points}, Normal: k.plane.Normal}
	for i, h := range holes {
		hc := NewPolylineCurve(h, z)
		if !hc.IsValid() {
			return nil, fmt.Errorf("%w: face hole %d", ErrInvalidCurve, i)
		}
		if hc.SignedArea() > 0 {
			hc = hc.Reversed()
		}
		f.Loops = append(f.Loops, hc.Points)
	}
	return &Brep{Faces: []Face{f}, Lumps: 1}, nil
}

// Extrude sweeps outer minus holes from elevation from to elevation to.
func (k *BrepKernel) Extrude(outer kernel.Loop, holes []kernel.Loop, from, to float64) (kernel.Solid, error) {
	if !k.plane.IsValid() {
		return nil, ErrInvalidPlane
	}
	e := NewExtrusion()
	if err := e.SetOuterProfile(NewPolylineCurve(outer, 0)); err != nil {
		return nil, err
	}
	for _, h := range holes {
		if err := e.AddInnerProfile(NewPolylineCurve(h, 0)); err != nil {
			return nil, err
		}
	}
	path := Line{From: kernel.Vec3{Z: from}, To: kernel.Vec3{Z: to}}
	if err := e.SetPathAndUp(path, k.plane.YAxis); err != nil {
		return nil, err
	}
	return e.ToBrep()
}

// ToMesh tessellates a Brep produced by this kernel.
func (k *BrepKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	b, ok := s.(*Brep)
	if !ok {
		return nil, fmt.Errorf("brep: cannot mesh %T", s)
	}
	return b.Mesh(), nil
}
