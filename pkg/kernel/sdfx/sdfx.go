// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library. Footprints become 2D
// polygon SDFs, holes are subtracted, and the result is extruded. Meshes
// come from marching cubes and so approximate sharp corners.
package sdfx

import (
	"fmt"

	"github.com/chazu/plinth/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// defaultMeshCells controls marching cubes tessellation resolution.
const defaultMeshCells = 200

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{cells: defaultMeshCells}
}

// WithCells returns a kernel that meshes with the given number of marching
// cubes cells along the longest axis.
func WithCells(cells int) *SdfxKernel {
	if cells <= 0 {
		cells = defaultMeshCells
	}
	return &SdfxKernel{cells: cells}
}

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) (sdf.SDF3, error) {
	w, ok := s.(*sdfxSolid)
	if !ok {
		return nil, fmt.Errorf("sdfx: cannot mesh %T", s)
	}
	return w.s, nil
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

func polygon(l kernel.Loop) (sdf.SDF2, error) {
	vs := make([]v2.Vec, len(l))
	for i, p := range l {
		vs[i] = v2.Vec{X: p.X, Y: p.Y}
	}
	return sdf.Polygon2D(vs)
}

// profile returns outer minus holes as a 2D SDF.
func profile(outer kernel.Loop, holes []kernel.Loop) (sdf.SDF2, error) {
	s, err := polygon(outer)
	if err != nil {
		return nil, fmt.Errorf("sdfx: outer profile: %w", err)
	}
	if len(holes) == 0 {
		return s, nil
	}
	cut := make([]sdf.SDF2, 0, len(holes))
	for i, h := range holes {
		hs, err := polygon(h)
		if err != nil {
			return nil, fmt.Errorf("sdfx: inner profile %d: %w", i, err)
		}
		cut = append(cut, hs)
	}
	return sdf.Difference2D(s, sdf.Union2D(cut...)), nil
}

// TrimmedPlane is not supported: an SDF has no zero-thickness faces.
func (k *SdfxKernel) TrimmedPlane(outer kernel.Loop, holes []kernel.Loop, z float64) (kernel.Solid, error) {
	return nil, kernel.ErrUnsupported
}

// Extrude sweeps the profile from elevation from to elevation to.
// sdf.Extrude3D centers the slab on z=0, so it is shifted up by the
// midpoint of the interval.
func (k *SdfxKernel) Extrude(outer kernel.Loop, holes []kernel.Loop, from, to float64) (kernel.Solid, error) {
	if to <= from {
		return nil, fmt.Errorf("sdfx: extrusion interval [%g, %g] is empty", from, to)
	}
	p, err := profile(outer, holes)
	if err != nil {
		return nil, err
	}
	s := sdf.Extrude3D(p, to-from)
	m := sdf.Translate3d(v3.Vec{Z: (from + to) / 2})
	return wrap(sdf.Transform3D(s, m)), nil
}

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	sdf3, err := unwrap(s)
	if err != nil {
		return nil, err
	}

	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(sdf3, renderer)

	numVerts := len(triangles) * 3
	mesh := &kernel.Mesh{
		Vertices: make([]float64, 0, numVerts*3),
		Normals:  make([]float64, 0, numVerts*3),
		Indices:  make([]uint32, 0, numVerts),
	}
	for i, tri := range triangles {
		n := tri.Normal()
		for j := 0; j < 3; j++ {
			v := tri[j]
			mesh.Vertices = append(mesh.Vertices, v.X, v.Y, v.Z)
			mesh.Normals = append(mesh.Normals, n.X, n.Y, n.Z)
			mesh.Indices = append(mesh.Indices, uint32(i*3+j))
		}
	}
	return mesh, nil
}
