//go:build manifold

// Package manifold provides a CGo-based geometry kernel binding to the
// Manifold library (https://github.com/elalish/manifold). Footprints are
// extruded as cross sections, and the result is guaranteed manifold.
//
// This package requires the Manifold C library (manifoldc) to be installed.
// Build with: go build -tags=manifold
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"fmt"
	"math"
	"runtime"
	"unsafe"

	"github.com/chazu/plinth/pkg/kernel"
)

// Compile-time interface checks.
var _ kernel.Kernel = (*ManifoldKernel)(nil)
var _ kernel.Solid = (*manifoldSolid)(nil)

// manifoldSolid wraps a C ManifoldManifold pointer and implements kernel.Solid.
type manifoldSolid struct {
	ptr *C.ManifoldManifold
}

// BoundingBox returns the axis-aligned bounding box of the solid.
func (s *manifoldSolid) BoundingBox() (min, max [3]float64) {
	alloc := C.manifold_alloc_box()
	bbox := C.manifold_bounding_box(alloc, s.ptr)
	defer C.manifold_delete_box(bbox)

	min[0] = float64(C.manifold_box_min_x(bbox))
	min[1] = float64(C.manifold_box_min_y(bbox))
	min[2] = float64(C.manifold_box_min_z(bbox))
	max[0] = float64(C.manifold_box_max_x(bbox))
	max[1] = float64(C.manifold_box_max_y(bbox))
	max[2] = float64(C.manifold_box_max_z(bbox))
	return min, max
}

// newSolid wraps a C ManifoldManifold pointer with a finalizer.
func newSolid(ptr *C.ManifoldManifold) *manifoldSolid {
	s := &manifoldSolid{ptr: ptr}
	runtime.SetFinalizer(s, func(s *manifoldSolid) {
		if s.ptr != nil {
			C.manifold_delete_manifold(s.ptr)
			s.ptr = nil
		}
	})
	return s
}

// ManifoldKernel implements kernel.Kernel using the Manifold C library.
// It models volumes only, so flat footprints are unsupported.
type ManifoldKernel struct{}

// New creates a new ManifoldKernel.
func New() (kernel.Kernel, error) {
	return &ManifoldKernel{}, nil
}

// TrimmedPlane implements kernel.Kernel. Manifold cannot represent an open
// surface.
func (k *ManifoldKernel) TrimmedPlane(outer kernel.Loop, holes []kernel.Loop, z float64) (kernel.Solid, error) {
	return nil, fmt.Errorf("manifold: planar face: %w", kernel.ErrUnsupported)
}

// Extrude implements kernel.Kernel. The outer loop is wound
// counter-clockwise and holes clockwise before extrusion.
func (k *ManifoldKernel) Extrude(outer kernel.Loop, holes []kernel.Loop, from, to float64) (kernel.Solid, error) {
	if to-from <= 1e-12 {
		return nil, fmt.Errorf("manifold: extrusion height %g must be positive", to-from)
	}
	if len(outer) < 3 {
		return nil, fmt.Errorf("manifold: outer loop has %d vertices", len(outer))
	}

	loops := make([]kernel.Loop, 0, 1+len(holes))
	loops = append(loops, wind(outer, true))
	for _, h := range holes {
		if len(h) < 3 {
			return nil, fmt.Errorf("manifold: hole has %d vertices", len(h))
		}
		loops = append(loops, wind(h, false))
	}

	simple := make([]*C.ManifoldSimplePolygon, len(loops))
	for i, l := range loops {
		pts := make([]C.ManifoldVec2, len(l))
		for j, v := range l {
			pts[j] = C.ManifoldVec2{x: C.double(v.X), y: C.double(v.Y)}
		}
		simple[i] = C.manifold_simple_polygon(C.manifold_alloc_simple_polygon(),
			(*C.ManifoldVec2)(unsafe.Pointer(&pts[0])), C.size_t(len(pts)))
	}
	defer func() {
		for _, sp := range simple {
			C.manifold_delete_simple_polygon(sp)
		}
	}()

	// The C array of polygon pointers must not live in Go memory.
	arr := (**C.ManifoldSimplePolygon)(C.malloc(C.size_t(len(simple)) * C.size_t(unsafe.Sizeof(simple[0]))))
	defer C.free(unsafe.Pointer(arr))
	copy(unsafe.Slice(arr, len(simple)), simple)

	polys := C.manifold_polygons(C.manifold_alloc_polygons(), arr, C.size_t(len(simple)))
	defer C.manifold_delete_polygons(polys)

	ptr := C.manifold_extrude(C.manifold_alloc_manifold(), polys,
		C.double(to-from),
		C.int(0),      // slices
		C.double(0),   // twist
		C.double(1.0), // top scale x
		C.double(1.0), // top scale y
	)
	if st := C.manifold_status(ptr); st != C.MANIFOLD_NO_ERROR {
		C.manifold_delete_manifold(ptr)
		return nil, fmt.Errorf("manifold: extrusion failed with status %d", int(st))
	}
	if from != 0 {
		moved := C.manifold_translate(C.manifold_alloc_manifold(), ptr, C.double(0), C.double(0), C.double(from))
		C.manifold_delete_manifold(ptr)
		ptr = moved
	}
	return newSolid(ptr), nil
}

// wind returns l oriented counter-clockwise when ccw is set, clockwise
// otherwise.
func wind(l kernel.Loop, ccw bool) kernel.Loop {
	var a float64
	for i := range l {
		p, q := l[i], l[(i+1)%len(l)]
		a += p.X*q.Y - q.X*p.Y
	}
	if (a > 0) == ccw {
		return l
	}
	out := make(kernel.Loop, len(l))
	for i, v := range l {
		out[len(l)-1-i] = v
	}
	return out
}

// ToMesh extracts a triangle mesh from the solid using Manifold's MeshGL
// format. Vertex positions and normals are interleaved in MeshGL; this
// method separates them into the kernel.Mesh flat-array layout.
func (k *ManifoldKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	ms, ok := s.(*manifoldSolid)
	if !ok {
		return nil, fmt.Errorf("manifold: cannot mesh %T", s)
	}

	meshAlloc := C.manifold_alloc_meshgl()
	meshGL := C.manifold_get_meshgl(meshAlloc, ms.ptr)
	defer C.manifold_delete_meshgl(meshGL)

	numVert := int(C.manifold_meshgl_num_vert(meshGL))
	numTri := int(C.manifold_meshgl_num_tri(meshGL))
	if numVert == 0 || numTri == 0 {
		return &kernel.Mesh{}, nil
	}

	// The first 3 properties are position; normals follow when present.
	numProp := int(C.manifold_meshgl_num_prop(meshGL))
	propData := make([]float32, numVert*numProp)
	C.manifold_meshgl_vert_properties(
		(*C.float)(unsafe.Pointer(&propData[0])),
		meshGL,
	)
	indices := make([]uint32, numTri*3)
	C.manifold_meshgl_tri_verts(
		(*C.uint32_t)(unsafe.Pointer(&indices[0])),
		meshGL,
	)

	m := &kernel.Mesh{
		Vertices: make([]float64, numVert*3),
		Normals:  make([]float64, numVert*3),
		Indices:  indices,
	}
	hasNormals := numProp >= 6
	for i := 0; i < numVert; i++ {
		base := i * numProp
		for j := 0; j < 3; j++ {
			m.Vertices[i*3+j] = float64(propData[base+j])
			if hasNormals {
				m.Normals[i*3+j] = float64(propData[base+3+j])
			}
		}
	}
	if !hasNormals {
		vertexNormals(m)
	}
	return m, nil
}

// vertexNormals averages the face normals incident on each vertex.
func vertexNormals(m *kernel.Mesh) {
	for t := 0; t < m.TriangleCount(); t++ {
		i0, i1, i2 := m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]
		a, b, c := m.Vertex(i0), m.Vertex(i1), m.Vertex(i2)
		n := b.Sub(a).Cross(c.Sub(a))
		for _, idx := range [3]uint32{i0, i1, i2} {
			m.Normals[idx*3] += n.X
			m.Normals[idx*3+1] += n.Y
			m.Normals[idx*3+2] += n.Z
		}
	}
	for i := 0; i+2 < len(m.Normals); i += 3 {
		l := math.Sqrt(m.Normals[i]*m.Normals[i] + m.Normals[i+1]*m.Normals[i+1] + m.Normals[i+2]*m.Normals[i+2])
		if l > 1e-12 {
			m.Normals[i] /= l
			m.Normals[i+1] /= l
			m.Normals[i+2] /= l
		}
	}
}
