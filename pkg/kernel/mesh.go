package kernel

import "math"

// Mesh is a triangle mesh suitable for rendering or OBJ export.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float64 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float64 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`     // scene object name
	Layer    string    `json:"layer"`    // full path of the object's layer
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns vertex i.
func (m *Mesh) Vertex(i uint32) Vec3 {
	return Vec3{m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2]}
}

// AddTriangle appends a triangle with a flat normal. Vertices are not
// shared between triangles.
func (m *Mesh) AddTriangle(a, b, c Vec3) {
	n := b.Sub(a).Cross(c.Sub(a))
	if l := math.Sqrt(n.Dot(n)); l > 1e-12 {
		n = n.Scale(1 / l)
	}
	base := uint32(m.VertexCount())
	for _, v := range [3]Vec3{a, b, c} {
		m.Vertices = append(m.Vertices, v.X, v.Y, v.Z)
		m.Normals = append(m.Normals, n.X, n.Y, n.Z)
	}
	m.Indices = append(m.Indices, base, base+1, base+2)
}

// SurfaceArea returns the summed area of all triangles.
func (m *Mesh) SurfaceArea() float64 {
	var total float64
	for t := 0; t < m.TriangleCount(); t++ {
		a := m.Vertex(m.Indices[t*3])
		b := m.Vertex(m.Indices[t*3+1])
		c := m.Vertex(m.Indices[t*3+2])
		n := b.Sub(a).Cross(c.Sub(a))
		total += math.Sqrt(n.Dot(n)) / 2
	}
	return total
}

// Translate shifts every vertex by d.
func (m *Mesh) Translate(d Vec3) {
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		m.Vertices[i] += d.X
		m.Vertices[i+1] += d.Y
		m.Vertices[i+2] += d.Z
	}
}
