package brep

import (
	"math"

	"github.com/chazu/plinth/pkg/kernel"
)

// Compile-time interface checks.
var _ kernel.Solid = (*Brep)(nil)
var _ kernel.Measured = (*Brep)(nil)

// Face is a planar face. Loops[0] is the outer boundary, counter-clockwise
// about Normal; the remaining loops are holes wound the other way.
type Face struct {
	Loops  [][]kernel.Vec3
	Normal kernel.Vec3
}

func newFace(outer []kernel.Vec3) Face {
	n := vectorArea(outer)
	if l := math.Sqrt(n.Dot(n)); l > 0 {
		n = n.Scale(1 / l)
	}
	return Face{Loops: [][]kernel.Vec3{outer}, Normal: n}
}

// VectorArea returns the area-weighted normal of the face. Holes subtract.
func (f Face) VectorArea() kernel.Vec3 {
	var s kernel.Vec3
	for _, l := range f.Loops {
		s = s.Add(vectorArea(l))
	}
	return s
}

func vectorArea(l []kernel.Vec3) kernel.Vec3 {
	var s kernel.Vec3
	for i := range l {
		s = s.Add(l[i].Cross(l[(i+1)%len(l)]))
	}
	return s.Scale(0.5)
}

// Brep is a set of planar faces. A closed Brep bounds one or more lumps.
type Brep struct {
	Faces []Face
	Lumps int
}

// Append merges o's faces into b as additional lumps.
func (b *Brep) Append(o *Brep) {
	b.Faces = append(b.Faces, o.Faces...)
	b.Lumps += o.Lumps
}

// FaceCount returns the number of faces.
func (b *Brep) FaceCount() int {
	return len(b.Faces)
}

// BoundingBox implements kernel.Geometry.
func (b *Brep) BoundingBox() (min, max [3]float64) {
	var pts []kernel.Vec3
	for _, f := range b.Faces {
		for _, l := range f.Loops {
			pts = append(pts, l...)
		}
	}
	return kernel.Bounds(pts)
}

// Area returns the total face area.
func (b *Brep) Area() float64 {
	var a float64
	for _, f := range b.Faces {
		v := f.VectorArea()
		a += math.Sqrt(v.Dot(v))
	}
	return a
}

// Volume returns the enclosed volume, or 0 for an open surface.
func (b *Brep) Volume() float64 {
	if !b.IsSolid() {
		return 0
	}
	var v float64
	for _, f := range b.Faces {
		v += f.Loops[0][0].Dot(f.VectorArea()) / 3
	}
	return v
}

type edge struct {
	a, b kernel.Vec3
}

// IsSolid reports whether the faces close up: every directed edge is
// matched by the same edge traversed the other way.
func (b *Brep) IsSolid() bool {
	if len(b.Faces) == 0 {
		return false
	}
	count := make(map[edge]int)
	for _, f := range b.Faces {
		for _, l := range f.Loops {
			for i := range l {
				count[edge{l[i], l[(i+1)%len(l)]}]++
			}
		}
	}
	for e, n := range count {
		if count[edge{e.b, e.a}] != n {
			return false
		}
	}
	return true
}

// IsSurface reports whether the Brep is an open surface.
func (b *Brep) IsSurface() bool {
	return len(b.Faces) > 0 && !b.IsSolid()
}

// Mesh tessellates every face.
func (b *Brep) Mesh() *kernel.Mesh {
	m := &kernel.Mesh{}
	for _, f := range b.Faces {
		tessellateFace(m, f)
	}
	return m
}

func tessellateFace(m *kernel.Mesh, f Face) {
	n := f.Normal
	axis := 2
	ax, ay, az := math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z)
	switch {
	case ax >= ay && ax >= az:
		axis = 0
	case ay >= az:
		axis = 1
	}
	project := func(v kernel.Vec3) point {
		switch axis {
		case 0:
			return point{v.Y, v.Z}
		case 1:
			return point{v.Z, v.X}
		}
		return point{v.X, v.Y}
	}

	var (
		pts3  []kernel.Vec3
		pts   []point
		loops [][]int
	)
	for _, l := range f.Loops {
		idx := make([]int, len(l))
		for i, v := range l {
			idx[i] = len(pts3)
			pts3 = append(pts3, v)
			pts = append(pts, project(v))
		}
		loops = append(loops, idx)
	}
	// Mirror so the outer loop runs counter-clockwise in 2D.
	if loopArea(pts, loops[0]) < 0 {
		for i := range pts {
			pts[i].x = -pts[i].x
		}
	}
	for _, t := range triangulate(pts, loops) {
		m.AddTriangle(pts3[t[0]], pts3[t[1]], pts3[t[2]])
	}
}
