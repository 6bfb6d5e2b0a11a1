// Package kernel defines the abstract geometry kernel interface.
// Implementations (brep, sdfx) turn planar loops into trimmed faces and
// extruded solids behind this interface, so the solid builder can swap
// backends without changing the rest of the system.
package kernel

import (
	"errors"
	"math"
)

// ErrUnsupported is returned by a kernel that cannot represent the
// requested shape.
var ErrUnsupported = errors.New("kernel: operation not supported by this kernel")

// Vec2 is a point in the XY plane.
type Vec2 struct {
	X, Y float64
}

// Vec3 is a point or direction in model space.
type Vec3 struct {
	X, Y, Z float64
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Dot returns the dot product.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns the cross product v x o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Loop is an ordered closed boundary in the XY plane. The closing vertex is
// implicit: the last point connects back to the first.
type Loop []Vec2

// Geometry is anything placed in a scene.
type Geometry interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Solid is an opaque handle to a kernel surface or volume.
// Implementations wrap their internal representation.
type Solid interface {
	Geometry
}

// Measured is implemented by solids that can report exact measures.
type Measured interface {
	Volume() float64
	Area() float64
	IsSolid() bool
	IsSurface() bool
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// TrimmedPlane returns a planar face at elevation z bounded by outer,
	// with holes cut out of it.
	TrimmedPlane(outer Loop, holes []Loop, z float64) (Solid, error)

	// Extrude sweeps outer (minus holes) vertically from one elevation to
	// another. to is always greater than from.
	Extrude(outer Loop, holes []Loop, from, to float64) (Solid, error)

	// ToMesh converts a solid produced by this kernel to a triangle mesh.
	ToMesh(s Solid) (*Mesh, error)
}

// Point is a point primitive.
type Point Vec3

// BoundingBox returns the degenerate box around the point.
func (p Point) BoundingBox() (min, max [3]float64) {
	b := [3]float64{p.X, p.Y, p.Z}
	return b, b
}

// Polyline is an open or closed polyline curve.
type Polyline []Vec3

// BoundingBox returns the axis-aligned bounding box of the vertices.
func (pl Polyline) BoundingBox() (min, max [3]float64) {
	return Bounds(pl)
}

// IsClosed reports whether the first and last vertices coincide.
func (pl Polyline) IsClosed() bool {
	return len(pl) > 2 && pl[0] == pl[len(pl)-1]
}

// Length returns the total length of the polyline.
func (pl Polyline) Length() float64 {
	var l float64
	for i := 1; i < len(pl); i++ {
		d := pl[i].Sub(pl[i-1])
		l += math.Sqrt(d.Dot(d))
	}
	return l
}

// Bounds returns the axis-aligned bounding box of a set of points.
func Bounds(pts []Vec3) (min, max [3]float64) {
	if len(pts) == 0 {
		return min, max
	}
	min = [3]float64{pts[0].X, pts[0].Y, pts[0].Z}
	max = min
	for _, p := range pts[1:] {
		c := [3]float64{p.X, p.Y, p.Z}
		for i := 0; i < 3; i++ {
			if c[i] < min[i] {
				min[i] = c[i]
			}
			if c[i] > max[i] {
				max[i] = c[i]
			}
		}
	}
	return min, max
}
