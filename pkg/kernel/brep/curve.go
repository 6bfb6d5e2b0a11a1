// Package brep implements kernel.Kernel with an exact polyhedral boundary
// representation. Solids are built the way a CAD extrusion is: a planar
// outer profile, optional inner profiles, and a straight sweep path.
package brep

import (
	"errors"
	"math"

	"github.com/chazu/plinth/pkg/kernel"
)

// Tolerance is the absolute length below which curves and paths are
// degenerate.
const Tolerance = 1e-12

var (
	ErrInvalidCurve = errors.New("brep: invalid profile curve")
	ErrInvalidPath  = errors.New("brep: invalid sweep path")
	ErrInvalidPlane = errors.New("brep: invalid reference plane")
	ErrNoProfile    = errors.New("brep: extrusion has no outer profile")
)

// Plane is an oriented plane with an orthonormal frame.
type Plane struct {
	Origin kernel.Vec3
	XAxis  kernel.Vec3
	YAxis  kernel.Vec3
	Normal kernel.Vec3
}

// WorldXY returns the XY plane through the origin, normal +Z.
func WorldXY() Plane {
	return Plane{
		XAxis:  kernel.Vec3{X: 1},
		YAxis:  kernel.Vec3{Y: 1},
		Normal: kernel.Vec3{Z: 1},
	}
}

// IsValid reports whether the axes are unit length and mutually orthogonal.
func (p Plane) IsValid() bool {
	unit := func(v kernel.Vec3) bool { return math.Abs(v.Dot(v)-1) < 1e-9 }
	if !unit(p.XAxis) || !unit(p.YAxis) || !unit(p.Normal) {
		return false
	}
	return math.Abs(p.XAxis.Dot(p.YAxis)) < 1e-9 &&
		math.Abs(p.XAxis.Dot(p.Normal)) < 1e-9 &&
		math.Abs(p.YAxis.Dot(p.Normal)) < 1e-9
}

// Line is a straight segment.
type Line struct {
	From, To kernel.Vec3
}

// Direction returns To - From.
func (l Line) Direction() kernel.Vec3 {
	return l.To.Sub(l.From)
}

// Length returns the segment length.
func (l Line) Length() float64 {
	d := l.Direction()
	return math.Sqrt(d.Dot(d))
}

// IsValid reports whether both ends are finite and the line is longer than
// Tolerance.
func (l Line) IsValid() bool {
	return finite3(l.From) && finite3(l.To) && l.Length() > Tolerance
}

// PolylineCurve is a closed planar polyline. The closing segment from the
// last point back to the first is implicit.
type PolylineCurve struct {
	Points []kernel.Vec3
}

// NewPolylineCurve lifts a loop onto the plane z = elevation.
func NewPolylineCurve(loop kernel.Loop, elevation float64) *PolylineCurve {
	pts := make([]kernel.Vec3, len(loop))
	for i, p := range loop {
		pts[i] = kernel.Vec3{X: p.X, Y: p.Y, Z: elevation}
	}
	return &PolylineCurve{Points: pts}
}

// IsValid reports whether the curve has at least three finite, distinct
// consecutive points, lies in a horizontal plane and encloses area.
func (c *PolylineCurve) IsValid() bool {
	if c == nil || len(c.Points) < 3 {
		return false
	}
	z := c.Points[0].Z
	for i, p := range c.Points {
		if !finite3(p) || p.Z != z {
			return false
		}
		if p == c.Points[(i+1)%len(c.Points)] {
			return false
		}
	}
	return math.Abs(c.SignedArea()) > Tolerance
}

// SignedArea returns the area enclosed in the XY projection, positive when
// counter-clockwise seen from +Z.
func (c *PolylineCurve) SignedArea() float64 {
	var a float64
	n := len(c.Points)
	for i := 0; i < n; i++ {
		p, q := c.Points[i], c.Points[(i+1)%n]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}

// Reversed returns the curve traversed in the opposite direction.
func (c *PolylineCurve) Reversed() *PolylineCurve {
	out := make([]kernel.Vec3, len(c.Points))
	for i, p := range c.Points {
		out[len(out)-1-i] = p
	}
	return &PolylineCurve{Points: out}
}

// BoundingBox implements kernel.Geometry.
func (c *PolylineCurve) BoundingBox() (min, max [3]float64) {
	return kernel.Bounds(c.Points)
}

func finite3(v kernel.Vec3) bool {
	for _, x := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
