package brep

import (
	"fmt"
	"sort"

	seidel "github.com/osuushi/triangulate"
)

type point struct {
	x, y float64
}

func cross(a, b, c point) float64 {
	return (b.x-a.x)*(c.y-a.y) - (b.y-a.y)*(c.x-a.x)
}

func loopArea(pts []point, loop []int) float64 {
	var a float64
	for i := range loop {
		p, q := pts[loop[i]], pts[loop[(i+1)%len(loop)]]
		a += p.x*q.y - q.x*p.y
	}
	return a / 2
}

// triangulate splits a polygon with holes into triangles. loops[0] is the
// outer boundary and must run counter-clockwise. The result holds index
// triples into pts, counter-clockwise.
//
// Faces go through Seidel's algorithm unless two loops touch, which the
// library does not accept. Those faces, and any the library fails on, are
// ear clipped.
func triangulate(pts []point, loops [][]int) [][3]int {
	if !loopsTouch(pts, loops) {
		if tris, err := trapezoidal(pts, loops); err == nil {
			return tris
		}
	}
	return clipWithHoles(pts, loops)
}

func trapezoidal(pts []point, loops [][]int) (tris [][3]int, err error) {
	defer func() {
		if r := recover(); r != nil {
			tris, err = nil, fmt.Errorf("brep: triangulate: %v", r)
		}
	}()

	index := make(map[*seidel.Point]int, len(pts))
	in := make([][]*seidel.Point, len(loops))
	for i, l := range loops {
		// Holes run clockwise.
		ccw := loopArea(pts, l) > 0
		rev := ccw == (i > 0)
		ps := make([]*seidel.Point, len(l))
		for j, v := range l {
			p := &seidel.Point{X: pts[v].x, Y: pts[v].y}
			index[p] = v
			if rev {
				ps[len(l)-1-j] = p
			} else {
				ps[j] = p
			}
		}
		in[i] = ps
	}
	out, err := seidel.Triangulate(in...)
	if err != nil {
		return nil, err
	}
	tris = make([][3]int, 0, len(out))
	for _, t := range out {
		a, okA := index[t.A]
		b, okB := index[t.B]
		c, okC := index[t.C]
		if !okA || !okB || !okC {
			return nil, fmt.Errorf("brep: triangulate: unknown vertex in %v", t)
		}
		if cross(pts[a], pts[b], pts[c]) < 0 {
			b, c = c, b
		}
		tris = append(tris, [3]int{a, b, c})
	}
	return tris, nil
}

// loopsTouch reports whether a vertex of one loop lies on another loop.
func loopsTouch(pts []point, loops [][]int) bool {
	for i, l := range loops {
		for j, o := range loops {
			if i == j {
				continue
			}
			for _, v := range l {
				for k := range o {
					a, b := pts[o[k]], pts[o[(k+1)%len(o)]]
					if cross(a, b, pts[v]) == 0 && between(a, b, pts[v]) {
						return true
					}
				}
			}
		}
	}
	return false
}

func between(a, b, p point) bool {
	return min(a.x, b.x) <= p.x && p.x <= max(a.x, b.x) && min(a.y, b.y) <= p.y && p.y <= max(a.y, b.y)
}

// clipWithHoles bridges every hole into the outer loop and ear clips the
// result.
func clipWithHoles(pts []point, loops [][]int) [][3]int {
	poly := append([]int(nil), loops[0]...)

	holes := make([][]int, 0, len(loops)-1)
	for _, h := range loops[1:] {
		if loopArea(pts, h) > 0 {
			r := make([]int, len(h))
			for i, v := range h {
				r[len(h)-1-i] = v
			}
			h = r
		}
		holes = append(holes, h)
	}
	sort.SliceStable(holes, func(i, j int) bool {
		return pts[holes[i][rightmost(pts, holes[i])]].x > pts[holes[j][rightmost(pts, holes[j])]].x
	})
	for i, h := range holes {
		poly = bridge(pts, poly, h, holes[i+1:])
	}
	return earClip(pts, poly)
}

func rightmost(pts []point, loop []int) int {
	best := 0
	for i, v := range loop {
		p, b := pts[v], pts[loop[best]]
		if p.x > b.x || (p.x == b.x && p.y < b.y) {
			best = i
		}
	}
	return best
}

// bridge splices hole into poly through the nearest vertex of poly visible
// from the hole's rightmost vertex.
func bridge(pts []point, poly, hole []int, pending [][]int) []int {
	m := rightmost(pts, hole)
	mp := pts[hole[m]]

	cands := make([]int, 0, len(poly))
	for j := range poly {
		if pts[poly[j]].x >= mp.x {
			cands = append(cands, j)
		}
	}
	if len(cands) == 0 {
		for j := range poly {
			cands = append(cands, j)
		}
	}
	dist := func(j int) float64 {
		p := pts[poly[j]]
		return (p.x-mp.x)*(p.x-mp.x) + (p.y-mp.y)*(p.y-mp.y)
	}
	sort.SliceStable(cands, func(a, b int) bool { return dist(cands[a]) < dist(cands[b]) })

	pick := cands[0]
	for _, j := range cands {
		if visible(pts, poly, j, hole, pending, mp) {
			pick = j
			break
		}
	}

	out := make([]int, 0, len(poly)+len(hole)+2)
	out = append(out, poly[:pick+1]...)
	for k := 0; k <= len(hole); k++ {
		out = append(out, hole[(m+k)%len(hole)])
	}
	out = append(out, poly[pick])
	return append(out, poly[pick+1:]...)
}

func visible(pts []point, poly []int, j int, hole []int, pending [][]int, mp point) bool {
	vp := pts[poly[j]]
	if vp == mp {
		return false
	}
	n := len(poly)
	prev, next := pts[poly[(j+n-1)%n]], pts[poly[(j+1)%n]]
	if cross(prev, vp, next) > 0 {
		if !(cross(prev, vp, mp) > 0 && cross(vp, next, mp) > 0) {
			return false
		}
	} else if !(cross(prev, vp, mp) > 0 || cross(vp, next, mp) > 0) {
		return false
	}

	blocked := func(loop []int) bool {
		for i := range loop {
			a, b := pts[loop[i]], pts[loop[(i+1)%len(loop)]]
			if a == vp || b == vp || a == mp || b == mp {
				continue
			}
			if intersects(mp, vp, a, b) {
				return true
			}
		}
		return false
	}
	if blocked(poly) || blocked(hole) {
		return false
	}
	for _, h := range pending {
		if blocked(h) {
			return false
		}
	}
	mid := point{(mp.x + vp.x) / 2, (mp.y + vp.y) / 2}
	return !inLoop(pts, hole, mid)
}

func intersects(p1, p2, q1, q2 point) bool {
	d1, d2 := cross(q1, q2, p1), cross(q1, q2, p2)
	d3, d4 := cross(p1, p2, q1), cross(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && between(q1, q2, p1)) || (d2 == 0 && between(q1, q2, p2)) ||
		(d3 == 0 && between(p1, p2, q1)) || (d4 == 0 && between(p1, p2, q2))
}

func inLoop(pts []point, loop []int, p point) bool {
	in := false
	for i, j := 0, len(loop)-1; i < len(loop); j, i = i, i+1 {
		a, b := pts[loop[i]], pts[loop[j]]
		if (a.y > p.y) != (b.y > p.y) && p.x < (b.x-a.x)*(p.y-a.y)/(b.y-a.y)+a.x {
			in = !in
		}
	}
	return in
}

func inTriangle(p, a, b, c point) bool {
	return cross(a, b, p) >= 0 && cross(b, c, p) >= 0 && cross(c, a, p) >= 0
}

func earClip(pts []point, poly []int) [][3]int {
	idx := append([]int(nil), poly...)
	tris := make([][3]int, 0, len(idx))
	for len(idx) > 3 {
		n := len(idx)
		clipped := false
		for i := 0; i < n; i++ {
			a, b, c := idx[(i+n-1)%n], idx[i], idx[(i+1)%n]
			if isEar(pts, idx, a, b, c) {
				tris = append(tris, [3]int{a, b, c})
				idx = append(idx[:i], idx[i+1:]...)
				clipped = true
				break
			}
		}
		if !clipped {
			// Degenerate remainder: clip anyway so the loop terminates.
			tris = append(tris, [3]int{idx[n-1], idx[0], idx[1]})
			idx = idx[1:]
		}
	}
	if len(idx) == 3 {
		tris = append(tris, [3]int{idx[0], idx[1], idx[2]})
	}
	return tris
}

func isEar(pts []point, idx []int, a, b, c int) bool {
	pa, pb, pc := pts[a], pts[b], pts[c]
	if cross(pa, pb, pc) <= 0 {
		return false
	}
	for _, k := range idx {
		p := pts[k]
		if p == pa || p == pb || p == pc {
			continue
		}
		if inTriangle(p, pa, pb, pc) {
			return false
		}
	}
	return true
}
