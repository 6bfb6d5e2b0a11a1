package sdfx

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/plinth/pkg/kernel"
)

func rect(x, y, w, h float64) kernel.Loop {
	return kernel.Loop{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}}
}

func TestExtrudeBoundingBox(t *testing.T) {
	k := New()
	s, err := k.Extrude(rect(0, 0, 100, 50), nil, 0, 25)
	if err != nil {
		t.Fatalf("Extrude() error = %v", err)
	}
	min, max := s.BoundingBox()

	const tol = 0.01
	expectMin := [3]float64{0, 0, 0}
	expectMax := [3]float64{100, 50, 25}
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-expectMin[i]) > tol {
			t.Errorf("min[%d] = %f, expected %f", i, min[i], expectMin[i])
		}
		if math.Abs(max[i]-expectMax[i]) > tol {
			t.Errorf("max[%d] = %f, expected %f", i, max[i], expectMax[i])
		}
	}
}

func TestExtrudeRaised(t *testing.T) {
	k := New()
	s, err := k.Extrude(rect(-5, -5, 10, 10), nil, 10, 13)
	if err != nil {
		t.Fatalf("Extrude() error = %v", err)
	}
	min, max := s.BoundingBox()
	if math.Abs(min[2]-10) > 0.01 || math.Abs(max[2]-13) > 0.01 {
		t.Errorf("z range = [%f, %f], want [10, 13]", min[2], max[2])
	}
}

func TestExtrudeToMesh(t *testing.T) {
	k := WithCells(40)
	s, err := k.Extrude(rect(0, 0, 10, 10), nil, 0, 3)
	if err != nil {
		t.Fatalf("Extrude() error = %v", err)
	}
	mesh, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	triCount := mesh.TriangleCount()
	if triCount == 0 {
		t.Fatal("expected non-zero triangle count")
	}
	// Verify vertex and index array sizes are consistent.
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != triCount*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), triCount*3)
	}
}

func TestExtrudeWithHoleHasMoreTriangles(t *testing.T) {
	k := WithCells(40)
	plain, err := k.Extrude(rect(0, 0, 20, 20), nil, 0, 20)
	if err != nil {
		t.Fatalf("Extrude(plain) error = %v", err)
	}
	holed, err := k.Extrude(rect(0, 0, 20, 20), []kernel.Loop{rect(6, 6, 8, 8)}, 0, 20)
	if err != nil {
		t.Fatalf("Extrude(holed) error = %v", err)
	}
	pm, err := k.ToMesh(plain)
	if err != nil {
		t.Fatalf("ToMesh(plain) failed: %v", err)
	}
	hm, err := k.ToMesh(holed)
	if err != nil {
		t.Fatalf("ToMesh(holed) failed: %v", err)
	}
	if hm.TriangleCount() <= pm.TriangleCount() {
		t.Fatalf("holed (%d triangles) should have more triangles than plain (%d triangles)",
			hm.TriangleCount(), pm.TriangleCount())
	}
}

func TestTrimmedPlaneUnsupported(t *testing.T) {
	k := New()
	_, err := k.TrimmedPlane(rect(0, 0, 1, 1), nil, 0)
	if !errors.Is(err, kernel.ErrUnsupported) {
		t.Errorf("TrimmedPlane() error = %v, want ErrUnsupported", err)
	}
}

func TestExtrudeEmptyInterval(t *testing.T) {
	k := New()
	if _, err := k.Extrude(rect(0, 0, 1, 1), nil, 2, 2); err == nil {
		t.Error("Extrude() with empty interval returned nil error")
	}
}
