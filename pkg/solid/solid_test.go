package solid

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/plinth/pkg/geom"
	"github.com/chazu/plinth/pkg/kernel"
	"github.com/chazu/plinth/pkg/kernel/sdfx"
	"github.com/paulmach/orb"
)

func square(x, y, s float64) orb.Ring {
	return orb.Ring{{x, y}, {x + s, y}, {x + s, y + s}, {x, y + s}, {x, y}}
}

func measured(t *testing.T, s kernel.Solid) kernel.Measured {
	t.Helper()
	m, ok := s.(kernel.Measured)
	if !ok {
		t.Fatalf("solid %T does not report measures", s)
	}
	return m
}

func TestBuildVolumeIsAreaTimesHeight(t *testing.T) {
	tri := orb.Ring{{0, 0}, {6, 0}, {0, 4}, {0, 0}}
	tests := []struct {
		name  string
		ext   orb.Ring
		holes []orb.Ring
		h     float64
		want  float64
	}{
		{"square", square(0, 0, 10), nil, 3, 300},
		{"triangle", tri, nil, 2.5, 30},
		{"open ring", orb.Ring{{0, 0}, {4, 0}, {4, 4}, {0, 4}}, nil, 1, 16},
		{"courtyard", square(0, 0, 10), []orb.Ring{square(4, 4, 2)}, 3, (100 - 4) * 3},
	}
	b := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := b.Build(tt.ext, tt.holes, 0, tt.h)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			m := measured(t, s)
			if !m.IsSolid() {
				t.Error("IsSolid() = false")
			}
			if got := m.Volume(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Volume() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestPositiveHeightExtrudesUpward(t *testing.T) {
	b := New(nil)
	s, err := b.Build(square(0, 0, 1), nil, 0, 5)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	min, max := s.BoundingBox()
	if min[2] != 0 || max[2] != 5 {
		t.Errorf("z range = [%v, %v], want [0, 5]", min[2], max[2])
	}
	if v := measured(t, s).Volume(); v <= 0 {
		t.Errorf("Volume() = %f, want positive", v)
	}

	// The same holds with the sdfx kernel, whose slabs are centred on z=0.
	ss, err := New(sdfx.New()).Build(square(0, 0, 1), nil, 0, 5)
	if err != nil {
		t.Fatalf("sdfx Build() error = %v", err)
	}
	min, max = ss.BoundingBox()
	if math.Abs(min[2]) > 0.01 || math.Abs(max[2]-5) > 0.01 {
		t.Errorf("sdfx z range = [%v, %v], want [0, 5]", min[2], max[2])
	}
}

func TestInvertedIntervalFails(t *testing.T) {
	_, err := New(nil).Build(square(0, 0, 1), nil, 5, 0)
	var be *BuildError
	if !errors.As(err, &be) || be.Step != StepPath {
		t.Errorf("Build() error = %v, want BuildError at %q", err, StepPath)
	}
}

func TestFlatIntervalBuildsFace(t *testing.T) {
	b := New(nil)
	for _, to := range []float64{0, 1e-13} {
		s, err := b.Build(square(0, 0, 10), []orb.Ring{square(2, 2, 2)}, 0, to)
		if err != nil {
			t.Fatalf("Build(to=%g) error = %v", to, err)
		}
		m := measured(t, s)
		if m.IsSolid() || !m.IsSurface() {
			t.Errorf("to=%g: IsSolid = %v, IsSurface = %v, want planar face", to, m.IsSolid(), m.IsSurface())
		}
		// Every corner is kept: full area minus the hole.
		if got := m.Area(); math.Abs(got-96) > 1e-9 {
			t.Errorf("to=%g: Area() = %f, want 96", to, got)
		}
	}
}

func TestBuildFailures(t *testing.T) {
	tests := []struct {
		name  string
		ext   orb.Ring
		holes []orb.Ring
		from  float64
		to    float64
		step  string
	}{
		{"two vertices extruded", orb.Ring{{0, 0}, {1, 1}, {0, 0}}, nil, 0, 3, StepOuterProfile},
		{"two vertices flat", orb.Ring{{0, 0}, {1, 1}, {0, 0}}, nil, 0, 0, StepOuterProfile},
		{"degenerate hole", square(0, 0, 10), []orb.Ring{{{1, 1}, {2, 2}}}, 0, 3, StepInnerProfile},
		{"collinear outer", orb.Ring{{0, 0}, {1, 0}, {2, 0}, {0, 0}}, nil, 0, 3, StepOuterProfile},
		{"nan elevation", square(0, 0, 1), nil, 0, math.NaN(), StepPath},
	}
	b := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := b.Build(tt.ext, tt.holes, tt.from, tt.to)
			if s != nil {
				t.Errorf("Build() returned a solid on failure")
			}
			var be *BuildError
			if !errors.As(err, &be) {
				t.Fatalf("Build() error = %v, want BuildError", err)
			}
			if be.Step != tt.step {
				t.Errorf("Step = %q, want %q", be.Step, tt.step)
			}
		})
	}
}

func TestBuildRingsMultiPart(t *testing.T) {
	mp := orb.MultiPolygon{
		{square(0, 0, 10), square(1, 1, 2)},
		{square(20, 0, 5), square(21, 1, 1)},
	}
	rs, err := geom.ExtractRings(mp)
	if err != nil {
		t.Fatalf("ExtractRings() error = %v", err)
	}
	s, err := New(nil).BuildRings(rs, 0, 2)
	if err != nil {
		t.Fatalf("BuildRings() error = %v", err)
	}
	want := ((100 - 4) + (25 - 1)) * 2.0
	if got := measured(t, s).Volume(); math.Abs(got-want) > 1e-9 {
		t.Errorf("Volume() = %f, want %f", got, want)
	}
}

func TestBuildRingsEmpty(t *testing.T) {
	_, err := New(nil).BuildRings(geom.Rings{}, 0, 1)
	var be *BuildError
	if !errors.As(err, &be) || be.Step != StepRings {
		t.Errorf("BuildRings() error = %v, want BuildError at %q", err, StepRings)
	}
}
