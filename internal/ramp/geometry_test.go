package ramp

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/brachisim/internal/dynamo"
)

func buildAll(t *testing.T, cfg Config, samples int) map[Kind]*Geometry {
	t.Helper()
	out := make(map[Kind]*Geometry)
	for _, k := range Kinds() {
		g, err := BuildKind(cfg, k, samples)
		if err != nil {
			t.Fatalf("build %s: %v", k, err)
		}
		out[k] = g
	}
	return out
}

func TestLengthsMonotonic(t *testing.T) {
	anchors := []dynamo.Vec3{
		{1, 5, 0},
		{0, 2.5, 0},
		{3, 10, 0},
	}
	for _, a := range anchors {
		cfg, err := NewConfig(a, DefaultSeparation)
		if err != nil {
			t.Fatalf("config %v: %v", a, err)
		}
		for k, g := range buildAll(t, cfg, PhysicsSamples) {
			for i := 1; i < len(g.Lengths); i++ {
				if g.Lengths[i] < g.Lengths[i-1] {
					t.Fatalf("%s %v: lengths decrease at %d", k, a, i)
				}
			}
			if g.Lengths[len(g.Lengths)-1] != g.Length {
				t.Errorf("%s: last length %f != total %f", k, g.Lengths[len(g.Lengths)-1], g.Length)
			}
			if g.Length <= 0 {
				t.Errorf("%s: expected positive length", k)
			}
		}
	}
}

func TestLineLength(t *testing.T) {
	cfg := DefaultConfig()
	g, err := BuildKind(cfg, Line, PhysicsSamples)
	if err != nil {
		t.Fatal(err)
	}
	expected := math.Sqrt(52)
	if math.Abs(g.Length-expected) > 1e-9 {
		t.Errorf("expected line length %f, got %f", expected, g.Length)
	}
}

func TestLookupBoundaries(t *testing.T) {
	for k, g := range buildAll(t, DefaultConfig(), PhysicsSamples) {
		p0, s0 := g.Lookup(0)
		if p0 != g.Center[0] {
			t.Errorf("%s: lookup(0)=%v, want %v", k, p0, g.Center[0])
		}
		if s0 != g.Slopes[0] {
			t.Errorf("%s: slope(0)=%f, want %f", k, s0, g.Slopes[0])
		}
		last := len(g.Center) - 1
		p1, s1 := g.Lookup(1)
		if p1 != g.Center[last] {
			t.Errorf("%s: lookup(1)=%v, want %v", k, p1, g.Center[last])
		}
		if s1 != g.Slopes[last] {
			t.Errorf("%s: slope(1)=%f, want %f", k, s1, g.Slopes[last])
		}
	}
}

func TestLookupClampsOutOfRange(t *testing.T) {
	g, err := BuildKind(DefaultConfig(), Parabola, RenderSamples)
	if err != nil {
		t.Fatal(err)
	}
	if g.LookupCenter(-0.2) != g.Center[0] {
		t.Error("expected t<0 to clamp to first sample")
	}
	if g.LookupCenter(1.3) != g.Center[len(g.Center)-1] {
		t.Error("expected t>1 to clamp to last sample")
	}
}

func TestLookupInterpolates(t *testing.T) {
	g, err := BuildKind(DefaultConfig(), Line, 10)
	if err != nil {
		t.Fatal(err)
	}
	mid := g.LookupCenter(0.05)
	want := g.Center[0].Add(g.Center[1]).Mul(0.5)
	if !mid.ApproxEqualThreshold(want, 1e-12) {
		t.Errorf("expected midpoint %v, got %v", want, mid)
	}
}

func TestCycloidVerticalStart(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Drop() != 4.0 {
		t.Fatalf("expected drop 4, got %f", cfg.Drop())
	}
	c, _ := cfg.Curve(Cycloid)
	if r := c.(CycloidCurve).Radius; r != 2.0 {
		t.Errorf("expected radius 2, got %f", r)
	}

	g, err := BuildKind(cfg, Cycloid, PhysicsSamples)
	if err != nil {
		t.Fatal(err)
	}
	_, s := g.Lookup(0)
	if math.Abs(s) < 1e5 {
		t.Errorf("expected near-vertical slope at t=0, got %f", s)
	}
	if s > 0 {
		t.Errorf("expected downward slope, got %f", s)
	}
}

func TestCurveEndpoints(t *testing.T) {
	cfg := DefaultConfig()
	for _, k := range Kinds() {
		c, err := cfg.Curve(k)
		if err != nil {
			t.Fatal(err)
		}
		start, end := c.Point(0), c.Point(1)
		if math.Abs(start.X()-cfg.A.X()) > 1e-9 || math.Abs(start.Y()-cfg.A.Y()) > 1e-9 {
			t.Errorf("%s: start %v, want A %v", k, start, cfg.A)
		}
		if math.Abs(end.X()-cfg.B.X()) > 1e-9 || math.Abs(end.Y()-cfg.B.Y()) > 1e-9 {
			t.Errorf("%s: end %v, want B %v", k, end, cfg.B)
		}
	}
}

func TestParabolaSagIsFixed(t *testing.T) {
	tall, _ := NewConfig(dynamo.Vec3{1, 9, 0}, 1)
	short, _ := NewConfig(dynamo.Vec3{1, 3, 0}, 1)
	for _, cfg := range []Config{tall, short} {
		c, _ := cfg.Curve(Parabola)
		linear := cfg.A.Y() + 0.5*(cfg.B.Y()-cfg.A.Y())
		got := c.Point(0.5).Y()
		if math.Abs(linear-got-0.75) > 1e-12 {
			t.Errorf("A.y=%f: expected sag 0.75 at t=0.5, got %f", cfg.A.Y(), linear-got)
		}
	}
}

func TestRailsStraddleLane(t *testing.T) {
	cfg := DefaultConfig()
	c, _ := cfg.Curve(Line)
	left, right := Evaluate(c, 0.3, cfg.HalfWidth(), cfg.ZOffset(Line))
	if left.Z() != -1.25 || right.Z() != -0.75 {
		t.Errorf("unexpected rail z: %f %f", left.Z(), right.Z())
	}
	if left.X() != right.X() || left.Y() != right.Y() {
		t.Error("rails should share x and y")
	}
}

func TestDegenerateAnchors(t *testing.T) {
	tests := []struct {
		name string
		a    dynamo.Vec3
	}{
		{"level", dynamo.Vec3{1, FinishHeight, 0}},
		{"below", dynamo.Vec3{1, 0.5, 0}},
		{"nan", dynamo.Vec3{math.NaN(), 5, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(tt.a, 1)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}

	_, err := NewConfig(dynamo.Vec3{1, 1, 0}, 1)
	if !errors.Is(err, dynamo.ErrDegenerateAnchors) {
		t.Errorf("expected ErrDegenerateAnchors, got %v", err)
	}
}

func TestBuildRejectsBadSamples(t *testing.T) {
	c, _ := DefaultConfig().Curve(Line)
	if _, err := Build(c, 0.25, 0, 0); !errors.Is(err, dynamo.ErrInvalidSampleCount) {
		t.Errorf("expected ErrInvalidSampleCount, got %v", err)
	}
}

func TestBuildSet(t *testing.T) {
	s, err := BuildSet(DefaultConfig(), PhysicsSamples, RenderSamples)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range Kinds() {
		if s.Physics[k].Samples != PhysicsSamples {
			t.Errorf("%s: physics samples %d", k, s.Physics[k].Samples)
		}
		if len(s.Render[k].Center) != RenderSamples+1 {
			t.Errorf("%s: render points %d", k, len(s.Render[k].Center))
		}
		if s.Physics[k].ZOffset != s.Config.ZOffset(k) {
			t.Errorf("%s: z offset mismatch", k)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("parse %s: got %v, %v", k, got, err)
		}
	}
	if _, err := ParseKind("spiral"); !errors.Is(err, dynamo.ErrUnknownCurve) {
		t.Errorf("expected ErrUnknownCurve, got %v", err)
	}
}
