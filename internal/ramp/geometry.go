package ramp

import (
	"fmt"
	"math"

	"github.com/san-kum/brachisim/internal/dynamo"
)

const (
	// VerticalSlope stands in for an infinite dy/dx on near-vertical segments.
	VerticalSlope = 1e6
	verticalDx    = 1e-6
	minLength     = 1e-9
)

// Geometry is a sampled track. All slices have Samples+1 entries indexed by
// sample i at t = i/Samples. A Geometry is never mutated after Build.
type Geometry struct {
	Kind    Kind
	ZOffset float64
	Samples int

	Left   []dynamo.Vec3
	Right  []dynamo.Vec3
	Center []dynamo.Vec3

	// Lengths[i] is the centreline arc length from t=0 to sample i.
	Lengths []float64
	Length  float64
	Slopes  []float64
}

// Build samples c at samples+1 evenly spaced parameters and precomputes the
// arc-length and slope tables.
func Build(c Curve, halfWidth, zOffset float64, samples int) (*Geometry, error) {
	if c == nil {
		return nil, dynamo.ErrUnknownCurve
	}
	if samples < 1 {
		return nil, fmt.Errorf("%s: %d: %w", c.Kind(), samples, dynamo.ErrInvalidSampleCount)
	}

	n := samples + 1
	g := &Geometry{
		Kind:    c.Kind(),
		ZOffset: zOffset,
		Samples: samples,
		Left:    make([]dynamo.Vec3, n),
		Right:   make([]dynamo.Vec3, n),
		Center:  make([]dynamo.Vec3, n),
		Lengths: make([]float64, n),
		Slopes:  make([]float64, n),
	}

	for i := 0; i < n; i++ {
		t := float64(i) / float64(samples)
		left, right := Evaluate(c, t, halfWidth, zOffset)
		g.Left[i] = left
		g.Right[i] = right
		g.Center[i] = left.Add(right).Mul(0.5)
		if !dynamo.Finite(g.Center[i]) {
			return nil, fmt.Errorf("%s sample %d: %w", c.Kind(), i, dynamo.ErrInvalidState)
		}
	}

	for i := 1; i < n; i++ {
		g.Lengths[i] = g.Lengths[i-1] + g.Center[i].Sub(g.Center[i-1]).Len()
	}
	g.Length = g.Lengths[n-1]
	if g.Length <= minLength {
		return nil, fmt.Errorf("%s: %w", c.Kind(), dynamo.ErrZeroLength)
	}

	for i := 0; i < n; i++ {
		a, b := i, i+1
		if i == n-1 {
			a, b = i-1, i
		}
		g.Slopes[i] = slope(g.Center[a], g.Center[b])
	}

	return g, nil
}

// BuildKind builds the geometry of kind k under cfg.
func BuildKind(cfg Config, k Kind, samples int) (*Geometry, error) {
	c, err := cfg.Curve(k)
	if err != nil {
		return nil, err
	}
	return Build(c, cfg.HalfWidth(), cfg.ZOffset(k), samples)
}

func slope(p, q dynamo.Vec3) float64 {
	dx := q.X() - p.X()
	dy := q.Y() - p.Y()
	if math.Abs(dx) < verticalDx {
		if dy > 0 {
			return VerticalSlope
		}
		return -VerticalSlope
	}
	return dy / dx
}

// locate maps t to a segment index and the fraction within it. t outside
// [0, 1] is clamped.
func (g *Geometry) locate(t float64) (int, float64) {
	t = math.Max(0, math.Min(1, t))
	f := t * float64(g.Samples)
	idx := int(f)
	if idx > g.Samples-1 {
		idx = g.Samples - 1
	}
	return idx, f - float64(idx)
}

// LookupCenter returns the interpolated centreline point at t.
func (g *Geometry) LookupCenter(t float64) dynamo.Vec3 {
	idx, frac := g.locate(t)
	return g.Center[idx].Mul(1 - frac).Add(g.Center[idx+1].Mul(frac))
}

// Lookup returns the interpolated centreline point and slope at t.
func (g *Geometry) Lookup(t float64) (dynamo.Vec3, float64) {
	idx, frac := g.locate(t)
	pos := g.Center[idx].Mul(1 - frac).Add(g.Center[idx+1].Mul(frac))
	s := g.Slopes[idx]*(1-frac) + g.Slopes[idx+1]*frac
	return pos, s
}

// ArcLength returns the interpolated arc length from the start to t.
func (g *Geometry) ArcLength(t float64) float64 {
	idx, frac := g.locate(t)
	return g.Lengths[idx]*(1-frac) + g.Lengths[idx+1]*frac
}

// SlopeRange returns the smallest and largest slope in the table.
func (g *Geometry) SlopeRange() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range g.Slopes {
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}
	return lo, hi
}

// Set holds the geometry of every track under one Config.
type Set struct {
	Config  Config
	Physics map[Kind]*Geometry
	Render  map[Kind]*Geometry
}

// BuildSet builds physics- and render-resolution geometry for all kinds.
func BuildSet(cfg Config, physicsSamples, renderSamples int) (*Set, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Set{
		Config:  cfg,
		Physics: make(map[Kind]*Geometry, 3),
		Render:  make(map[Kind]*Geometry, 3),
	}
	for _, k := range Kinds() {
		pg, err := BuildKind(cfg, k, physicsSamples)
		if err != nil {
			return nil, err
		}
		rg, err := BuildKind(cfg, k, renderSamples)
		if err != nil {
			return nil, err
		}
		s.Physics[k] = pg
		s.Render[k] = rg
	}
	return s, nil
}
