package physics

import (
	"fmt"

	"github.com/san-kum/brachisim/internal/dynamo"
	"github.com/san-kum/brachisim/internal/ramp"
)

// Color is an RGB tag in [0, 1] used by renderers.
type Color [3]float64

var (
	Yellow    = Color{1.0, 1.0, 0.0}
	Cyan      = Color{0.0, 1.0, 1.0}
	LightBlue = Color{0.4, 0.7, 1.0}
)

// DefaultColor is the lane colour of a track.
func DefaultColor(k ramp.Kind) Color {
	switch k {
	case ramp.Line:
		return Yellow
	case ramp.Parabola:
		return Cyan
	default:
		return LightBlue
	}
}

// Body is a ball racing down one track. It holds a shared, read-only
// geometry handle and never modifies it.
type Body struct {
	Name  string
	Color Color

	kind     ramp.Kind
	geom     *ramp.Geometry
	platform dynamo.Vec3
	params   Params

	t         float64
	v         float64
	direction int

	onPlatform  bool
	released    bool
	rebounded   bool
	wallStopped bool
	finished    bool
	rebounds    int

	firstImpact    float64
	hasFirstImpact bool
	finalStop      float64
	hasFinalStop   bool

	pos dynamo.Vec3
}

// NewBody places a body on the release platform. platform is the top
// surface of the platform at the body's lane: (A.x, A.y+lift, zOffset).
func NewBody(name string, geom *ramp.Geometry, platform dynamo.Vec3, params Params) (*Body, error) {
	if geom == nil {
		return nil, fmt.Errorf("%s: nil geometry: %w", name, dynamo.ErrInvalidState)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	b := &Body{
		Name:     name,
		Color:    DefaultColor(geom.Kind),
		kind:     geom.Kind,
		geom:     geom,
		platform: platform,
		params:   params,
	}
	b.Reset()
	return b, nil
}

// Reset returns the body to the platform, clearing every flag and
// timestamp. Calling it repeatedly is the same as calling it once.
func (b *Body) Reset() {
	b.t = 0
	b.v = 0
	b.direction = 1
	b.onPlatform = true
	b.released = false
	b.rebounded = false
	b.wallStopped = false
	b.finished = false
	b.rebounds = 0
	b.firstImpact, b.hasFirstImpact = 0, false
	b.finalStop, b.hasFinalStop = 0, false
	b.pos = b.platformPosition()
}

// Rebind swaps the geometry and platform anchor after a reconfiguration
// and resets the body. The caller must ensure no Update runs concurrently.
func (b *Body) Rebind(geom *ramp.Geometry, platform dynamo.Vec3) error {
	if geom == nil {
		return fmt.Errorf("%s: nil geometry: %w", b.Name, dynamo.ErrInvalidState)
	}
	b.geom = geom
	b.kind = geom.Kind
	b.platform = platform
	b.Reset()
	return nil
}

// Release lifts the body off the platform and onto the start of its track.
// It reports whether the body was actually released by this call.
func (b *Body) Release() bool {
	if b.released {
		return false
	}
	b.onPlatform = false
	b.released = true
	b.t = 0
	b.pos = b.renderAt(0)
	return true
}

func (b *Body) platformPosition() dynamo.Vec3 {
	return b.platform.Add(dynamo.Vec3{0, b.params.Radius, 0})
}

func (b *Body) renderAt(t float64) dynamo.Vec3 {
	return b.geom.LookupCenter(t).Add(dynamo.Vec3{0, b.params.Radius, 0})
}

// RenderPosition is the centre of the ball in world space.
func (b *Body) RenderPosition() dynamo.Vec3 { return b.pos }

func (b *Body) Kind() ramp.Kind              { return b.kind }
func (b *Body) Geometry() *ramp.Geometry     { return b.geom }
func (b *Body) Params() Params               { return b.params }
func (b *Body) T() float64                   { return b.t }
func (b *Body) Velocity() float64            { return b.v }
func (b *Body) Direction() int               { return b.direction }
func (b *Body) OnPlatform() bool             { return b.onPlatform }
func (b *Body) Released() bool               { return b.released }
func (b *Body) Rebounded() bool              { return b.rebounded }
func (b *Body) WallStopped() bool            { return b.wallStopped }
func (b *Body) Finished() bool               { return b.finished }
func (b *Body) Rebounds() int                { return b.rebounds }
func (b *Body) FirstImpact() (float64, bool) { return b.firstImpact, b.hasFirstImpact }
func (b *Body) FinalStop() (float64, bool)   { return b.finalStop, b.hasFinalStop }

// Phase summarizes the lifecycle flags.
func (b *Body) Phase() dynamo.Phase {
	switch {
	case b.onPlatform:
		return dynamo.PhasePlatform
	case b.finished || b.wallStopped:
		return dynamo.PhaseStopped
	case b.rebounded:
		return dynamo.PhaseRebounding
	default:
		return dynamo.PhaseRolling
	}
}

// SetRadius changes the ball radius. A body on the platform is re-pinned.
func (b *Body) SetRadius(r float64) error {
	p := b.params
	p.Radius = r
	if err := p.Validate(); err != nil {
		return err
	}
	b.params = p
	if b.onPlatform {
		b.pos = b.platformPosition()
	}
	return nil
}

func (b *Body) SetMass(m float64) error {
	p := b.params
	p.Mass = m
	if err := p.Validate(); err != nil {
		return err
	}
	b.params = p
	return nil
}

func (b *Body) SetFriction(mu float64) error {
	p := b.params.WithFriction(mu)
	if err := p.Validate(); err != nil {
		return err
	}
	b.params = p
	return nil
}

// Energy is the body's mechanical energy ½mv² + mg(y−floor).
func (b *Body) Energy(floor float64) float64 {
	h := b.pos.Y() - b.params.Radius - floor
	return 0.5*b.params.Mass*b.v*b.v + b.params.Mass*dynamo.Gravity*h
}

// Snapshot captures the body for observers. floor is the height reported
// as zero.
func (b *Body) Snapshot(floor float64) dynamo.BodySnapshot {
	s := dynamo.BodySnapshot{
		Name:     b.Name,
		Curve:    b.kind.String(),
		Phase:    b.Phase(),
		T:        b.t,
		Velocity: b.v,
		Position: b.pos,
		Height:   b.pos.Y() - b.params.Radius - floor,
		Mass:     b.params.Mass,
		Rebounds: b.rebounds,
	}
	if b.hasFirstImpact {
		v := b.firstImpact
		s.FirstImpact = &v
	}
	if b.hasFinalStop {
		v := b.finalStop
		s.FinalStop = &v
	}
	return s
}
