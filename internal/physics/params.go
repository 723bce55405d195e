package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/brachisim/internal/dynamo"
	"github.com/san-kum/brachisim/internal/ramp"
)

const (
	BaseMu     = 0.008
	BaseMuRamp = 0.016

	DefaultRadius      = 0.15
	DefaultMass        = 1.0
	DefaultRestitution = 0.75
	DefaultMaxRebounds = 4
	DefaultMinVelocity = 0.05
)

// Params are the physical constants of one body.
type Params struct {
	Radius float64
	Mass   float64
	// Mu applies until the first far-wall impact, MuRamp after it.
	Mu     float64
	MuRamp float64
	Policy Policy
}

// FrictionFor returns the default (mu, muRamp) pair for a track: the line
// rolls rougher and the cycloid smoother than the parabola.
func FrictionFor(k ramp.Kind) (float64, float64) {
	switch k {
	case ramp.Line:
		return BaseMu * 1.1, BaseMuRamp * 1.1
	case ramp.Cycloid:
		return BaseMu * 0.9, BaseMuRamp * 0.9
	default:
		return BaseMu, BaseMuRamp
	}
}

func DefaultParams(k ramp.Kind) Params {
	mu, muRamp := FrictionFor(k)
	return Params{
		Radius: DefaultRadius,
		Mass:   DefaultMass,
		Mu:     mu,
		MuRamp: muRamp,
		Policy: DefaultPolicy(),
	}
}

// WithFriction overrides both coefficients from a single base value; the
// post-impact coefficient is twice the base.
func (p Params) WithFriction(mu float64) Params {
	p.Mu = mu
	p.MuRamp = mu * 2.0
	return p
}

func (p Params) Validate() error {
	switch {
	case !(p.Radius > 0) || math.IsInf(p.Radius, 0):
		return fmt.Errorf("radius %g: %w", p.Radius, dynamo.ErrParameterBounds)
	case !(p.Mass > 0) || math.IsInf(p.Mass, 0):
		return fmt.Errorf("mass %g: %w", p.Mass, dynamo.ErrParameterBounds)
	case p.Mu < 0 || p.MuRamp < 0 || math.IsNaN(p.Mu) || math.IsNaN(p.MuRamp):
		return fmt.Errorf("friction %g/%g: %w", p.Mu, p.MuRamp, dynamo.ErrParameterBounds)
	}
	return p.Policy.Validate()
}

func (p Params) GetParams() map[string]float64 {
	return map[string]float64{
		"radius":      p.Radius,
		"mass":        p.Mass,
		"mu":          p.Mu,
		"mu_ramp":     p.MuRamp,
		"restitution": p.Policy.Restitution,
	}
}
