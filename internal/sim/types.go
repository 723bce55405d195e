package sim

import (
	"fmt"

	"github.com/san-kum/brachisim/internal/dynamo"
	"github.com/san-kum/brachisim/internal/physics"
	"github.com/san-kum/brachisim/internal/ramp"
)

// Release controls the platform that holds the bodies at the start. The
// platform starts retreating Delay seconds after Start at PlatformSpeed,
// stops once it is MaxRetreat behind A, and drops the bodies once it has
// retreated Distance.
type Release struct {
	Delay         float64
	PlatformSpeed float64
	Distance      float64
	MaxRetreat    float64
}

func DefaultRelease() Release {
	return Release{
		Delay:         2.0,
		PlatformSpeed: 2.0,
		Distance:      1.5,
		MaxRetreat:    3.0,
	}
}

func (r Release) Validate() error {
	if r.Delay < 0 {
		return fmt.Errorf("release delay %g: %w", r.Delay, dynamo.ErrParameterBounds)
	}
	if r.PlatformSpeed <= 0 {
		return fmt.Errorf("platform speed %g: %w", r.PlatformSpeed, dynamo.ErrParameterBounds)
	}
	if r.Distance < 0 || r.MaxRetreat < r.Distance {
		return fmt.Errorf("release distance %g / max retreat %g: %w", r.Distance, r.MaxRetreat, dynamo.ErrParameterBounds)
	}
	return nil
}

// BodySpec describes one racing body.
type BodySpec struct {
	Kind   ramp.Kind
	Name   string
	Color  *physics.Color
	Params physics.Params
}

// DefaultBodies is one ball per track with the default friction table.
func DefaultBodies() []BodySpec {
	specs := make([]BodySpec, 0, 3)
	for _, k := range ramp.Kinds() {
		specs = append(specs, BodySpec{Kind: k, Name: k.Title(), Params: physics.DefaultParams(k)})
	}
	return specs
}

type Settings struct {
	Ramp           ramp.Config
	Bodies         []BodySpec
	Release        Release
	PhysicsSamples int
	RenderSamples  int
}

func DefaultSettings() Settings {
	return Settings{
		Ramp:           ramp.DefaultConfig(),
		Bodies:         DefaultBodies(),
		Release:        DefaultRelease(),
		PhysicsSamples: ramp.PhysicsSamples,
		RenderSamples:  ramp.RenderSamples,
	}
}

func (s Settings) Validate() error {
	if err := s.Ramp.Validate(); err != nil {
		return err
	}
	if err := s.Release.Validate(); err != nil {
		return err
	}
	if len(s.Bodies) == 0 {
		return fmt.Errorf("no bodies: %w", dynamo.ErrParameterBounds)
	}
	seen := make(map[string]bool, len(s.Bodies))
	for _, b := range s.Bodies {
		if !b.Kind.Valid() {
			return fmt.Errorf("body %q: %w", b.Name, dynamo.ErrUnknownCurve)
		}
		if b.Name == "" || seen[b.Name] {
			return fmt.Errorf("body name %q must be unique and non-empty: %w", b.Name, dynamo.ErrParameterBounds)
		}
		seen[b.Name] = true
		if err := b.Params.Validate(); err != nil {
			return fmt.Errorf("body %q: %w", b.Name, err)
		}
	}
	return nil
}

// platformFor is the platform top surface in the lane of kind k.
func platformFor(cfg ramp.Config, k ramp.Kind) dynamo.Vec3 {
	return dynamo.Vec3{cfg.A.X(), cfg.PlatformHeight(), cfg.ZOffset(k)}
}
