package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/brachisim/internal/dynamo"
	"github.com/san-kum/brachisim/internal/physics"
	"github.com/san-kum/brachisim/internal/ramp"
	"github.com/san-kum/brachisim/internal/sim"
)

const (
	DefaultDt       = 0.016
	DefaultDuration = 60.0
)

type Config struct {
	Anchor         AnchorConfig    `yaml:"anchor"`
	Separation     float64         `yaml:"separation"`
	Width          float64         `yaml:"width"`
	Dt             float64         `yaml:"dt"`
	Duration       float64         `yaml:"duration"`
	PhysicsSamples int             `yaml:"physics_samples"`
	RenderSamples  int             `yaml:"render_samples"`
	Release        ReleaseConfig   `yaml:"release"`
	Collision      CollisionConfig `yaml:"collision"`
	Bodies         []BodyConfig    `yaml:"bodies"`
}

// AnchorConfig is the start point A. B is always derived from it.
type AnchorConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

type ReleaseConfig struct {
	Delay         float64 `yaml:"delay"`
	PlatformSpeed float64 `yaml:"platform_speed"`
	Distance      float64 `yaml:"distance"`
	MaxRetreat    float64 `yaml:"max_retreat"`
}

type CollisionConfig struct {
	Restitution float64 `yaml:"restitution"`
	MaxRebounds int     `yaml:"max_rebounds"`
	MinVelocity float64 `yaml:"min_velocity"`
}

// BodyConfig describes one ball. A nil Friction uses the track default.
type BodyConfig struct {
	Curve    string   `yaml:"curve"`
	Name     string   `yaml:"name,omitempty"`
	Radius   float64  `yaml:"radius,omitempty"`
	Mass     float64  `yaml:"mass,omitempty"`
	Friction *float64 `yaml:"friction,omitempty"`
}

func DefaultConfig() *Config {
	rel := sim.DefaultRelease()
	policy := physics.DefaultPolicy()
	cfg := &Config{
		Anchor:         AnchorConfig{X: ramp.DefaultAnchor.X(), Y: ramp.DefaultAnchor.Y(), Z: ramp.DefaultAnchor.Z()},
		Separation:     ramp.DefaultSeparation,
		Width:          ramp.DefaultWidth,
		Dt:             DefaultDt,
		Duration:       DefaultDuration,
		PhysicsSamples: ramp.PhysicsSamples,
		RenderSamples:  ramp.RenderSamples,
		Release: ReleaseConfig{
			Delay:         rel.Delay,
			PlatformSpeed: rel.PlatformSpeed,
			Distance:      rel.Distance,
			MaxRetreat:    rel.MaxRetreat,
		},
		Collision: CollisionConfig{
			Restitution: policy.Restitution,
			MaxRebounds: policy.MaxRebounds,
			MinVelocity: policy.MinVelocity,
		},
	}
	for _, k := range ramp.Kinds() {
		cfg.Bodies = append(cfg.Bodies, BodyConfig{Curve: k.String(), Name: k.Title()})
	}
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Sanitize()
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Sanitize fills zero values with defaults and replaces an anchor that
// cannot start a race: A at or below the finish height falls back to the
// default height, a negative A.x to the default x.
func (c *Config) Sanitize() {
	def := DefaultConfig()
	if c.Anchor.Y <= ramp.FinishHeight {
		c.Anchor.Y = def.Anchor.Y
	}
	if c.Anchor.X < 0 {
		c.Anchor.X = def.Anchor.X
	}
	if c.Separation < 0 {
		c.Separation = def.Separation
	}
	if c.Width <= 0 {
		c.Width = def.Width
	}
	if c.Dt <= 0 {
		c.Dt = def.Dt
	}
	if c.Duration <= 0 {
		c.Duration = def.Duration
	}
	if c.PhysicsSamples <= 0 {
		c.PhysicsSamples = def.PhysicsSamples
	}
	if c.RenderSamples <= 0 {
		c.RenderSamples = def.RenderSamples
	}
	if c.Release.PlatformSpeed <= 0 {
		c.Release.PlatformSpeed = def.Release.PlatformSpeed
	}
	if c.Release.MaxRetreat <= 0 {
		c.Release.MaxRetreat = def.Release.MaxRetreat
	}
	if c.Collision.Restitution <= 0 {
		c.Collision.Restitution = def.Collision.Restitution
	}
	if c.Collision.MaxRebounds <= 0 {
		c.Collision.MaxRebounds = def.Collision.MaxRebounds
	}
	if len(c.Bodies) == 0 {
		c.Bodies = def.Bodies
	}
	for i := range c.Bodies {
		if c.Bodies[i].Name == "" {
			if k, err := ramp.ParseKind(c.Bodies[i].Curve); err == nil {
				c.Bodies[i].Name = k.Title()
			}
		}
	}
}

func (c *Config) Validate() error {
	_, err := c.Settings()
	return err
}

// Sim returns the stepping configuration for a run.
func (c *Config) Sim() dynamo.Config {
	return dynamo.Config{Dt: c.Dt, Duration: c.Duration, ValidateState: true}
}

// Settings converts the file form into scenario settings and validates it.
func (c *Config) Settings() (sim.Settings, error) {
	a := dynamo.Vec3{c.Anchor.X, c.Anchor.Y, c.Anchor.Z}
	rc, err := ramp.NewConfig(a, c.Separation)
	if err != nil {
		return sim.Settings{}, err
	}
	rc.Width = c.Width

	policy := physics.Policy{
		Restitution: c.Collision.Restitution,
		MaxRebounds: c.Collision.MaxRebounds,
		MinVelocity: c.Collision.MinVelocity,
	}

	settings := sim.Settings{
		Ramp: rc,
		Release: sim.Release{
			Delay:         c.Release.Delay,
			PlatformSpeed: c.Release.PlatformSpeed,
			Distance:      c.Release.Distance,
			MaxRetreat:    c.Release.MaxRetreat,
		},
		PhysicsSamples: c.PhysicsSamples,
		RenderSamples:  c.RenderSamples,
	}
	for _, bc := range c.Bodies {
		k, err := ramp.ParseKind(bc.Curve)
		if err != nil {
			return sim.Settings{}, err
		}
		p := physics.DefaultParams(k)
		if bc.Radius > 0 {
			p.Radius = bc.Radius
		}
		if bc.Mass > 0 {
			p.Mass = bc.Mass
		}
		if bc.Friction != nil {
			p = p.WithFriction(*bc.Friction)
		}
		p.Policy = policy
		name := bc.Name
		if name == "" {
			name = k.Title()
		}
		settings.Bodies = append(settings.Bodies, sim.BodySpec{Kind: k, Name: name, Params: p})
	}
	if err := settings.Validate(); err != nil {
		return sim.Settings{}, fmt.Errorf("config: %w", err)
	}
	return settings, nil
}
