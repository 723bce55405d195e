package ramp

import (
	"fmt"
	"math"

	"github.com/san-kum/brachisim/internal/dynamo"
)

const (
	// FinishHeight is the fixed height of B.
	FinishHeight = 1.0
	// Span is the horizontal distance from A to B.
	Span = 6.0

	DefaultSeparation = 1.0
	DefaultWidth      = 0.5

	// PlatformLift is how far above A the release platform sits.
	PlatformLift = 0.3

	PhysicsSamples = 1000
	RenderSamples  = 100

	minDrop = 1e-9
)

// DefaultAnchor is the start point used when none is configured.
var DefaultAnchor = dynamo.Vec3{1.0, 5.0, 0.0}

// Config fixes the anchors and layout of the three tracks. It is a value:
// changing anchors means building a new Config and new geometry.
type Config struct {
	A          dynamo.Vec3
	B          dynamo.Vec3
	Separation float64
	Width      float64
}

// NewConfig derives B from A (Span metres along X, at FinishHeight) and
// validates the pair.
func NewConfig(a dynamo.Vec3, separation float64) (Config, error) {
	c := Config{
		A:          a,
		B:          dynamo.Vec3{a.X() + Span, FinishHeight, 0},
		Separation: separation,
		Width:      DefaultWidth,
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func DefaultConfig() Config {
	c, _ := NewConfig(DefaultAnchor, DefaultSeparation)
	return c
}

func (c Config) Validate() error {
	if !dynamo.Finite(c.A) || !dynamo.Finite(c.B) {
		return fmt.Errorf("anchors %v -> %v: %w", c.A, c.B, dynamo.ErrInvalidState)
	}
	if c.A.Y()-c.B.Y() <= minDrop {
		return fmt.Errorf("A.y=%.3f B.y=%.3f: %w", c.A.Y(), c.B.Y(), dynamo.ErrDegenerateAnchors)
	}
	if c.B.X() == c.A.X() {
		return fmt.Errorf("A.x == B.x == %.3f: %w", c.A.X(), dynamo.ErrDegenerateAnchors)
	}
	if c.Separation < 0 || math.IsNaN(c.Separation) {
		return fmt.Errorf("separation %.3f: %w", c.Separation, dynamo.ErrParameterBounds)
	}
	if c.Width <= 0 {
		return fmt.Errorf("width %.3f: %w", c.Width, dynamo.ErrParameterBounds)
	}
	return nil
}

// Drop is the vertical distance from A to B.
func (c Config) Drop() float64 { return c.A.Y() - c.B.Y() }

// HalfWidth is the distance from a track's centreline to each rail.
func (c Config) HalfWidth() float64 { return c.Width / 2 }

// PlatformHeight is the height of the release platform's top surface.
func (c Config) PlatformHeight() float64 { return c.A.Y() + PlatformLift }

// ZOffset is the lateral lane of a track: cycloid behind, parabola in the
// middle, line in front.
func (c Config) ZOffset(k Kind) float64 {
	switch k {
	case Cycloid:
		return c.Separation
	case Line:
		return -c.Separation
	default:
		return 0
	}
}

// Curve returns the curve variant of kind k between this config's anchors.
func (c Config) Curve(k Kind) (Curve, error) {
	switch k {
	case Line:
		return LineCurve{A: c.A, B: c.B}, nil
	case Parabola:
		return ParabolaCurve{A: c.A, B: c.B, Sag: ParabolaSag}, nil
	case Cycloid:
		return NewCycloid(c.A, c.B), nil
	default:
		return nil, fmt.Errorf("%w: %d", dynamo.ErrUnknownCurve, int(k))
	}
}

// Caps describes the end pieces an external renderer draws around the tracks.
type Caps struct {
	BaseWidth      float64     `json:"base_width"`
	BackCapHeight  float64     `json:"back_cap_height"`
	FrontCapHeight float64     `json:"front_cap_height"`
	WallThickness  float64     `json:"wall_thickness"`
	Separation     float64     `json:"separation"`
	A              dynamo.Vec3 `json:"a"`
	B              dynamo.Vec3 `json:"b"`
	PlatformHeight float64     `json:"platform_height"`
}

func (c Config) Caps() Caps {
	return Caps{
		BaseWidth:      0.7,
		BackCapHeight:  c.A.Y(),
		FrontCapHeight: 0.4,
		WallThickness:  0.3,
		Separation:     c.Separation,
		A:              c.A,
		B:              c.B,
		PlatformHeight: c.PlatformHeight(),
	}
}
