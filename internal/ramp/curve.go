package ramp

import (
	"math"

	"github.com/san-kum/brachisim/internal/dynamo"
)

// ParabolaSag is the coefficient of the t·(1−t) term subtracted from the
// parabola's linear height profile. It does not depend on the anchors.
const ParabolaSag = 3.0

// Curve is a track shape in the XY plane. The set of implementations is
// closed: LineCurve, ParabolaCurve and CycloidCurve.
type Curve interface {
	Kind() Kind
	// Point returns the centre of the track at t in [0, 1] with Z = 0.
	Point(t float64) dynamo.Vec3
	curve()
}

// LineCurve interpolates straight from A to B.
type LineCurve struct {
	A, B dynamo.Vec3
}

func (LineCurve) Kind() Kind { return Line }
func (LineCurve) curve()     {}

func (c LineCurve) Point(t float64) dynamo.Vec3 {
	p := c.A.Add(c.B.Sub(c.A).Mul(t))
	return dynamo.Vec3{p.X(), p.Y(), 0}
}

// ParabolaCurve drops steeply out of A and levels off into B.
type ParabolaCurve struct {
	A, B dynamo.Vec3
	Sag  float64
}

func (ParabolaCurve) Kind() Kind { return Parabola }
func (ParabolaCurve) curve()     {}

func (c ParabolaCurve) Point(t float64) dynamo.Vec3 {
	x := c.A.X() + t*(c.B.X()-c.A.X())
	y := c.A.Y() + t*(c.B.Y()-c.A.Y()) - c.Sag*t*(1-t)
	return dynamo.Vec3{x, y, 0}
}

// CycloidCurve is the inverted cycloid x=R(θ−sinθ), y=−R(1−cosθ), θ=πt,
// stretched along X so that it spans A.x to B.x.
type CycloidCurve struct {
	A      dynamo.Vec3
	Radius float64
	ScaleX float64
}

func (CycloidCurve) Kind() Kind { return Cycloid }
func (CycloidCurve) curve()     {}

// NewCycloid fits a cycloid with radius (A.y−B.y)/2 between the anchors.
func NewCycloid(a, b dynamo.Vec3) CycloidCurve {
	r := (a.Y() - b.Y()) / 2
	scale := 0.0
	if r != 0 {
		scale = (b.X() - a.X()) / (r * math.Pi)
	}
	return CycloidCurve{A: a, Radius: r, ScaleX: scale}
}

func (c CycloidCurve) Point(t float64) dynamo.Vec3 {
	theta := math.Pi * t
	x := c.Radius * (theta - math.Sin(theta))
	y := -c.Radius * (1 - math.Cos(theta))
	return dynamo.Vec3{c.A.X() + x*c.ScaleX, c.A.Y() + y, 0}
}

// Evaluate returns the left and right rail points of c at t. The rails sit
// at zOffset∓halfWidth and share the centreline's X and Y.
func Evaluate(c Curve, t, halfWidth, zOffset float64) (left, right dynamo.Vec3) {
	p := c.Point(t)
	left = dynamo.Vec3{p.X(), p.Y(), zOffset - halfWidth}
	right = dynamo.Vec3{p.X(), p.Y(), zOffset + halfWidth}
	return left, right
}
