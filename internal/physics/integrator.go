package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/brachisim/internal/dynamo"
)

// Update advances the body by dt seconds at simulation time now. It is a
// no-op on the platform and after the body has stopped.
//
// Gravity drives the body along the track with magnitude g·sin(atan|slope|)
// regardless of travel direction; friction opposes the current velocity.
// The net acceleration is divided by mass.
func (b *Body) Update(dt, now float64) Outcome {
	if b.onPlatform || b.finished || b.wallStopped {
		return Idle
	}

	_, slope := b.geom.Lookup(b.t)
	angle := math.Atan(math.Abs(slope))

	mu := b.params.Mu
	if b.rebounded {
		mu = b.params.MuRamp
	}
	friction := mu * dynamo.Gravity * math.Cos(angle)

	accel := dynamo.Gravity * math.Sin(angle)
	switch {
	case b.v > 0:
		accel -= friction
	case b.v < 0:
		accel += friction
	}
	b.v += accel * dt / b.params.Mass

	length := b.geom.Length
	if !(length > 0) {
		panic(fmt.Sprintf("physics: %s geometry has length %g", b.Name, length))
	}
	newT := (b.t*length + b.v*dt) / length

	r := b.params.Policy.Resolve(Contact{
		NewT:      newT,
		V:         b.v,
		Rebounded: b.rebounded,
		Rebounds:  b.rebounds,
	})
	b.apply(r, now)
	return r.Outcome
}

func (b *Body) apply(r Resolution, now float64) {
	b.t = r.T
	b.v = r.V
	b.rebounded = r.Rebounded
	b.rebounds = r.Rebounds
	if b.v < 0 {
		b.direction = -1
	} else if b.v > 0 {
		b.direction = 1
	}

	switch r.Outcome {
	case FirstImpact:
		b.firstImpact, b.hasFirstImpact = now, true
	case Stop:
		b.finished = true
		b.wallStopped = true
		b.finalStop, b.hasFinalStop = now, true
		return
	}

	b.pos = b.renderAt(b.t)
}

// Valid reports whether the body's numeric state is finite.
func (b *Body) Valid() bool {
	return !math.IsNaN(b.t) && !math.IsInf(b.t, 0) &&
		!math.IsNaN(b.v) && !math.IsInf(b.v, 0) && dynamo.Finite(b.pos)
}
