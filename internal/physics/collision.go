package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/brachisim/internal/dynamo"
)

// Outcome is the transition chosen by a Policy for one tick.
type Outcome int

const (
	Idle Outcome = iota
	Rolling
	FirstImpact
	Rebound
	Stop
	StartBounce
)

func (o Outcome) String() string {
	switch o {
	case Idle:
		return "idle"
	case Rolling:
		return "rolling"
	case FirstImpact:
		return "first_impact"
	case Rebound:
		return "rebound"
	case Stop:
		return "stop"
	case StartBounce:
		return "start_bounce"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Event maps an outcome to the lifecycle event it produces, if any.
func (o Outcome) Event() (dynamo.EventKind, bool) {
	switch o {
	case FirstImpact:
		return dynamo.EventImpact, true
	case Rebound:
		return dynamo.EventRebound, true
	case Stop:
		return dynamo.EventStop, true
	case StartBounce:
		return dynamo.EventStartBounce, true
	default:
		return "", false
	}
}

// Policy governs what happens when a body reaches either end of its track.
// Only the far end can stop a body; the start end always pushes it back.
type Policy struct {
	Restitution float64
	MaxRebounds int
	MinVelocity float64
}

func DefaultPolicy() Policy {
	return Policy{
		Restitution: DefaultRestitution,
		MaxRebounds: DefaultMaxRebounds,
		MinVelocity: DefaultMinVelocity,
	}
}

func (p Policy) Validate() error {
	if !(p.Restitution > 0 && p.Restitution < 1) {
		return fmt.Errorf("restitution %g not in (0,1): %w", p.Restitution, dynamo.ErrParameterBounds)
	}
	if p.MaxRebounds < 1 {
		return fmt.Errorf("max rebounds %d: %w", p.MaxRebounds, dynamo.ErrParameterBounds)
	}
	if p.MinVelocity < 0 {
		return fmt.Errorf("min velocity %g: %w", p.MinVelocity, dynamo.ErrParameterBounds)
	}
	return nil
}

// Contact is the state a Policy inspects: the proposed parameter and the
// velocity already updated for this tick.
type Contact struct {
	NewT      float64
	V         float64
	Rebounded bool
	Rebounds  int
}

// Resolution is the state a Policy hands back.
type Resolution struct {
	T         float64
	V         float64
	Rebounded bool
	Rebounds  int
	Outcome   Outcome
}

// Resolve applies the end-of-track rules to c.
func (p Policy) Resolve(c Contact) Resolution {
	r := Resolution{T: c.NewT, V: c.V, Rebounded: c.Rebounded, Rebounds: c.Rebounds, Outcome: Rolling}
	speed := math.Abs(c.V)

	switch {
	case c.NewT >= 1.0 && !c.Rebounded:
		r.Rebounded = true
		r.Rebounds = 1
		r.V = -speed * p.Restitution
		r.T = 0.98
		r.Outcome = FirstImpact
	case c.NewT >= 1.0 && c.Rebounds < p.MaxRebounds && speed > p.MinVelocity:
		r.Rebounds = c.Rebounds + 1
		r.V = -speed * math.Pow(p.Restitution, float64(r.Rebounds))
		r.T = 1.0 - 0.1/float64(r.Rebounds)
		r.Outcome = Rebound
	case c.NewT >= 1.0:
		r.V = 0
		r.T = 1.0
		r.Outcome = Stop
	case c.NewT <= 0.0:
		r.V = speed * p.Restitution
		r.T = 0.01
		r.Outcome = StartBounce
	}
	return r
}
