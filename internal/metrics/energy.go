package metrics

import (
	"math"

	"github.com/san-kum/brachisim/internal/dynamo"
)

func find(s dynamo.Snapshot, body string) (dynamo.BodySnapshot, bool) {
	for _, b := range s.Bodies {
		if b.Name == body {
			return b, true
		}
	}
	return dynamo.BodySnapshot{}, false
}

func mechanical(b dynamo.BodySnapshot) float64 {
	return 0.5*b.Mass*b.Velocity*b.Velocity + b.Mass*dynamo.Gravity*b.Height
}

// EnergyLoss is the fraction of a body's mechanical energy lost since it
// left the platform, measured against the finish height.
type EnergyLoss struct {
	name    string
	body    string
	initial float64
	current float64
	started bool
}

func NewEnergyLoss(body string) *EnergyLoss {
	return &EnergyLoss{name: "energy_loss/" + body, body: body}
}

func (e *EnergyLoss) Name() string { return e.name }

func (e *EnergyLoss) Observe(s dynamo.Snapshot) {
	b, ok := find(s, e.body)
	if !ok || b.Phase == dynamo.PhasePlatform {
		return
	}
	energy := mechanical(b)
	if !e.started {
		e.initial = energy
		e.started = true
	}
	e.current = energy
}

func (e *EnergyLoss) Value() float64 {
	if !e.started || e.initial <= 0 {
		return 0
	}
	return math.Max(0, 1-e.current/e.initial)
}

func (e *EnergyLoss) Reset() {
	e.initial = 0
	e.current = 0
	e.started = false
}
