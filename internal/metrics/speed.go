package metrics

import (
	"math"

	"github.com/san-kum/brachisim/internal/dynamo"
)

// PeakSpeed tracks the largest |v| a body reaches.
type PeakSpeed struct {
	name string
	body string
	peak float64
}

func NewPeakSpeed(body string) *PeakSpeed {
	return &PeakSpeed{name: "peak_speed/" + body, body: body}
}

func (p *PeakSpeed) Name() string { return p.name }

func (p *PeakSpeed) Observe(s dynamo.Snapshot) {
	if b, ok := find(s, p.body); ok {
		p.peak = math.Max(p.peak, math.Abs(b.Velocity))
	}
}

func (p *PeakSpeed) Value() float64 { return p.peak }

func (p *PeakSpeed) Reset() { p.peak = 0 }
