package metrics

import (
	"sort"

	"github.com/san-kum/brachisim/internal/dynamo"
)

// ImpactCount is the number of far-wall contacts of a body, including the
// one that stops it.
type ImpactCount struct {
	name  string
	body  string
	count int
}

func NewImpactCount(body string) *ImpactCount {
	return &ImpactCount{name: "impacts/" + body, body: body}
}

func (c *ImpactCount) Name() string { return c.name }

func (c *ImpactCount) Observe(s dynamo.Snapshot) {
	b, ok := find(s, c.body)
	if !ok {
		return
	}
	c.count = b.Rebounds
	if b.FinalStop != nil {
		c.count++
	}
}

func (c *ImpactCount) Value() float64 { return float64(c.count) }

func (c *ImpactCount) Reset() { c.count = 0 }

// WinMargin is the gap in seconds between the first and second body to
// reach the far wall. It stays 0 until two bodies have arrived.
type WinMargin struct {
	margin float64
}

func NewWinMargin() *WinMargin { return &WinMargin{} }

func (w *WinMargin) Name() string { return "win_margin" }

func (w *WinMargin) Observe(s dynamo.Snapshot) {
	times := make([]float64, 0, len(s.Bodies))
	for _, b := range s.Bodies {
		if b.FirstImpact != nil {
			times = append(times, *b.FirstImpact)
		}
	}
	if len(times) < 2 {
		return
	}
	sort.Float64s(times)
	w.margin = times[1] - times[0]
}

func (w *WinMargin) Value() float64 { return w.margin }

func (w *WinMargin) Reset() { w.margin = 0 }

// Standard returns every per-body metric for the named bodies plus the win
// margin.
func Standard(bodies []string) []dynamo.Metric {
	out := make([]dynamo.Metric, 0, 3*len(bodies)+1)
	for _, name := range bodies {
		out = append(out, NewEnergyLoss(name), NewPeakSpeed(name), NewImpactCount(name))
	}
	return append(out, NewWinMargin())
}
