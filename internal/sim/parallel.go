package sim

import (
	"context"
	"sync"

	"github.com/san-kum/brachisim/internal/dynamo"
	"github.com/san-kum/brachisim/internal/ramp"
)

// SweepRun is one race of a sweep, started from a different height of A.
type SweepRun struct {
	Height float64
	Result *dynamo.Result
}

// Sweep races the same bodies from each start height concurrently. Every
// run owns its own Scenario; only the settings are shared.
type Sweep struct {
	base    Settings
	heights []float64
	metrics func() []dynamo.Metric
}

func NewSweep(base Settings, heights []float64) *Sweep {
	return &Sweep{base: base, heights: heights}
}

// WithMetrics installs a factory producing fresh metrics for every run.
func (sw *Sweep) WithMetrics(factory func() []dynamo.Metric) *Sweep {
	sw.metrics = factory
	return sw
}

func (sw *Sweep) Run(ctx context.Context, cfg dynamo.Config) ([]SweepRun, error) {
	runs := make([]SweepRun, len(sw.heights))
	errs := make([]error, len(sw.heights))

	var wg sync.WaitGroup
	for i, h := range sw.heights {
		wg.Add(1)
		go func(idx int, height float64) {
			defer wg.Done()

			settings := sw.base
			settings.Bodies = append([]BodySpec(nil), sw.base.Bodies...)
			a := dynamo.Vec3{sw.base.Ramp.A.X(), height, sw.base.Ramp.A.Z()}
			rc, err := ramp.NewConfig(a, sw.base.Ramp.Separation)
			if err != nil {
				errs[idx] = err
				return
			}
			rc.Width = sw.base.Ramp.Width
			settings.Ramp = rc

			s, err := New(settings)
			if err != nil {
				errs[idx] = err
				return
			}
			if sw.metrics != nil {
				for _, m := range sw.metrics() {
					s.AddMetric(m)
				}
			}

			res, err := s.Run(ctx, cfg)
			runs[idx] = SweepRun{Height: height, Result: res}
			errs[idx] = err
		}(i, h)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return runs, nil
}
