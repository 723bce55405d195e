package sim

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/san-kum/brachisim/internal/dynamo"
	"github.com/san-kum/brachisim/internal/physics"
	"github.com/san-kum/brachisim/internal/ramp"
)

// Scenario owns the track geometry and the bodies racing on it. Step and
// Reconfigure are serialized: a rebuild is published to every body before
// the next tick runs.
type Scenario struct {
	mu sync.RWMutex

	settings Settings
	set      *ramp.Set
	bodies   []*physics.Body

	clock          float64
	steps          int
	started        bool
	platformX      float64
	platformMoving bool
	allStopped     bool
	allStoppedAt   float64
	events         []dynamo.Event

	observers []dynamo.Observer
	metrics   []dynamo.Metric
	logger    *log.Logger
}

// New builds the geometry for every track and places the bodies on the
// platform. Degenerate anchors are rejected here, before any body exists.
func New(settings Settings) (*Scenario, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	set, err := ramp.BuildSet(settings.Ramp, settings.PhysicsSamples, settings.RenderSamples)
	if err != nil {
		return nil, err
	}

	s := &Scenario{
		settings:  settings,
		set:       set,
		bodies:    make([]*physics.Body, 0, len(settings.Bodies)),
		observers: make([]dynamo.Observer, 0),
		metrics:   make([]dynamo.Metric, 0),
		logger:    log.New(io.Discard),
	}
	for _, spec := range settings.Bodies {
		b, err := physics.NewBody(spec.Name, set.Physics[spec.Kind], platformFor(set.Config, spec.Kind), spec.Params)
		if err != nil {
			return nil, err
		}
		if spec.Color != nil {
			b.Color = *spec.Color
		}
		s.bodies = append(s.bodies, b)
	}
	s.resetLocked()
	return s, nil
}

func (s *Scenario) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard)
	}
	s.mu.Lock()
	s.logger = l
	s.mu.Unlock()
}

func (s *Scenario) AddObserver(o dynamo.Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

func (s *Scenario) AddMetric(m dynamo.Metric) {
	s.mu.Lock()
	s.metrics = append(s.metrics, m)
	s.mu.Unlock()
}

// Start begins the release countdown. It is a no-op once started.
func (s *Scenario) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.logger.Info("race started", "a", s.set.Config.A, "b", s.set.Config.B)
}

func (s *Scenario) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Step advances the scenario by dt seconds and returns the new snapshot.
// Before Start it only reports the current state.
func (s *Scenario) Step(dt float64) dynamo.Snapshot {
	s.mu.Lock()
	if s.started && dt > 0 {
		s.advanceLocked(dt)
	}
	snap := s.snapshotLocked()
	observers := append([]dynamo.Observer(nil), s.observers...)
	metrics := append([]dynamo.Metric(nil), s.metrics...)
	s.mu.Unlock()

	for _, m := range metrics {
		m.Observe(snap)
	}
	for _, o := range observers {
		o.OnStep(snap)
	}
	return snap
}

func (s *Scenario) advanceLocked(dt float64) {
	s.clock += dt
	s.steps++
	cfg := s.set.Config
	rel := s.settings.Release

	if s.clock >= rel.Delay && !s.platformMoving {
		s.platformMoving = true
		s.logger.Info("platform retreating", "t", s.clock)
	}
	if s.platformMoving && s.platformX > cfg.A.X()-rel.MaxRetreat {
		s.platformX = math.Max(s.platformX-rel.PlatformSpeed*dt, cfg.A.X()-rel.MaxRetreat)
	}
	if s.platformX <= cfg.A.X()-rel.Distance {
		for _, b := range s.bodies {
			if b.Release() {
				s.record(b, dynamo.EventRelease)
				s.logger.Info("released", "body", b.Name, "t", s.clock)
			}
		}
	}

	stopped := 0
	for _, b := range s.bodies {
		out := b.Update(dt, s.clock)
		if kind, ok := out.Event(); ok {
			s.record(b, kind)
			switch kind {
			case dynamo.EventImpact:
				s.logger.Info("impact", "body", b.Name, "t", s.clock)
			case dynamo.EventStop:
				s.logger.Info("stopped", "body", b.Name, "t", s.clock, "rebounds", b.Rebounds())
			default:
				s.logger.Debug(string(kind), "body", b.Name, "t", s.clock, "v", b.Velocity())
			}
		}
		if b.WallStopped() {
			stopped++
		}
	}

	if !s.allStopped && stopped == len(s.bodies) {
		s.allStopped = true
		s.allStoppedAt = s.clock
		s.events = append(s.events, dynamo.Event{Time: s.clock, Kind: dynamo.EventAllStopped})
		s.logger.Info("all bodies stopped", "t", s.clock)
	}
}

func (s *Scenario) record(b *physics.Body, kind dynamo.EventKind) {
	s.events = append(s.events, dynamo.Event{
		Time:     s.clock,
		Body:     b.Name,
		Kind:     kind,
		T:        b.T(),
		Velocity: b.Velocity(),
		Rebounds: b.Rebounds(),
	})
}

// Snapshot returns the current state without advancing it.
func (s *Scenario) Snapshot() dynamo.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Scenario) snapshotLocked() dynamo.Snapshot {
	floor := s.set.Config.B.Y()
	snap := dynamo.Snapshot{
		Step:       s.steps,
		Time:       s.clock,
		Started:    s.started,
		PlatformX:  s.platformX,
		AllStopped: s.allStopped,
		Bodies:     make([]dynamo.BodySnapshot, len(s.bodies)),
	}
	for i, b := range s.bodies {
		snap.Bodies[i] = b.Snapshot(floor)
	}
	return snap
}

// Restart puts every body back on the platform and rewinds the clock.
func (s *Scenario) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.logger.Info("race reset")
}

func (s *Scenario) resetLocked() {
	for _, b := range s.bodies {
		b.Reset()
	}
	s.clock = 0
	s.steps = 0
	s.started = false
	s.platformX = s.set.Config.A.X()
	s.platformMoving = false
	s.allStopped = false
	s.allStoppedAt = 0
	s.events = s.events[:0]
}

// Reconfigure moves A (B follows) and rebuilds every track. The new
// geometry is built before taking the lock and published to all bodies at
// once; the race is reset.
func (s *Scenario) Reconfigure(a dynamo.Vec3, separation float64) error {
	cfg, err := ramp.NewConfig(a, separation)
	if err != nil {
		return err
	}
	s.mu.RLock()
	physicsN, renderN := s.settings.PhysicsSamples, s.settings.RenderSamples
	cfg.Width = s.settings.Ramp.Width
	s.mu.RUnlock()

	set, err := ramp.BuildSet(cfg, physicsN, renderN)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.bodies {
		k := s.settings.Bodies[i].Kind
		if err := b.Rebind(set.Physics[k], platformFor(cfg, k)); err != nil {
			return err
		}
	}
	s.set = set
	s.settings.Ramp = cfg
	s.resetLocked()
	s.logger.Info("tracks rebuilt", "a", cfg.A, "b", cfg.B, "separation", cfg.Separation)
	return nil
}

// SetBodyParam changes radius, mass or friction of the named body.
func (s *Scenario) SetBodyParam(name, param string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.bodies {
		if b.Name != name {
			continue
		}
		var err error
		switch param {
		case "radius":
			err = b.SetRadius(value)
		case "mass":
			err = b.SetMass(value)
		case "friction", "mu":
			err = b.SetFriction(value)
		default:
			return fmt.Errorf("unknown param: %s", param)
		}
		if err == nil {
			s.settings.Bodies[i].Params = b.Params()
		}
		return err
	}
	return fmt.Errorf("unknown body: %s", name)
}

// Ramps returns the current track configuration.
func (s *Scenario) Ramps() ramp.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.Config
}

// Geometry returns the current geometry set. It is immutable; a later
// Reconfigure replaces it rather than changing it.
func (s *Scenario) Geometry() *ramp.Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set
}

func (s *Scenario) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.settings
	out.Bodies = append([]BodySpec(nil), s.settings.Bodies...)
	return out
}

func (s *Scenario) Events() []dynamo.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]dynamo.Event(nil), s.events...)
}

func (s *Scenario) AllStopped() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allStoppedAt, s.allStopped
}

// Standings ranks bodies by first impact time. Bodies that have not hit
// the wall rank after those that have, further along the track first.
func (s *Scenario) Standings() []dynamo.BodySummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.standingsLocked()
}

func (s *Scenario) standingsLocked() []dynamo.BodySummary {
	order := make([]*physics.Body, len(s.bodies))
	copy(order, s.bodies)
	sort.SliceStable(order, func(i, j int) bool {
		ti, oki := order[i].FirstImpact()
		tj, okj := order[j].FirstImpact()
		switch {
		case oki && okj:
			return ti < tj
		case oki != okj:
			return oki
		default:
			return order[i].T() > order[j].T()
		}
	})

	out := make([]dynamo.BodySummary, len(order))
	for i, b := range order {
		snap := b.Snapshot(0)
		out[i] = dynamo.BodySummary{
			Name:        b.Name,
			Curve:       b.Kind().String(),
			Rank:        i + 1,
			FirstImpact: snap.FirstImpact,
			FinalStop:   snap.FinalStop,
			Rebounds:    b.Rebounds(),
			Length:      b.Geometry().Length,
		}
	}
	return out
}

func (s *Scenario) validBodiesLocked() error {
	for _, b := range s.bodies {
		if !b.Valid() {
			return &dynamo.SimulationError{Step: s.steps, Time: s.clock, Body: b.Name, Wrapped: dynamo.ErrInvalidState}
		}
	}
	return nil
}

func validateConfig(cfg dynamo.Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}

// Run starts the race and steps it until every body has stopped or
// cfg.Duration of simulated time has elapsed.
func (s *Scenario) Run(ctx context.Context, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	s.mu.RLock()
	for _, m := range s.metrics {
		m.Reset()
	}
	s.mu.RUnlock()

	steps := int(math.Ceil(cfg.Duration / cfg.Dt))
	result := &dynamo.Result{
		Frames:  make([]dynamo.Snapshot, 0, steps+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	s.Start()
	result.Frames = append(result.Frames, s.Snapshot())

	var runErr error
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			runErr = fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}
		if runErr != nil {
			break
		}

		snap := s.Step(cfg.Dt)
		result.Frames = append(result.Frames, snap)
		result.StepsTaken++

		if cfg.ValidateState {
			s.mu.RLock()
			err := s.validBodiesLocked()
			s.mu.RUnlock()
			if err != nil {
				result.Errors = append(result.Errors, err)
				break
			}
		}
		if snap.AllStopped {
			break
		}
	}

	s.mu.RLock()
	result.Events = append([]dynamo.Event(nil), s.events...)
	result.Summaries = s.standingsLocked()
	if s.allStopped {
		at := s.allStoppedAt
		result.AllStoppedTime = &at
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	s.mu.RUnlock()

	return result, runErr
}
