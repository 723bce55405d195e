package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/brachisim/internal/dynamo"
)

type countingObserver struct {
	calls int
	last  dynamo.Snapshot
}

func (c *countingObserver) OnStep(s dynamo.Snapshot) {
	c.calls++
	c.last = s
}

func newDefault(t *testing.T) *Scenario {
	t.Helper()
	s, err := New(DefaultSettings())
	if err != nil {
		t.Fatalf("new scenario: %v", err)
	}
	return s
}

func TestScenarioIdleBeforeStart(t *testing.T) {
	s := newDefault(t)

	snap := s.Step(0.016)
	if snap.Started {
		t.Error("scenario should not be started")
	}
	if snap.Time != 0 || snap.Step != 0 {
		t.Errorf("clock advanced before start: t=%f step=%d", snap.Time, snap.Step)
	}
	for _, b := range snap.Bodies {
		if b.Phase != dynamo.PhasePlatform {
			t.Errorf("%s phase = %s, want platform", b.Name, b.Phase)
		}
	}
}

func TestScenarioReleaseSequence(t *testing.T) {
	s := newDefault(t)
	s.Start()

	a := s.Ramps().A
	var released float64
	for i := 0; i < 400; i++ {
		snap := s.Step(0.016)
		if snap.PlatformX < a.X()-3.0-1e-9 {
			t.Fatalf("platform retreated past its limit: %f", snap.PlatformX)
		}
		if snap.Bodies[0].Phase != dynamo.PhasePlatform && released == 0 {
			released = snap.Time
		}
	}

	if released < 2.0 {
		t.Errorf("bodies released at %f, before the platform moved", released)
	}
	if released > 3.0 {
		t.Errorf("bodies released late at %f", released)
	}

	releases := 0
	for _, e := range s.Events() {
		if e.Kind == dynamo.EventRelease {
			releases++
		}
	}
	if releases != 3 {
		t.Errorf("expected 3 release events, got %d", releases)
	}
}

func TestScenarioRunCycloidWins(t *testing.T) {
	s := newDefault(t)

	result, err := s.Run(context.Background(), dynamo.DefaultConfig())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.AllStoppedTime == nil {
		t.Fatal("race did not finish")
	}
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected state errors: %v", result.Errors)
	}
	if got := result.Summaries[0].Curve; got != "cycloid" {
		t.Errorf("winner = %s, want cycloid", got)
	}
	if got := result.Summaries[2].Curve; got != "line" {
		t.Errorf("last = %s, want line", got)
	}

	for _, sum := range result.Summaries {
		if sum.FirstImpact == nil || sum.FinalStop == nil {
			t.Errorf("%s missing impact or stop time", sum.Name)
			continue
		}
		if *sum.FinalStop < *sum.FirstImpact {
			t.Errorf("%s stopped before it hit the wall", sum.Name)
		}
		if sum.Rebounds > 4 {
			t.Errorf("%s rebounded %d times", sum.Name, sum.Rebounds)
		}
	}

	last := result.Frames[len(result.Frames)-1]
	if !last.AllStopped {
		t.Error("last frame should report all stopped")
	}
	if result.StepsTaken != len(result.Frames)-1 {
		t.Errorf("steps %d vs frames %d", result.StepsTaken, len(result.Frames))
	}
	if result.Events[len(result.Events)-1].Kind != dynamo.EventAllStopped {
		t.Errorf("last event = %s", result.Events[len(result.Events)-1].Kind)
	}
}

func TestScenarioRestartIsIdempotent(t *testing.T) {
	s := newDefault(t)
	fresh := s.Snapshot()

	s.Start()
	for i := 0; i < 300; i++ {
		s.Step(0.016)
	}
	s.Restart()
	once := s.Snapshot()
	s.Restart()
	twice := s.Snapshot()

	for i := range fresh.Bodies {
		if once.Bodies[i].Position != fresh.Bodies[i].Position {
			t.Errorf("%s not back on platform: %v", once.Bodies[i].Name, once.Bodies[i].Position)
		}
		if once.Bodies[i] != twice.Bodies[i] {
			t.Errorf("%s differs after second restart", once.Bodies[i].Name)
		}
	}
	if len(s.Events()) != 0 {
		t.Error("events should be cleared")
	}
	if s.Started() {
		t.Error("restart should stop the race")
	}
}

func TestScenarioReconfigure(t *testing.T) {
	s := newDefault(t)
	s.Start()
	for i := 0; i < 250; i++ {
		s.Step(0.016)
	}

	if err := s.Reconfigure(dynamo.Vec3{2, 7, 0}, 1.5); err != nil {
		t.Fatalf("reconfigure: %v", err)
	}
	cfg := s.Ramps()
	if cfg.B.X() != 8 || cfg.B.Y() != 1 {
		t.Errorf("B = %v, want (8, 1, 0)", cfg.B)
	}
	snap := s.Snapshot()
	if snap.PlatformX != 2 {
		t.Errorf("platform x = %f, want 2", snap.PlatformX)
	}
	for _, b := range snap.Bodies {
		if got := b.Position.Y() - 0.15; math.Abs(got-7.3) > 1e-9 {
			t.Errorf("%s rests at %f, want platform height 7.3", b.Name, got)
		}
	}

	before := s.Geometry()
	err := s.Reconfigure(dynamo.Vec3{2, 1, 0}, 1)
	if !errors.Is(err, dynamo.ErrDegenerateAnchors) {
		t.Fatalf("expected degenerate anchors, got %v", err)
	}
	if s.Geometry() != before {
		t.Error("failed reconfigure replaced geometry")
	}
}

func TestScenarioSetBodyParam(t *testing.T) {
	s := newDefault(t)

	if err := s.SetBodyParam("Line", "mass", 2); err != nil {
		t.Fatalf("set mass: %v", err)
	}
	if got := s.Settings().Bodies[0].Params.Mass; got != 2 {
		t.Errorf("mass = %f, want 2", got)
	}
	if err := s.SetBodyParam("Line", "mass", -1); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected bounds error, got %v", err)
	}
	if err := s.SetBodyParam("Nope", "mass", 1); err == nil {
		t.Error("expected unknown body error")
	}
	if err := s.SetBodyParam("Line", "colour", 1); err == nil {
		t.Error("expected unknown param error")
	}
}

func TestScenarioObserversAndMetrics(t *testing.T) {
	s := newDefault(t)
	obs := &countingObserver{}
	s.AddObserver(obs)

	cfg := dynamo.Config{Dt: 0.016, Duration: 1.0}
	result, err := s.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if obs.calls != result.StepsTaken {
		t.Errorf("observer called %d times for %d steps", obs.calls, result.StepsTaken)
	}
	if obs.last.Step != result.StepsTaken {
		t.Errorf("last observed step %d", obs.last.Step)
	}
}

func TestScenarioRunCanceled(t *testing.T) {
	s := newDefault(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx, dynamo.DefaultConfig())
	if !errors.Is(err, dynamo.ErrContextCanceled) {
		t.Errorf("expected ErrContextCanceled, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     dynamo.Config
		wantErr bool
	}{
		{"valid", dynamo.Config{Dt: 0.01, Duration: 1.0}, false},
		{"zero dt", dynamo.Config{Dt: 0, Duration: 1.0}, true},
		{"negative dt", dynamo.Config{Dt: -0.01, Duration: 1.0}, true},
		{"zero duration", dynamo.Config{Dt: 0.01, Duration: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewRejectsDuplicateNames(t *testing.T) {
	settings := DefaultSettings()
	settings.Bodies[1].Name = settings.Bodies[0].Name
	if _, err := New(settings); err == nil {
		t.Error("expected duplicate name error")
	}
}
