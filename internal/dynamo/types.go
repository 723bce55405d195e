package dynamo

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a point or offset in world space, in metres. Y is up.
type Vec3 = mgl64.Vec3

// Gravity is the gravitational acceleration used by every body, m/s².
const Gravity = 9.8

// Finite reports whether every component of v is a real number.
func Finite(v Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Phase is the coarse lifecycle stage of a body.
type Phase string

const (
	PhasePlatform   Phase = "platform"
	PhaseRolling    Phase = "rolling"
	PhaseRebounding Phase = "rebounding"
	PhaseStopped    Phase = "stopped"
)

// EventKind names a discrete transition in a body's lifecycle.
type EventKind string

const (
	EventRelease     EventKind = "release"
	EventImpact      EventKind = "impact"
	EventRebound     EventKind = "rebound"
	EventStartBounce EventKind = "start_bounce"
	EventStop        EventKind = "stop"
	EventAllStopped  EventKind = "all_stopped"
)

// Event records a lifecycle transition at simulation time Time.
type Event struct {
	Time     float64   `json:"time"`
	Body     string    `json:"body,omitempty"`
	Kind     EventKind `json:"kind"`
	T        float64   `json:"t"`
	Velocity float64   `json:"velocity"`
	Rebounds int       `json:"rebounds"`
}

func (e Event) String() string {
	if e.Body == "" {
		return fmt.Sprintf("%.3fs %s", e.Time, e.Kind)
	}
	return fmt.Sprintf("%.3fs %s %s (v=%.3f)", e.Time, e.Body, e.Kind, e.Velocity)
}

// BodySnapshot is the read-only view of one body after a tick.
type BodySnapshot struct {
	Name        string   `json:"name"`
	Curve       string   `json:"curve"`
	Phase       Phase    `json:"phase"`
	T           float64  `json:"t"`
	Velocity    float64  `json:"velocity"`
	Position    Vec3     `json:"position"`
	Height      float64  `json:"height"`
	Mass        float64  `json:"mass"`
	Rebounds    int      `json:"rebounds"`
	FirstImpact *float64 `json:"first_impact,omitempty"`
	FinalStop   *float64 `json:"final_stop,omitempty"`
}

// Snapshot is the state of the whole scenario after a tick.
type Snapshot struct {
	Step       int            `json:"step"`
	Time       float64        `json:"time"`
	Started    bool           `json:"started"`
	PlatformX  float64        `json:"platform_x"`
	AllStopped bool           `json:"all_stopped"`
	Bodies     []BodySnapshot `json:"bodies"`
}

// Observer receives every snapshot produced by a scenario.
type Observer interface {
	OnStep(s Snapshot)
}

// Metric accumulates a scalar over the snapshots of a run.
type Metric interface {
	Name() string
	Observe(s Snapshot)
	Value() float64
	Reset()
}

type Config struct {
	Dt            float64
	Duration      float64
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.016,
		Duration:      60.0,
		ValidateState: true,
	}
}

// BodySummary is the final outcome of one body in a run.
type BodySummary struct {
	Name        string   `json:"name"`
	Curve       string   `json:"curve"`
	Rank        int      `json:"rank"`
	FirstImpact *float64 `json:"first_impact,omitempty"`
	FinalStop   *float64 `json:"final_stop,omitempty"`
	Rebounds    int      `json:"rebounds"`
	Length      float64  `json:"length"`
}

type Result struct {
	Frames         []Snapshot
	Events         []Event
	Summaries      []BodySummary
	Metrics        map[string]float64
	StepsTaken     int
	AllStoppedTime *float64
	Errors         []error
}
