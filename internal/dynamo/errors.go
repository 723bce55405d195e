package dynamo

import "errors"

// Domain errors for simulation operations.
var (
	// ErrDegenerateAnchors indicates an anchor pair whose start is not strictly above its end.
	ErrDegenerateAnchors = errors.New("dynamo: degenerate anchors (A must be strictly above B)")

	// ErrZeroLength indicates a sampled curve with no measurable arc length.
	ErrZeroLength = errors.New("dynamo: curve has zero length")

	// ErrInvalidSampleCount indicates a sample table request with fewer than one segment.
	ErrInvalidSampleCount = errors.New("dynamo: sample count must be at least 1")

	// ErrUnknownCurve indicates a curve name or kind outside line, parabola and cycloid.
	ErrUnknownCurve = errors.New("dynamo: unknown curve kind")

	// ErrInvalidState indicates a body state with NaN or Inf values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Body    string
	Wrapped error
}

func (e *SimulationError) Error() string {
	if e.Body == "" {
		return e.Wrapped.Error()
	}
	return e.Body + ": " + e.Wrapped.Error()
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
