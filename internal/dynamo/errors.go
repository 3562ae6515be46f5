package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates mismatched state and derivative lengths.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and derivative")

	// ErrDataExhausted indicates simulated time ran past the available flow data.
	ErrDataExhausted = errors.New("dynamo: flow data exhausted")

	// ErrInterrupted indicates the run was stopped by a signal or context.
	ErrInterrupted = errors.New("dynamo: simulation interrupted")

	// ErrUnsetStage indicates a stage was invoked before any implementation was dispatched.
	ErrUnsetStage = errors.New("dynamo: stage invoked without a dispatched implementation")

	// ErrShutdown indicates a step was abandoned because shutdown was requested.
	ErrShutdown = errors.New("dynamo: shutdown requested")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int64
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// ExitCode maps the outcome of a run onto a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
