// Package integrators provides the fixed-step integration methods.
//
// Each integrator advances a [dynamo.StateVector] in place by one step.
// Intermediate stages are written through the vector, so side effects of
// the derivative see the values being evaluated. A step either completes
// or fails with the state restored to its value on entry.
package integrators

import (
	"github.com/san-kum/windsim/internal/dynamo"
	"github.com/san-kum/windsim/internal/stage"
)

const (
	EulerID = "euler_integrator"
	AB2ID   = "ab2_integrator"
	RK4ID   = "rk4_integrator"
)

// Stages returns the integrator identifiers and their constructors.
func Stages() []stage.Entry[dynamo.Integrator] {
	return []stage.Entry[dynamo.Integrator]{
		{ID: EulerID, New: func() dynamo.Integrator { return NewEuler() }},
		{ID: AB2ID, New: func() dynamo.Integrator { return NewAB2() }},
		{ID: RK4ID, New: func() dynamo.Integrator { return NewRK4() }},
	}
}

func ensure(buf dynamo.State, n int) dynamo.State {
	if len(buf) != n {
		return make(dynamo.State, n)
	}
	return buf
}

// evaluate calls f with a cleared dx and rejects non-finite derivatives.
func evaluate(f dynamo.Derivative, sv *dynamo.StateVector, dx dynamo.State) error {
	for i := range dx {
		dx[i] = 0
	}
	if err := f(sv, dx); err != nil {
		return err
	}
	if !dx.IsValid() {
		return dynamo.ErrInvalidState
	}
	return nil
}
