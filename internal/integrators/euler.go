package integrators

import "github.com/san-kum/windsim/internal/dynamo"

type Euler struct {
	x0, dx dynamo.State
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(f dynamo.Derivative, sv *dynamo.StateVector, dt float64) error {
	n := sv.Len()
	e.x0 = ensure(e.x0, n)
	e.dx = ensure(e.dx, n)

	sv.Load(e.x0)
	if err := evaluate(f, sv, e.dx); err != nil {
		sv.Store(e.x0)
		return err
	}
	for i := 0; i < n; i++ {
		sv.Set(i, e.x0[i]+dt*e.dx[i])
	}
	return nil
}
