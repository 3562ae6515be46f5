package integrators

import "github.com/san-kum/windsim/internal/dynamo"

// AB2 is the two-step Adams-Bashforth method. It is not self-starting: the
// first step of an instance is a Heun step that seeds the derivative
// history.
type AB2 struct {
	prevDeriv dynamo.State
	started   bool

	x0, k, kStar, scratch dynamo.State
}

func NewAB2() *AB2 {
	return &AB2{}
}

// Started reports whether the derivative history has been seeded.
func (a *AB2) Started() bool { return a.started }

func (a *AB2) ensureScratch(n int) {
	if len(a.x0) != n {
		a.x0 = make(dynamo.State, n)
		a.k = make(dynamo.State, n)
		a.kStar = make(dynamo.State, n)
		a.scratch = make(dynamo.State, n)
		a.prevDeriv = make(dynamo.State, n)
		a.started = false
	}
}

func (a *AB2) Step(f dynamo.Derivative, sv *dynamo.StateVector, dt float64) error {
	n := sv.Len()
	a.ensureScratch(n)
	sv.Load(a.x0)

	if err := evaluate(f, sv, a.k); err != nil {
		sv.Store(a.x0)
		return err
	}

	if !a.started {
		return a.heun(f, sv, dt)
	}

	halfDt := 0.5 * dt
	for i := 0; i < n; i++ {
		a.scratch[i] = a.x0[i] + halfDt*(3*a.k[i]-a.prevDeriv[i])
	}
	sv.Store(a.scratch)
	copy(a.prevDeriv, a.k)
	return nil
}

func (a *AB2) heun(f dynamo.Derivative, sv *dynamo.StateVector, dt float64) error {
	n := len(a.x0)
	for i := 0; i < n; i++ {
		a.scratch[i] = a.x0[i] + dt*a.k[i]
	}
	sv.Store(a.scratch)
	if err := evaluate(f, sv, a.kStar); err != nil {
		sv.Store(a.x0)
		return err
	}

	halfDt := 0.5 * dt
	for i := 0; i < n; i++ {
		a.scratch[i] = a.x0[i] + halfDt*(a.k[i]+a.kStar[i])
	}
	sv.Store(a.scratch)
	copy(a.prevDeriv, a.kStar)
	a.started = true
	return nil
}
