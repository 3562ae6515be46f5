package integrators

import "github.com/san-kum/windsim/internal/dynamo"

type RK4 struct {
	x0             dynamo.State
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.x0 = make(dynamo.State, n)
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK4) Step(f dynamo.Derivative, sv *dynamo.StateVector, dt float64) error {
	n := sv.Len()
	r.ensureScratch(n)
	sv.Load(r.x0)

	if err := evaluate(f, sv, r.k1); err != nil {
		sv.Store(r.x0)
		return err
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = r.x0[i] + dt*0.5*r.k1[i]
	}
	sv.Store(r.scratch)
	if err := evaluate(f, sv, r.k2); err != nil {
		sv.Store(r.x0)
		return err
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = r.x0[i] + dt*0.5*r.k2[i]
	}
	sv.Store(r.scratch)
	if err := evaluate(f, sv, r.k3); err != nil {
		sv.Store(r.x0)
		return err
	}

	for i := 0; i < n; i++ {
		r.scratch[i] = r.x0[i] + dt*r.k3[i]
	}
	sv.Store(r.scratch)
	if err := evaluate(f, sv, r.k4); err != nil {
		sv.Store(r.x0)
		return err
	}

	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		r.scratch[i] = r.x0[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
	sv.Store(r.scratch)
	return nil
}
