package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/windsim/internal/dynamo"
)

type recorder struct {
	states []float64
	derivs []float64
}

func (r *recorder) f(sv *dynamo.StateVector, dx dynamo.State) error {
	x := sv.At(0)
	dx[0] = -x
	r.states = append(r.states, x)
	r.derivs = append(r.derivs, dx[0])
	return nil
}

func TestAB2FirstStepIsHeun(t *testing.T) {
	dt := 0.1
	x0 := 1.0

	k1 := -x0
	xStar := x0 + dt*k1
	k2 := -xStar
	heun := x0 + dt/2*(k1+k2)

	rec := &recorder{}
	sv, _ := dynamo.Standalone([]string{"x"}, dynamo.State{x0})
	ab2 := NewAB2()
	if ab2.Started() {
		t.Fatal("fresh instance should not be started")
	}
	if err := ab2.Step(rec.f, sv, dt); err != nil {
		t.Fatal(err)
	}

	if sv.At(0) != heun {
		t.Errorf("first AB2 step = %.12f, want Heun %.12f", sv.At(0), heun)
	}
	if len(rec.states) != 2 {
		t.Errorf("expected 2 evaluations on the starter step, got %d", len(rec.states))
	}
	if !ab2.Started() {
		t.Error("instance should be started after first step")
	}
}

func TestAB2SecondStepUsesHistory(t *testing.T) {
	dt := 0.1
	rec := &recorder{}
	sv, _ := dynamo.Standalone([]string{"x"}, dynamo.State{1})
	ab2 := NewAB2()

	ab2.Step(rec.f, sv, dt)
	x1 := sv.At(0)
	if err := ab2.Step(rec.f, sv, dt); err != nil {
		t.Fatal(err)
	}

	if len(rec.states) != 3 {
		t.Fatalf("expected 3 evaluations after two steps, got %d", len(rec.states))
	}
	if rec.states[2] != x1 {
		t.Errorf("second step evaluated at %f, want x1 %f", rec.states[2], x1)
	}
	want := x1 + dt/2*(3*rec.derivs[2]-rec.derivs[1])
	if math.Abs(sv.At(0)-want) > 1e-15 {
		t.Errorf("second step = %.15f, want %.15f", sv.At(0), want)
	}
}

func TestAB2InstancesAreIndependent(t *testing.T) {
	a, b := NewAB2(), NewAB2()
	svA, _ := dynamo.Standalone([]string{"x"}, dynamo.State{1})
	svB, _ := dynamo.Standalone([]string{"x"}, dynamo.State{1})

	a.Step(decay, svA, 0.1)
	a.Step(decay, svA, 0.1)
	b.Step(decay, svB, 0.1)

	if !b.Started() || svB.At(0) == svA.At(0) {
		t.Errorf("instances share state: a=%f b=%f", svA.At(0), svB.At(0))
	}

	fresh, _ := dynamo.Standalone([]string{"x"}, dynamo.State{1})
	NewAB2().Step(decay, fresh, 0.1)
	if svB.At(0) != fresh.At(0) {
		t.Errorf("second instance did not start with Heun: %f vs %f", svB.At(0), fresh.At(0))
	}
}

func TestAB2FailureKeepsHistory(t *testing.T) {
	boom := errors.New("boom")
	fail := false
	f := func(sv *dynamo.StateVector, dx dynamo.State) error {
		if fail {
			return boom
		}
		return decay(sv, dx)
	}

	ref, _ := dynamo.Standalone([]string{"x"}, dynamo.State{1})
	refInteg := NewAB2()
	refInteg.Step(decay, ref, 0.1)
	refInteg.Step(decay, ref, 0.1)

	sv, _ := dynamo.Standalone([]string{"x"}, dynamo.State{1})
	ab2 := NewAB2()
	ab2.Step(f, sv, 0.1)
	fail = true
	if err := ab2.Step(f, sv, 0.1); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	fail = false
	ab2.Step(f, sv, 0.1)

	if sv.At(0) != ref.At(0) {
		t.Errorf("failed step leaked into history: got %f want %f", sv.At(0), ref.At(0))
	}
}
