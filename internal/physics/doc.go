// Package physics provides the equation-of-motion stages.
//
// Each model implements [dynamo.EquationOfMotion], filling the derivative
// of the state-marked dynamic parameters:
//
//   - [Ball]: point mass under gravity, theta is height and omega velocity
//   - [Rotor]: rigid rotor driven by aerodynamic torque against the
//     drivetrain load
//
// Both models integrate the state pair theta and omega. [Rotor] drives the
// active flow-sim-model and drivetrain stages on every evaluation, so the
// aerodynamic and generator outputs follow the perturbed state the
// integrator is evaluating.
//
// # Energy
//
// [Ball] exposes its specific mechanical energy, which is conserved:
//
//	b := &physics.Ball{Gravity: 9.81}
//	e := b.Energy(theta, omega)
package physics

import (
	"github.com/san-kum/windsim/internal/dynamo"
	"github.com/san-kum/windsim/internal/stage"
)

const (
	BallID  = "ball_eom"
	RotorID = "rotor_eom"
)

const (
	ThetaParam = "theta"
	OmegaParam = "omega"
)

func Stages() []stage.Entry[dynamo.EquationOfMotion] {
	return []stage.Entry[dynamo.EquationOfMotion]{
		{ID: BallID, New: func() dynamo.EquationOfMotion { return &Ball{} }},
		{ID: RotorID, New: func() dynamo.EquationOfMotion { return &Rotor{} }},
	}
}

// pair caches the positions of theta and omega in one state vector.
type pair struct {
	sv           *dynamo.StateVector
	theta, omega int
}

func (p *pair) resolve(sv *dynamo.StateVector) error {
	if p.sv == sv {
		return nil
	}
	theta, err := sv.MustIndex(ThetaParam)
	if err != nil {
		return err
	}
	omega, err := sv.MustIndex(OmegaParam)
	if err != nil {
		return err
	}
	p.sv, p.theta, p.omega = sv, theta, omega
	return nil
}
