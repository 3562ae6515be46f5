package physics

import (
	"fmt"

	"github.com/san-kum/windsim/internal/dynamo"
)

// Rotor integrates azimuth and speed of the rotor:
//
//	dtheta = omega
//	domega = (aero_torque - shaft_torque) / rotor_inertia
//
// aero_torque comes from the flow-sim-model stage and shaft_torque, the
// generator load referred to the rotor side, from the drivetrain stage.
type Rotor struct {
	Inertia float64
	aero    *float64
	shaft   *float64
	idx     pair
}

func (r *Rotor) Bind(env *dynamo.Env) error {
	var err error
	if r.Inertia, err = env.Fixed.Number("rotor_inertia"); err != nil {
		return fmt.Errorf("%s: %w", RotorID, err)
	}
	if r.Inertia <= 0 {
		return fmt.Errorf("%s: rotor_inertia must be positive, got %g", RotorID, r.Inertia)
	}
	if r.aero, err = env.Dynamic.Output("aero_torque"); err != nil {
		return fmt.Errorf("%s: %w", RotorID, err)
	}
	if r.shaft, err = env.Dynamic.Output("shaft_torque"); err != nil {
		return fmt.Errorf("%s: %w", RotorID, err)
	}
	return nil
}

func (r *Rotor) Derive(env *dynamo.Env, sv *dynamo.StateVector, dx dynamo.State) {
	if err := r.idx.resolve(sv); err != nil {
		env.Fail(RotorID, err)
		return
	}
	env.Stages.FlowModel().Aero(env)
	env.Stages.Drivetrain().Transmit(env)

	dx[r.idx.theta] = sv.At(r.idx.omega)
	dx[r.idx.omega] = (*r.aero - *r.shaft) / r.Inertia
}
