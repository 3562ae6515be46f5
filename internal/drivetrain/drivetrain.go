// Package drivetrain provides the drivetrain stages linking the rotor to
// the generator. A drivetrain reads the commanded generator torque and
// reports the load it puts on the rotor as shaft_torque.
package drivetrain

import (
	"fmt"

	"github.com/san-kum/windsim/internal/dynamo"
	"github.com/san-kum/windsim/internal/stage"
)

const (
	NoneID  = "none_drivetrain"
	RigidID = "rigid_drivetrain"
)

func Stages() []stage.Entry[dynamo.Drivetrain] {
	return []stage.Entry[dynamo.Drivetrain]{
		{ID: NoneID, New: func() dynamo.Drivetrain { return &None{} }},
		{ID: RigidID, New: func() dynamo.Drivetrain { return &Rigid{} }},
	}
}

// None leaves the rotor unloaded.
type None struct {
	shaft *float64
}

func (n *None) Bind(env *dynamo.Env) error {
	var err error
	n.shaft, err = env.Dynamic.Output("shaft_torque")
	return err
}

func (n *None) Transmit(*dynamo.Env) { *n.shaft = 0 }

// Rigid is a stiff shaft through a gearbox of fixed ratio and efficiency.
type Rigid struct {
	Ratio      float64
	Efficiency float64

	omega, cmd          *float64
	genTorque, genSpeed *float64
	genPower, shaft     *float64
}

func (r *Rigid) Bind(env *dynamo.Env) error {
	var err error
	if r.Ratio, err = env.Fixed.FloatOr("gearbox_ratio", 1); err != nil {
		return fmt.Errorf("%s: %w", RigidID, err)
	}
	if r.Efficiency, err = env.Fixed.FloatOr("gearbox_efficiency", 1); err != nil {
		return fmt.Errorf("%s: %w", RigidID, err)
	}
	if r.Ratio <= 0 || r.Efficiency <= 0 || r.Efficiency > 1 {
		return fmt.Errorf("%s: need gearbox_ratio > 0 and 0 < gearbox_efficiency <= 1, got %g and %g",
			RigidID, r.Ratio, r.Efficiency)
	}
	bindings := []struct {
		name string
		dst  **float64
	}{
		{"omega", &r.omega},
		{"gen_torque_cmd", &r.cmd},
		{"gen_torque", &r.genTorque},
		{"gen_speed", &r.genSpeed},
		{"gen_power", &r.genPower},
		{"shaft_torque", &r.shaft},
	}
	for _, b := range bindings {
		if *b.dst, err = env.Dynamic.Output(b.name); err != nil {
			return fmt.Errorf("%s: %w", RigidID, err)
		}
	}
	return nil
}

func (r *Rigid) Transmit(*dynamo.Env) {
	torque := *r.cmd
	speed := *r.omega * r.Ratio
	*r.genTorque = torque
	*r.genSpeed = speed
	*r.genPower = torque * speed
	*r.shaft = torque * r.Ratio / r.Efficiency
}
