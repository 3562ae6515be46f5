// Package control provides the turbine-control stages. Controllers run at
// the control rate and write the generator torque command gen_torque_cmd
// read by the drivetrain:
//
//   - [None]: leaves the command untouched
//   - [KOmegaSq]: optimal-tip-speed-ratio law k_opt * omega^2
//   - [PIDSpeed]: PID on the averaged rotor speed toward speed_setpoint
//
// # Usage
//
//	pid := control.NewPID(kp, ki, kd, setpoint)
//	u := pid.Update(measured, t)
//
// [PIDSpeed] reads omega through its history, so the parameter must be
// listed in history_vars.
package control

import (
	"github.com/san-kum/windsim/internal/dynamo"
	"github.com/san-kum/windsim/internal/stage"
)

const (
	NoneID     = "none_turbine_control"
	KOmegaSqID = "k_omega_sq_turbine_control"
	PIDSpeedID = "pid_speed_turbine_control"
)

// CommandParam is the dynamic parameter controllers write.
const CommandParam = "gen_torque_cmd"

func Stages() []stage.Entry[dynamo.TurbineController] {
	return []stage.Entry[dynamo.TurbineController]{
		{ID: NoneID, New: func() dynamo.TurbineController { return &None{} }},
		{ID: KOmegaSqID, New: func() dynamo.TurbineController { return &KOmegaSq{} }},
		{ID: PIDSpeedID, New: func() dynamo.TurbineController { return &PIDSpeed{} }},
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
