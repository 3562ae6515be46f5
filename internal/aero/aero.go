// Package aero provides the flow-sim-model stages, which turn the wind
// speed and rotor state into aerodynamic torque on the rotor.
package aero

import (
	"fmt"
	"math"

	"github.com/san-kum/windsim/internal/dynamo"
	"github.com/san-kum/windsim/internal/stage"
)

const (
	NoneID     = "none_flow_sim_model"
	CpLambdaID = "cp_lambda_flow_sim_model"
)

// BetzLimit bounds the power coefficient of any rotor.
const BetzLimit = 16.0 / 27.0

// minLambda keeps the torque finite for a rotor at rest.
const minLambda = 0.1

func Stages() []stage.Entry[dynamo.FlowModel] {
	return []stage.Entry[dynamo.FlowModel]{
		{ID: NoneID, New: func() dynamo.FlowModel { return &None{} }},
		{ID: CpLambdaID, New: func() dynamo.FlowModel { return NewCpLambda() }},
	}
}

// None applies no aerodynamic load.
type None struct {
	torque *float64
}

func (n *None) Bind(env *dynamo.Env) error {
	var err error
	n.torque, err = env.Dynamic.Output("aero_torque")
	return err
}

func (n *None) Aero(*dynamo.Env) { *n.torque = 0 }

// Coefficients of the Cp(lambda, beta) surface
//
//	1/li = 1/(lambda + 0.08 beta) - 0.035/(beta^3 + 1)
//	Cp   = C1 (C2/li - C3 beta - C4) exp(-C5/li) + C6 lambda
//
// with beta the blade pitch in degrees.
type Coefficients struct {
	C1, C2, C3, C4, C5, C6 float64
}

// Heier is the generic surface used when no coefficients are configured.
var Heier = Coefficients{C1: 0.5176, C2: 116, C3: 0.4, C4: 5, C5: 21, C6: 0.0068}

// Cp evaluates the power coefficient, clamped to [0, BetzLimit]. It is 0
// at the singular points of the surface.
func (c Coefficients) Cp(lambda, beta float64) float64 {
	if lambda <= 0 {
		return 0
	}
	d1, d2 := lambda+0.08*beta, beta*beta*beta+1
	if d1 == 0 || d2 == 0 {
		return 0
	}
	inv := 1/d1 - 0.035/d2
	cp := c.C1*(c.C2*inv-c.C3*beta-c.C4)*math.Exp(-c.C5*inv) + c.C6*lambda
	if math.IsNaN(cp) {
		return 0
	}
	return math.Max(0, math.Min(cp, BetzLimit))
}

// CpLambda computes the rotor torque from a power-coefficient surface.
type CpLambda struct {
	Coeff   Coefficients
	Radius  float64
	Density float64

	omega, wind, pitch *float64
	lambda, cp         *float64
	power, torque      *float64
}

func NewCpLambda() *CpLambda {
	return &CpLambda{Coeff: Heier}
}

func (a *CpLambda) Bind(env *dynamo.Env) error {
	fixed := env.Fixed
	var err error
	if a.Radius, err = fixed.Number("rotor_radius"); err != nil {
		return fmt.Errorf("%s: %w", CpLambdaID, err)
	}
	if a.Density, err = fixed.FloatOr("air_density", 1.225); err != nil {
		return fmt.Errorf("%s: %w", CpLambdaID, err)
	}
	coeff := []struct {
		name string
		dst  *float64
	}{
		{"cp_c1", &a.Coeff.C1}, {"cp_c2", &a.Coeff.C2}, {"cp_c3", &a.Coeff.C3},
		{"cp_c4", &a.Coeff.C4}, {"cp_c5", &a.Coeff.C5}, {"cp_c6", &a.Coeff.C6},
	}
	for _, c := range coeff {
		if *c.dst, err = fixed.FloatOr(c.name, *c.dst); err != nil {
			return fmt.Errorf("%s: %w", CpLambdaID, err)
		}
	}

	dyn := env.Dynamic
	bindings := []struct {
		name string
		dst  **float64
	}{
		{"omega", &a.omega},
		{"flow_speed", &a.wind},
		{"pitch_angle", &a.pitch},
		{"tip_speed_ratio", &a.lambda},
		{"power_coefficient", &a.cp},
		{"aero_power", &a.power},
		{"aero_torque", &a.torque},
	}
	for _, b := range bindings {
		if *b.dst, err = dyn.Output(b.name); err != nil {
			return fmt.Errorf("%s: %w", CpLambdaID, err)
		}
	}
	return nil
}

func (a *CpLambda) Aero(*dynamo.Env) {
	v, w := *a.wind, *a.omega
	if v <= 0 {
		*a.lambda, *a.cp, *a.power, *a.torque = 0, 0, 0, 0
		return
	}
	lambda := w * a.Radius / v
	cp := a.Coeff.Cp(math.Max(lambda, minLambda), *a.pitch)
	area := math.Pi * a.Radius * a.Radius
	power := 0.5 * a.Density * area * v * v * v * cp

	*a.lambda = lambda
	*a.cp = cp
	*a.power = power
	*a.torque = power * a.Radius / (v * math.Max(lambda, minLambda))
}
