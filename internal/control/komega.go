package control

import (
	"fmt"
	"math"

	"github.com/san-kum/windsim/internal/dynamo"
)

// KOmegaSq tracks the optimal tip speed ratio below rated wind speed.
type KOmegaSq struct {
	K         float64
	MaxTorque float64
	omega     *float64
	cmd       *float64
}

func (c *KOmegaSq) Bind(env *dynamo.Env) error {
	var err error
	if c.K, err = env.Fixed.Number("k_opt"); err != nil {
		return fmt.Errorf("%s: %w", KOmegaSqID, err)
	}
	if c.MaxTorque, err = env.Fixed.FloatOr("max_gen_torque", math.Inf(1)); err != nil {
		return fmt.Errorf("%s: %w", KOmegaSqID, err)
	}
	if c.omega, err = env.Dynamic.Output("omega"); err != nil {
		return fmt.Errorf("%s: %w", KOmegaSqID, err)
	}
	if c.cmd, err = env.Dynamic.Output(CommandParam); err != nil {
		return fmt.Errorf("%s: %w", KOmegaSqID, err)
	}
	return nil
}

func (c *KOmegaSq) Control(*dynamo.Env) {
	w := *c.omega
	*c.cmd = clamp(c.K*w*w, 0, c.MaxTorque)
}
