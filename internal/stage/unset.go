package stage

import (
	"fmt"

	"github.com/san-kum/windsim/internal/dynamo"
)

// Unset is the fallback installed in every registry before dispatch. Any
// call logs and raises the shutdown flag instead of doing nothing.
type Unset struct {
	kind string
	env  *dynamo.Env
}

func NewUnset(kind string, env *dynamo.Env) *Unset {
	return &Unset{kind: kind, env: env}
}

func (u *Unset) fail() error {
	err := fmt.Errorf("%w: %s", dynamo.ErrUnsetStage, u.kind)
	u.env.Log.WithField("stage", u.kind).Error("should not be here: stage was never dispatched")
	u.env.Shutdown.Request(err)
	return err
}

func (u *Unset) Step(dynamo.Derivative, *dynamo.StateVector, float64) error {
	return u.fail()
}

func (u *Unset) Derive(*dynamo.Env, *dynamo.StateVector, dynamo.State) { u.fail() }
func (u *Unset) Generate(*dynamo.Env)                                  { u.fail() }
func (u *Unset) Aero(*dynamo.Env)                                      { u.fail() }
func (u *Unset) Transmit(*dynamo.Env)                                  { u.fail() }
func (u *Unset) Control(*dynamo.Env)                                   { u.fail() }
func (u *Unset) Process(*dynamo.Env)                                   { u.fail() }

var (
	_ dynamo.Integrator        = (*Unset)(nil)
	_ dynamo.EquationOfMotion  = (*Unset)(nil)
	_ dynamo.FlowGenerator     = (*Unset)(nil)
	_ dynamo.FlowModel         = (*Unset)(nil)
	_ dynamo.Drivetrain        = (*Unset)(nil)
	_ dynamo.TurbineController = (*Unset)(nil)
	_ dynamo.DataProcessor     = (*Unset)(nil)
)
