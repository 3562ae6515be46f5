package physics

import (
	"fmt"

	"github.com/san-kum/windsim/internal/dynamo"
)

// Ball is a projectile in one dimension with constant gravity.
type Ball struct {
	Gravity float64
	idx     pair
}

func (b *Ball) Bind(env *dynamo.Env) error {
	g, err := env.Fixed.Number("gravity_acc_g")
	if err != nil {
		return fmt.Errorf("%s: %w", BallID, err)
	}
	b.Gravity = g
	return nil
}

func (b *Ball) Derive(env *dynamo.Env, sv *dynamo.StateVector, dx dynamo.State) {
	if err := b.idx.resolve(sv); err != nil {
		env.Fail(BallID, err)
		return
	}
	dx[b.idx.theta] = sv.At(b.idx.omega)
	dx[b.idx.omega] = -b.Gravity
}

// Energy is the mechanical energy per unit mass.
func (b *Ball) Energy(theta, omega float64) float64 {
	return 0.5*omega*omega + b.Gravity*theta
}
