package flow

import (
	"fmt"
	"math"

	"github.com/san-kum/windsim/internal/dynamo"
)

// Constant holds the wind at flow_constant_speed.
type Constant struct {
	speed float64
	out   *float64
}

func (c *Constant) Bind(env *dynamo.Env) error {
	v, err := env.Fixed.Number("flow_constant_speed")
	if err != nil {
		return fmt.Errorf("%s: %w", ConstantID, err)
	}
	out, err := env.Dynamic.Output(SpeedParam)
	if err != nil {
		return fmt.Errorf("%s: %w", ConstantID, err)
	}
	c.speed, c.out = v, out
	return nil
}

func (c *Constant) Generate(*dynamo.Env) { *c.out = c.speed }

// Sine is a gust around a mean speed: mean + amplitude*sin(2*pi*f*t).
type Sine struct {
	mean, amplitude, freq float64
	out                   *float64
}

func (s *Sine) Bind(env *dynamo.Env) error {
	var err error
	if s.mean, err = env.Fixed.Number("flow_mean_speed"); err != nil {
		return fmt.Errorf("%s: %w", SineID, err)
	}
	if s.amplitude, err = env.Fixed.FloatOr("flow_amplitude", 0); err != nil {
		return fmt.Errorf("%s: %w", SineID, err)
	}
	if s.freq, err = env.Fixed.FloatOr("flow_frequency", 0); err != nil {
		return fmt.Errorf("%s: %w", SineID, err)
	}
	if s.out, err = env.Dynamic.Output(SpeedParam); err != nil {
		return fmt.Errorf("%s: %w", SineID, err)
	}
	return nil
}

func (s *Sine) Generate(env *dynamo.Env) {
	*s.out = s.mean + s.amplitude*math.Sin(2*math.Pi*s.freq*env.Time())
}
