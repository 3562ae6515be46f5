package control

import (
	"fmt"
	"math"

	"github.com/san-kum/windsim/internal/dynamo"
	"github.com/san-kum/windsim/internal/params"
)

// PID is a discrete PID controller on a scalar measurement. The output is
// clamped to [Min, Max] and the integral stops accumulating while the
// output is saturated.
type PID struct {
	Kp       float64
	Ki       float64
	Kd       float64
	Target   float64
	Min      float64
	Max      float64
	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Target: target,
		Min:    math.Inf(-1),
		Max:    math.Inf(1),
		first:  true,
	}
}

// Update returns the control output for measurement y at time t. The error
// is y - Target, so a positive output opposes a measurement above target.
func (p *PID) Update(y, t float64) float64 {
	err := y - p.Target

	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		return clamp(p.Kp*err, p.Min, p.Max)
	}

	dt := t - p.prevT
	if dt <= 0 {
		return clamp(p.Kp*err+p.Ki*p.integral, p.Min, p.Max)
	}
	derivative := (err - p.prevErr) / dt
	integral := p.integral + err*dt
	u := p.Kp*err + p.Ki*integral + p.Kd*derivative
	out := clamp(u, p.Min, p.Max)
	if out == u {
		p.integral = integral
	}

	p.prevErr = err
	p.prevT = t
	return out
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

// PIDSpeed regulates rotor speed with the generator torque. The
// measurement is the mean of the recorded omega history, which filters
// the speed over the last history_depth ticks.
type PIDSpeed struct {
	PID   *PID
	hist  *params.History
	omega *float64
	cmd   *float64
}

func (c *PIDSpeed) Bind(env *dynamo.Env) error {
	fixed := env.Fixed
	setpoint, err := fixed.Number("speed_setpoint")
	if err != nil {
		return fmt.Errorf("%s: %w", PIDSpeedID, err)
	}
	var gains [3]float64
	for i, name := range []string{"pid_kp", "pid_ki", "pid_kd"} {
		if gains[i], err = fixed.FloatOr(name, 0); err != nil {
			return fmt.Errorf("%s: %w", PIDSpeedID, err)
		}
	}
	c.PID = NewPID(gains[0], gains[1], gains[2], setpoint)
	c.PID.Min = 0
	if c.PID.Max, err = fixed.FloatOr("max_gen_torque", math.Inf(1)); err != nil {
		return fmt.Errorf("%s: %w", PIDSpeedID, err)
	}

	if c.hist, err = env.History.Get("omega"); err != nil {
		return fmt.Errorf("%s: omega must be listed in history_vars: %w", PIDSpeedID, err)
	}
	if c.omega, err = env.Dynamic.Output("omega"); err != nil {
		return fmt.Errorf("%s: %w", PIDSpeedID, err)
	}
	if c.cmd, err = env.Dynamic.Output(CommandParam); err != nil {
		return fmt.Errorf("%s: %w", PIDSpeedID, err)
	}
	return nil
}

func (c *PIDSpeed) Control(env *dynamo.Env) {
	*c.cmd = c.PID.Update(c.measure(), env.Time())
}

func (c *PIDSpeed) measure() float64 {
	c.hist.Refresh()
	vals := c.hist.Local()
	if len(vals) == 0 {
		return *c.omega
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
