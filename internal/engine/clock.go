package engine

import "fmt"

// ControlClock schedules a stage running every period while physics
// advances by dt. The accumulator stays in [0, period).
type ControlClock struct {
	dt, period float64
	tol        float64
	acc        float64
}

func NewControlClock(dt, period float64) (*ControlClock, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("dt must be positive, got %g", dt)
	}
	if period < dt {
		return nil, fmt.Errorf("control_dt %g is smaller than dt %g", period, dt)
	}
	return &ControlClock{dt: dt, period: period, tol: 1e-9 * dt}, nil
}

// Advance adds one dt and reports whether the control stage is due.
func (c *ControlClock) Advance() bool {
	c.acc += c.dt
	if c.acc < c.period-c.tol {
		return false
	}
	c.acc -= c.period
	if c.acc < c.tol {
		c.acc = 0
	}
	return true
}

// Residual is the time accumulated toward the next firing.
func (c *ControlClock) Residual() float64 { return c.acc }
