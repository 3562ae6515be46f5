package metrics

import "math"

// Metric is a scalar summary of a run, reported in the run metadata.
type Metric interface {
	Name() string
	Observe(v float64)
	Value() float64
	Reset()
}

// ControlEffort is the mean absolute value of a control signal.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(v float64) {
	c.sum += math.Abs(v)
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}

// Peak is the largest absolute value observed.
type Peak struct {
	name string
	max  float64
}

func NewPeak(name string) *Peak {
	return &Peak{name: name}
}

func (p *Peak) Name() string      { return p.name }
func (p *Peak) Observe(v float64) { p.max = math.Max(p.max, math.Abs(v)) }
func (p *Peak) Value() float64    { return p.max }
func (p *Peak) Reset()            { p.max = 0 }
