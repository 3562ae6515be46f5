// Package metrics holds the run summary metrics and the Prometheus
// collectors of the simulation loop.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/san-kum/windsim/internal/dynamo"
)

// Loop instruments the main loop.
type Loop struct {
	Ticks          prometheus.Counter
	ControlFirings prometheus.Counter
	StepSeconds    prometheus.Histogram
	SimTime        prometheus.Gauge
	Shutdowns      *prometheus.CounterVec
}

// NewLoop creates the collectors and registers them with reg when it is
// not nil.
func NewLoop(reg prometheus.Registerer) (*Loop, error) {
	l := &Loop{
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "windsim",
			Name:      "ticks_total",
			Help:      "Integration ticks completed.",
		}),
		ControlFirings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "windsim",
			Name:      "control_firings_total",
			Help:      "Turbine controller invocations.",
		}),
		StepSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "windsim",
			Name:      "tick_duration_seconds",
			Help:      "Wall time spent per tick.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		SimTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "windsim",
			Name:      "simulated_time_seconds",
			Help:      "Simulated time reached.",
		}),
		Shutdowns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "windsim",
			Name:      "shutdowns_total",
			Help:      "Runs ended early, by reason.",
		}, []string{"reason"}),
	}
	if reg == nil {
		return l, nil
	}
	for _, c := range []prometheus.Collector{l.Ticks, l.ControlFirings, l.StepSeconds, l.SimTime, l.Shutdowns} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Tick records one completed tick.
func (l *Loop) Tick(took time.Duration, simTime float64) {
	l.Ticks.Inc()
	l.StepSeconds.Observe(took.Seconds())
	l.SimTime.Set(simTime)
}

func (l *Loop) Control() { l.ControlFirings.Inc() }

// Shutdown counts an early stop under a reason label derived from err.
func (l *Loop) Shutdown(err error) {
	l.Shutdowns.WithLabelValues(Reason(err)).Inc()
}

// Reason maps a shutdown cause to a short label.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, dynamo.ErrInterrupted):
		return "interrupted"
	case errors.Is(err, dynamo.ErrDataExhausted):
		return "data_exhausted"
	case errors.Is(err, dynamo.ErrUnsetStage):
		return "unset_stage"
	case errors.Is(err, dynamo.ErrInvalidState):
		return "invalid_state"
	default:
		return "error"
	}
}
