package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/windsim/internal/dynamo"
	mx "github.com/san-kum/windsim/internal/metrics"
)

// Summary is the outcome of Run.
type Summary struct {
	RunID          string
	Steps          int64
	Planned        int64
	SimTime        float64
	ControlFirings int64
	Elapsed        time.Duration
	Metrics        map[string]float64
	Err            error
}

// Run executes round(dur_sec/dt) ticks or stops early when the shutdown
// flag is raised. Cancelling ctx requests shutdown with ErrInterrupted.
// The returned error is the shutdown cause, nil for a clean finish.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	if e.ran {
		return e.summary, errors.New("engine: run already executed")
	}
	e.ran = true
	env := e.env
	planned := int64(math.Round(e.duration / env.Dt))
	sum := Summary{RunID: env.RunID, Planned: planned}
	began := time.Now()

	f := func(sv *dynamo.StateVector, dx dynamo.State) error {
		e.eom.Active().Derive(env, sv, dx)
		return env.Shutdown.Err()
	}

	env.Tick = 0
	*e.timeRef = 0
	env.History.Push(0)
	e.record()

	for k := int64(0); k < planned; k++ {
		if err := ctx.Err(); err != nil {
			env.Log.WithError(err).Warn("interrupted")
			env.Shutdown.Request(fmt.Errorf("%w: %v", dynamo.ErrInterrupted, err))
		}
		if env.Shutdown.Requested() {
			break
		}
		start := time.Now()

		env.Tick = k
		e.flow.Active().Generate(env)
		if env.Shutdown.Requested() {
			break
		}
		if err := e.integ.Active().Step(f, e.sv, env.Dt); err != nil {
			if !env.Shutdown.Requested() {
				env.Fail(KindIntegrator, &dynamo.SimulationError{Step: k, Time: env.Time(), Wrapped: err})
			}
			break
		}

		env.Tick = k + 1
		*e.timeRef = env.Time()
		env.History.Push(env.Tick)

		if e.clock.Advance() {
			e.control.Active().Control(env)
			sum.ControlFirings++
			if e.opts.Metrics != nil {
				e.opts.Metrics.Control()
			}
		}
		e.record()
		e.proc.Active().Process(env)
		if e.cmdRef != nil {
			e.effort.Observe(*e.cmdRef)
			e.peak.Observe(*e.cmdRef)
		}

		sum.Steps++
		if e.opts.Metrics != nil {
			e.opts.Metrics.Tick(time.Since(start), env.Time())
		}
	}

	sum.SimTime = env.Time()
	sum.Elapsed = time.Since(began)
	sum.Metrics = e.runMetrics()
	sum.Err = env.Shutdown.Err()
	if sum.Err != nil && e.opts.Metrics != nil {
		e.opts.Metrics.Shutdown(sum.Err)
	}
	e.summary = sum
	return sum, sum.Err
}

func (e *Engine) record() {
	if e.rec == nil {
		return
	}
	if err := e.rec.Record(); err != nil {
		e.env.Fail("logging", err)
	}
}

func (e *Engine) runMetrics() map[string]float64 {
	if e.cmdRef == nil {
		return nil
	}
	return map[string]float64{
		e.effort.Name(): e.effort.Value(),
		e.peak.Name():   e.peak.Value(),
	}
}

// Close releases stage resources in reverse order, finishes the
// continuous log and writes the final closing line. It is safe to call
// more than once.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	err := e.closeStages()
	if e.rec != nil {
		status := "ok"
		if cause := e.env.Shutdown.Err(); cause != nil {
			status = mx.Reason(cause)
		}
		if ferr := e.rec.Finish(e.summary.Steps, status, e.summary.Metrics); ferr != nil {
			err = errors.Join(err, fmt.Errorf("finish run log: %w", ferr))
		}
	}
	e.env.Log.WithField("steps", e.summary.Steps).Info("closing")
	return err
}
