package flow

import (
	"fmt"

	"github.com/san-kum/windsim/internal/dynamo"
	"github.com/san-kum/windsim/internal/params"
	"github.com/san-kum/windsim/internal/shm"
)

// Data-end policies for CSVInterp.
const (
	EndShutdown = "shutdown"
	EndHold     = "hold"
)

// TotalDurationParam is persisted by the producer so consumers can size
// their view of the shared cache.
const TotalDurationParam = "flow_total_duration"

// CSVInterp replays a measured wind file interpolated onto the simulation
// grid. Producers resample the file into the shared cache; consumers map
// the cache read-only and never touch the file.
type CSVInterp struct {
	region  *shm.Region
	samples []float64
	policy  string
	out     *float64
	ended   bool
}

func (c *CSVInterp) Bind(env *dynamo.Env) error {
	policy, err := env.Fixed.TextOr("flow_data_end_policy", EndShutdown)
	if err != nil {
		return fmt.Errorf("%s: %w", CSVInterpID, err)
	}
	if policy != EndShutdown && policy != EndHold {
		return fmt.Errorf("%s: unknown data end policy %q", CSVInterpID, policy)
	}
	name, err := env.Fixed.TextOr("shm_name", shm.DefaultName)
	if err != nil {
		return fmt.Errorf("%s: %w", CSVInterpID, err)
	}
	if c.out, err = env.Dynamic.Output(SpeedParam); err != nil {
		return fmt.Errorf("%s: %w", CSVInterpID, err)
	}
	c.policy = policy

	if env.Role.Produces() {
		err = c.produce(env, name)
	} else {
		err = c.consume(env, name)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", CSVInterpID, err)
	}
	c.samples = c.region.Values()
	env.Log.WithField("stage", CSVInterpID).
		WithField("samples", len(c.samples)).
		WithField("role", env.Role).
		Info("interpolation cache ready")
	return nil
}

func (c *CSVInterp) produce(env *dynamo.Env, name string) error {
	path, err := env.Fixed.Text("flow_csv_path")
	if err != nil {
		return err
	}
	series, err := ReadSeriesFile(path)
	if err != nil {
		return err
	}
	if err := env.Store.Persist(env.Fixed, TotalDurationParam, params.Double(series.End())); err != nil {
		return fmt.Errorf("persist %s: %w", TotalDurationParam, err)
	}
	c.region, err = shm.Create(name, series.Resample(env.Dt))
	return err
}

func (c *CSVInterp) consume(env *dynamo.Env, name string) error {
	total, err := env.Fixed.Number(TotalDurationParam)
	if err != nil {
		return err
	}
	c.region, err = shm.OpenReadOnly(name, GridLen(total, env.Dt))
	return err
}

func (c *CSVInterp) Generate(env *dynamo.Env) {
	k := env.Tick
	if k < int64(len(c.samples)) {
		*c.out = c.samples[k]
		return
	}
	*c.out = c.samples[len(c.samples)-1]
	if c.policy == EndHold || c.ended {
		return
	}
	c.ended = true
	env.Fail(CSVInterpID, fmt.Errorf("%w: tick %d past %d wind samples", dynamo.ErrDataExhausted, k, len(c.samples)))
}

// Close destroys the region when this process created it, otherwise only
// unmaps it.
func (c *CSVInterp) Close(*dynamo.Env) error {
	if c.region == nil {
		return nil
	}
	r := c.region
	c.region, c.samples = nil, nil
	if r.Owner() {
		return r.Destroy()
	}
	return r.Close()
}
