// Package engine is the orchestrator of a simulation run. It dispatches
// the seven stages named in the fixed table, binds the state vector and
// drives the fixed-step main loop:
//
//	flow_gen -> integrator(eom) -> clock -> histories ->
//	turbine_control (every control_dt) -> continuous log -> data_proc
//
// The engine owns the [dynamo.Env] of the run and implements
// [dynamo.Stages] so stages can reach the nested flow-sim-model and
// drivetrain.
package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/windsim/internal/aero"
	"github.com/san-kum/windsim/internal/control"
	"github.com/san-kum/windsim/internal/dataproc"
	"github.com/san-kum/windsim/internal/drivetrain"
	"github.com/san-kum/windsim/internal/dynamo"
	"github.com/san-kum/windsim/internal/flow"
	"github.com/san-kum/windsim/internal/integrators"
	mx "github.com/san-kum/windsim/internal/metrics"
	"github.com/san-kum/windsim/internal/params"
	"github.com/san-kum/windsim/internal/physics"
	"github.com/san-kum/windsim/internal/stage"
	"github.com/san-kum/windsim/internal/storage"
)

type Options struct {
	// Role overrides the process_role parameter when set.
	Role dynamo.Role
	// Storage enables continuous logging into a run directory.
	Storage   *storage.Store
	RunID     string
	ParentPID int
	// Argv is persisted as process_argv when Storage is set.
	Argv    []string
	Log     *logrus.Entry
	Metrics *mx.Loop
}

type Engine struct {
	env  *dynamo.Env
	opts Options

	flow    *stage.Registry[dynamo.FlowGenerator]
	integ   *stage.Registry[dynamo.Integrator]
	eom     *stage.Registry[dynamo.EquationOfMotion]
	model   *stage.Registry[dynamo.FlowModel]
	drive   *stage.Registry[dynamo.Drivetrain]
	control *stage.Registry[dynamo.TurbineController]
	proc    *stage.Registry[dynamo.DataProcessor]

	sv       *dynamo.StateVector
	clock    *ControlClock
	steps    int64
	duration float64
	timeRef  *float64
	cmdRef   *float64

	rec     *storage.Recorder
	effort  *mx.ControlEffort
	peak    *mx.Peak
	closers []namedCloser

	summary Summary
	ran     bool
	closed  bool
}

type namedCloser struct {
	kind string
	c    dynamo.Closer
}

// New prepares a run over store. On error every resource acquired so far
// is released and the shutdown flag of the run carries the cause.
func New(store *params.Store, opts Options) (*Engine, error) {
	e := &Engine{
		env:    dynamo.NewEnv(store, opts.Log),
		opts:   opts,
		effort: mx.NewControlEffort(),
		peak:   mx.NewPeak("peak_gen_torque_cmd"),
	}
	env := e.env
	env.Stages = e
	env.RunID = opts.RunID
	if env.RunID == "" {
		env.RunID = storage.NewRunID()
	}

	if err := e.setup(); err != nil {
		env.Shutdown.Request(err)
		e.closeStages()
		return nil, err
	}
	return e, nil
}

func (e *Engine) setup() error {
	env := e.env
	fixed := env.Fixed

	role := e.opts.Role
	if role == "" {
		name, err := fixed.TextOr("process_role", string(dynamo.RoleSingle))
		if err != nil {
			return err
		}
		if role, err = dynamo.ParseRole(name); err != nil {
			return err
		}
	}
	env.Role = role
	env.Log = env.Log.WithField("run", env.RunID)

	if err := e.timing(); err != nil {
		return err
	}
	var err error
	if e.timeRef, err = env.Dynamic.Output("time"); err != nil {
		return err
	}
	if _, err := env.Dynamic.Output(flow.SpeedParam); err != nil {
		return err
	}
	if err := e.recordProcess(); err != nil {
		return err
	}

	e.register()
	if err := e.dispatch(); err != nil {
		return err
	}
	if e.sv, err = dynamo.BindState(env.Dynamic); err != nil {
		return err
	}
	if err := e.histories(); err != nil {
		return err
	}
	if err := e.bind(); err != nil {
		return err
	}
	if e.cmdRef, err = env.Dynamic.Float64(control.CommandParam); errors.Is(err, params.ErrNotFound) {
		e.cmdRef = nil
	} else if err != nil {
		return err
	}

	if e.opts.Storage != nil {
		e.rec, err = e.opts.Storage.Begin(e.metadata(), env.Fixed, env.Dynamic)
		if err != nil {
			return fmt.Errorf("continuous logging: %w", err)
		}
	}
	env.Log.WithFields(logrus.Fields{
		"role":       env.Role,
		"dt":         env.Dt,
		"dur_sec":    e.duration,
		"state_vars": strings.Join(e.sv.Names(), ","),
	}).Info("simulation ready")
	return nil
}

func (e *Engine) timing() error {
	fixed := e.env.Fixed
	dt, err := fixed.Number("dt")
	if err != nil {
		return err
	}
	if dt <= 0 || math.IsNaN(dt) {
		return fmt.Errorf("dt must be positive, got %g", dt)
	}
	if e.duration, err = fixed.Number("dur_sec"); err != nil {
		return err
	}
	if e.duration < 0 || math.IsNaN(e.duration) {
		return fmt.Errorf("dur_sec must not be negative, got %g", e.duration)
	}
	controlDt, err := fixed.FloatOr("control_dt", dt)
	if err != nil {
		return err
	}
	if e.clock, err = NewControlClock(dt, controlDt); err != nil {
		return err
	}
	e.env.Dt = dt
	return nil
}

func (e *Engine) recordProcess() error {
	env := e.env
	if e.opts.ParentPID > 0 {
		if _, err := env.Fixed.AddOrUpdate("parent_pid", params.Int(e.opts.ParentPID)); err != nil {
			return err
		}
	}
	if e.opts.Storage != nil && len(e.opts.Argv) > 0 {
		argv := params.String(strings.Join(e.opts.Argv, " "))
		if err := env.Store.Persist(env.Fixed, "process_argv", argv); err != nil {
			return fmt.Errorf("persist process_argv: %w", err)
		}
	}
	return nil
}

// register installs the fail-loud fallback in every registry.
func (e *Engine) register() {
	env := e.env
	e.flow = stage.NewRegistry[dynamo.FlowGenerator](KindFlowGen, stage.NewUnset(KindFlowGen, env), flow.Stages()...)
	e.integ = stage.NewRegistry[dynamo.Integrator](KindIntegrator, stage.NewUnset(KindIntegrator, env), integrators.Stages()...)
	e.eom = stage.NewRegistry[dynamo.EquationOfMotion](KindEOM, stage.NewUnset(KindEOM, env), physics.Stages()...)
	e.model = stage.NewRegistry[dynamo.FlowModel](KindFlowSimModel, stage.NewUnset(KindFlowSimModel, env), aero.Stages()...)
	e.drive = stage.NewRegistry[dynamo.Drivetrain](KindDrivetrain, stage.NewUnset(KindDrivetrain, env), drivetrain.Stages()...)
	e.control = stage.NewRegistry[dynamo.TurbineController](KindTurbineControl, stage.NewUnset(KindTurbineControl, env), control.Stages()...)
	e.proc = stage.NewRegistry[dynamo.DataProcessor](KindDataProc, stage.NewUnset(KindDataProc, env), dataproc.Stages()...)
}

type dispatcher interface {
	Kind() string
	DispatchOrAbort(id string, sd *dynamo.Shutdown, log *logrus.Entry) error
}

func (e *Engine) dispatchers() []dispatcher {
	return []dispatcher{e.flow, e.integ, e.eom, e.model, e.drive, e.control, e.proc}
}

func (e *Engine) dispatch() error {
	env := e.env
	required := make(map[string]bool)
	for _, k := range Catalog() {
		required[k.Kind] = k.Required
	}
	for _, d := range e.dispatchers() {
		param := SelectorParam(d.Kind())
		if !env.Fixed.Has(param) && !required[d.Kind()] {
			env.Log.WithField("stage", d.Kind()).Debug("no implementation selected, fallback stays active")
			continue
		}
		id, err := env.Fixed.Text(param)
		if err != nil {
			return err
		}
		if err := d.DispatchOrAbort(id, env.Shutdown, env.Log); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) histories() error {
	fixed := e.env.Fixed
	list, err := fixed.TextOr("history_vars", "")
	if err != nil {
		return err
	}
	depth := 1
	if fixed.Has("history_depth") {
		ref, err := fixed.Int("history_depth")
		if err != nil {
			return err
		}
		depth = *ref
	}
	hs, err := params.NewHistorySet(e.env.Dynamic, params.SplitNames(list), depth)
	if err != nil {
		return err
	}
	e.env.History = hs
	return nil
}

// bind calls Bind on every dispatched stage that has one, nested stages
// first, and collects the Close hooks.
func (e *Engine) bind() error {
	actives := []struct {
		kind string
		ok   bool
		s    any
	}{
		{KindFlowGen, e.flow.Dispatched(), e.flow.Active()},
		{KindFlowSimModel, e.model.Dispatched(), e.model.Active()},
		{KindDrivetrain, e.drive.Dispatched(), e.drive.Active()},
		{KindEOM, e.eom.Dispatched(), e.eom.Active()},
		{KindIntegrator, e.integ.Dispatched(), e.integ.Active()},
		{KindTurbineControl, e.control.Dispatched(), e.control.Active()},
		{KindDataProc, e.proc.Dispatched(), e.proc.Active()},
	}
	for _, a := range actives {
		if !a.ok {
			continue
		}
		// Registered before Bind so a partial Bind is still released.
		if c, ok := a.s.(dynamo.Closer); ok {
			e.closers = append(e.closers, namedCloser{a.kind, c})
		}
		if b, ok := a.s.(dynamo.Binder); ok {
			if err := b.Bind(e.env); err != nil {
				return fmt.Errorf("bind %s: %w", a.kind, err)
			}
		}
	}
	return nil
}

func (e *Engine) metadata() storage.RunMetadata {
	stages := make(map[string]string)
	for _, d := range []struct {
		kind string
		id   string
	}{
		{KindFlowGen, e.flow.ActiveID()},
		{KindIntegrator, e.integ.ActiveID()},
		{KindEOM, e.eom.ActiveID()},
		{KindFlowSimModel, e.model.ActiveID()},
		{KindDrivetrain, e.drive.ActiveID()},
		{KindTurbineControl, e.control.ActiveID()},
		{KindDataProc, e.proc.ActiveID()},
	} {
		stages[d.kind] = d.id
	}
	return storage.RunMetadata{
		ID:         e.env.RunID,
		ParamsPath: e.env.Store.Path(),
		Role:       string(e.env.Role),
		ParentPID:  e.opts.ParentPID,
		Dt:         e.env.Dt,
		ControlDt:  e.clock.period,
		Duration:   e.duration,
		Stages:     stages,
	}
}

func (e *Engine) Env() *dynamo.Env { return e.env }

func (e *Engine) FlowModel() dynamo.FlowModel   { return e.model.Active() }
func (e *Engine) Drivetrain() dynamo.Drivetrain { return e.drive.Active() }

// ActiveID returns the identifier dispatched for kind.
func (e *Engine) ActiveID(kind string) string {
	switch kind {
	case KindFlowGen:
		return e.flow.ActiveID()
	case KindIntegrator:
		return e.integ.ActiveID()
	case KindEOM:
		return e.eom.ActiveID()
	case KindFlowSimModel:
		return e.model.ActiveID()
	case KindDrivetrain:
		return e.drive.ActiveID()
	case KindTurbineControl:
		return e.control.ActiveID()
	case KindDataProc:
		return e.proc.ActiveID()
	}
	return ""
}

// RunDir is the continuous log directory, empty when logging is off.
func (e *Engine) RunDir() string {
	if e.rec == nil {
		return ""
	}
	return e.rec.Dir()
}

// closeStages runs the Close hooks in reverse bind order.
func (e *Engine) closeStages() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		nc := e.closers[i]
		if err := nc.c.Close(e.env); err != nil {
			e.env.Log.WithField("stage", nc.kind).WithError(err).Error("close failed")
			errs = append(errs, fmt.Errorf("close %s: %w", nc.kind, err))
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}
