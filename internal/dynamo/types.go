package dynamo

import (
	"fmt"
	"io"
	"math"

	"github.com/san-kum/windsim/internal/params"
	"github.com/sirupsen/logrus"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// StateVector is the integrator's view of the state: an ordered list of
// names and bindings into the dynamic table. Writing through the vector
// writes the table, so nested stages observe the values being evaluated.
type StateVector struct {
	names []string
	refs  []*float64
	index map[string]int
}

func NewStateVector(names []string, refs []*float64) (*StateVector, error) {
	if len(names) != len(refs) {
		return nil, fmt.Errorf("%w: %d names for %d bindings", ErrDimensionMismatch, len(names), len(refs))
	}
	sv := &StateVector{
		names: append([]string(nil), names...),
		refs:  append([]*float64(nil), refs...),
		index: make(map[string]int, len(names)),
	}
	for i, n := range sv.names {
		sv.index[n] = i
	}
	return sv, nil
}

// BindState builds the state vector of every state-marked entry of t.
func BindState(t *params.Table) (*StateVector, error) {
	names, refs, err := t.StateBindings()
	if err != nil {
		return nil, err
	}
	return NewStateVector(names, refs)
}

// Standalone builds a state vector owning its own storage.
func Standalone(names []string, x0 State) (*StateVector, error) {
	refs := make([]*float64, len(x0))
	for i := range x0 {
		v := x0[i]
		refs[i] = &v
	}
	return NewStateVector(names, refs)
}

func (s *StateVector) Len() int          { return len(s.refs) }
func (s *StateVector) Names() []string   { return s.names }
func (s *StateVector) Name(i int) string { return s.names[i] }
func (s *StateVector) At(i int) float64  { return *s.refs[i] }
func (s *StateVector) Set(i int, v float64) {
	*s.refs[i] = v
}

// Index returns the position of the named state variable.
func (s *StateVector) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// MustIndex is Index for names a stage requires.
func (s *StateVector) MustIndex(name string) (int, error) {
	i, ok := s.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: state variable %q not bound", ErrDimensionMismatch, name)
	}
	return i, nil
}

// Load copies the current values into dst, which must have Len elements.
func (s *StateVector) Load(dst State) {
	for i, r := range s.refs {
		dst[i] = *r
	}
}

// Store writes src through the bindings.
func (s *StateVector) Store(src State) {
	for i, r := range s.refs {
		*r = src[i]
	}
}

// Values returns a copy of the current values.
func (s *StateVector) Values() State {
	v := make(State, len(s.refs))
	s.Load(v)
	return v
}

// Derivative fills dx with the time derivative at the state currently held
// by sv. It may have side effects on the dynamic table.
type Derivative func(sv *StateVector, dx State) error

// Role is the part a process plays around the shared interpolation cache.
type Role string

const (
	RoleSingle   Role = "single"
	RoleProducer Role = "producer"
	RoleConsumer Role = "consumer"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleSingle, RoleProducer, RoleConsumer:
		return r, nil
	case "":
		return RoleSingle, nil
	default:
		return "", fmt.Errorf("unknown process role: %s", s)
	}
}

// Produces reports whether the role creates and destroys shared data.
func (r Role) Produces() bool { return r != RoleConsumer }

// Stages gives stage implementations access to the stages they nest.
type Stages interface {
	FlowModel() FlowModel
	Drivetrain() Drivetrain
}

// Env is the simulation context shared by all stages of a run.
type Env struct {
	Fixed    *params.Table
	Dynamic  *params.Table
	Store    *params.Store
	History  *params.HistorySet
	Shutdown *Shutdown
	Log      *logrus.Entry
	Stages   Stages
	Role     Role
	RunID    string

	Dt   float64
	Tick int64
}

// NewEnv builds a context over store. A nil log discards output.
func NewEnv(store *params.Store, log *logrus.Entry) *Env {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = logrus.NewEntry(l)
	}
	return &Env{
		Fixed:    store.Fixed,
		Dynamic:  store.Dynamic,
		Store:    store,
		Shutdown: NewShutdown(),
		Log:      log,
		Role:     RoleSingle,
	}
}

// Time is the simulated time at the current tick.
func (e *Env) Time() float64 { return float64(e.Tick) * e.Dt }

// Fail logs err for the component and raises the shutdown flag.
func (e *Env) Fail(component string, err error) {
	e.Log.WithField("component", component).WithError(err).Error("fatal condition")
	e.Shutdown.Request(err)
}

type Integrator interface {
	Step(f Derivative, sv *StateVector, dt float64) error
}

type EquationOfMotion interface {
	Derive(env *Env, sv *StateVector, dx State)
}

type FlowGenerator interface {
	Generate(env *Env)
}

type FlowModel interface {
	Aero(env *Env)
}

type Drivetrain interface {
	Transmit(env *Env)
}

type TurbineController interface {
	Control(env *Env)
}

type DataProcessor interface {
	Process(env *Env)
}

// Binder is implemented by stages that resolve parameter handles once,
// after they have been dispatched and before the first tick.
type Binder interface {
	Bind(env *Env) error
}

// Closer is implemented by stages holding resources released at shutdown.
type Closer interface {
	Close(env *Env) error
}
