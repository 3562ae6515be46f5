package params

import "fmt"

// Param is one named, typed value. The kind is fixed at creation.
type Param struct {
	Name    string
	IsState bool

	kind Kind
	i    int
	f    float64
	s    string
}

func newParam(name string, v Value) *Param {
	p := &Param{Name: name, kind: v.Kind}
	p.assign(v)
	return p
}

func (p *Param) assign(v Value) {
	switch v.Kind {
	case KindInt:
		p.i = v.Int
	case KindDouble:
		p.f = v.Double
	case KindString:
		p.s = v.Str
	}
}

func (p *Param) Kind() Kind { return p.kind }

// Value returns a copy of the current value.
func (p *Param) Value() Value {
	switch p.kind {
	case KindInt:
		return Int(p.i)
	case KindDouble:
		return Double(p.f)
	default:
		return String(p.s)
	}
}

// Set overwrites the value. The kind must match.
func (p *Param) Set(v Value) error {
	if v.Kind != p.kind {
		return fmt.Errorf("%w: %q is %v, got %v", ErrTypeMismatch, p.Name, p.kind, v.Kind)
	}
	p.assign(v)
	return nil
}

// Table is an ordered, growable collection of parameters. Entry order is
// insertion order and never changes.
type Table struct {
	name    string
	entries []*Param
	index   map[string]int
}

func NewTable(name string) *Table {
	return &Table{name: name, index: make(map[string]int)}
}

func (t *Table) Name() string { return t.name }
func (t *Table) Len() int     { return len(t.entries) }

// Params returns the entries in insertion order. The slice is shared.
func (t *Table) Params() []*Param { return t.entries }

// AddOrUpdate overwrites the value of an existing entry or appends a new one.
// Updating an entry with a value of a different kind fails with
// ErrTypeMismatch and leaves the entry untouched.
func (t *Table) AddOrUpdate(name string, v Value) (*Param, error) {
	if i, ok := t.index[name]; ok {
		p := t.entries[i]
		if err := p.Set(v); err != nil {
			return nil, fmt.Errorf("%s table: %w", t.name, err)
		}
		return p, nil
	}
	p := newParam(name, v)
	t.index[name] = len(t.entries)
	t.entries = append(t.entries, p)
	return p, nil
}

// Ensure returns the named entry, creating it with v when absent.
func (t *Table) Ensure(name string, v Value) (*Param, error) {
	if p, err := t.Get(name); err == nil {
		if p.kind != v.Kind {
			return nil, fmt.Errorf("%w: %q in %s table is %v, want %v", ErrTypeMismatch, name, t.name, p.kind, v.Kind)
		}
		return p, nil
	}
	return t.AddOrUpdate(name, v)
}

// Output returns a binding to a double parameter, creating it at zero when
// absent. Stages use it for the values they write every tick.
func (t *Table) Output(name string) (*float64, error) {
	if _, err := t.Ensure(name, Double(0)); err != nil {
		return nil, err
	}
	return t.Float64(name)
}

// Has reports whether name is present.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Get returns a mutable handle to the named entry.
func (t *Table) Get(name string) (*Param, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s table", ErrNotFound, name, t.name)
	}
	return t.entries[i], nil
}

// Typed returns a copy of the named value along with its kind.
func (t *Table) Typed(name string) (Kind, Value, error) {
	p, err := t.Get(name)
	if err != nil {
		return 0, Value{}, err
	}
	return p.kind, p.Value(), nil
}

// Float64 returns a binding to the storage of a double parameter.
func (t *Table) Float64(name string) (*float64, error) {
	p, err := t.typed(name, KindDouble)
	if err != nil {
		return nil, err
	}
	return &p.f, nil
}

// Int returns a binding to the storage of an int parameter.
func (t *Table) Int(name string) (*int, error) {
	p, err := t.typed(name, KindInt)
	if err != nil {
		return nil, err
	}
	return &p.i, nil
}

// Text returns the current value of a string parameter.
func (t *Table) Text(name string) (string, error) {
	p, err := t.typed(name, KindString)
	if err != nil {
		return "", err
	}
	return p.s, nil
}

// Number returns an int or double parameter as a float64.
func (t *Table) Number(name string) (float64, error) {
	p, err := t.Get(name)
	if err != nil {
		return 0, err
	}
	f, ok := p.Value().Float()
	if !ok {
		return 0, fmt.Errorf("%w: %q in %s table is %v, want a number", ErrTypeMismatch, name, t.name, p.kind)
	}
	return f, nil
}

// FloatOr returns the numeric parameter or def when it is absent.
func (t *Table) FloatOr(name string, def float64) (float64, error) {
	if !t.Has(name) {
		return def, nil
	}
	return t.Number(name)
}

// TextOr returns the string parameter or def when it is absent.
func (t *Table) TextOr(name, def string) (string, error) {
	if !t.Has(name) {
		return def, nil
	}
	return t.Text(name)
}

func (t *Table) typed(name string, k Kind) (*Param, error) {
	p, err := t.Get(name)
	if err != nil {
		return nil, err
	}
	if p.kind != k {
		return nil, fmt.Errorf("%w: %q in %s table is %v, want %v", ErrTypeMismatch, name, t.name, p.kind, k)
	}
	return p, nil
}

// StateBindings scans the table for entries marked as state variables and
// returns parallel name and binding slices in insertion order. Only double
// parameters can be integrated.
func (t *Table) StateBindings() ([]string, []*float64, error) {
	var names []string
	var refs []*float64
	for _, p := range t.entries {
		if !p.IsState {
			continue
		}
		if p.kind != KindDouble {
			return nil, nil, fmt.Errorf("%w: state variable %q is %v, want double", ErrTypeMismatch, p.Name, p.kind)
		}
		names = append(names, p.Name)
		refs = append(refs, &p.f)
	}
	return names, refs, nil
}

// Header returns the entry names in column order.
func (t *Table) Header() []string {
	h := make([]string, len(t.entries))
	for i, p := range t.entries {
		h[i] = p.Name
	}
	return h
}

// SnapshotRow formats every entry in the table's current column order.
func (t *Table) SnapshotRow() []string {
	row := make([]string, len(t.entries))
	for i, p := range t.entries {
		row[i] = p.Value().Format()
	}
	return row
}
