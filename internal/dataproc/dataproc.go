// Package dataproc provides the data-processing stages, called once per
// tick after the state has advanced. The summary stages keep running
// statistics of the parameters named in summary_vars and write them out
// when the run closes.
package dataproc

import (
	"fmt"
	"math"

	"github.com/san-kum/windsim/internal/dynamo"
	"github.com/san-kum/windsim/internal/params"
	"github.com/san-kum/windsim/internal/stage"
)

const (
	NoneID       = "none_data_proc"
	CSVSummaryID = "csv_summary_data_proc"
	SQLSummaryID = "sqlite_summary_data_proc"
)

func Stages() []stage.Entry[dynamo.DataProcessor] {
	return []stage.Entry[dynamo.DataProcessor]{
		{ID: NoneID, New: func() dynamo.DataProcessor { return None{} }},
		{ID: CSVSummaryID, New: func() dynamo.DataProcessor { return &CSVSummary{} }},
		{ID: SQLSummaryID, New: func() dynamo.DataProcessor { return &SQLSummary{} }},
	}
}

type None struct{}

func (None) Process(*dynamo.Env) {}

// Stats is a running count, mean, min and max.
type Stats struct {
	Name  string
	Count int64
	Mean  float64
	Min   float64
	Max   float64
}

func (s *Stats) Add(v float64) {
	if s.Count == 0 {
		s.Min, s.Max = v, v
	}
	s.Count++
	s.Mean += (v - s.Mean) / float64(s.Count)
	s.Min = math.Min(s.Min, v)
	s.Max = math.Max(s.Max, v)
}

// tracker accumulates Stats for a fixed list of parameters.
type tracker struct {
	params []*params.Param
	stats  []Stats
}

func (t *tracker) bind(env *dynamo.Env, id string) error {
	list, err := env.Fixed.Text("summary_vars")
	if err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}
	names := params.SplitNames(list)
	if len(names) == 0 {
		return fmt.Errorf("%s: summary_vars is empty", id)
	}
	t.params, t.stats = nil, nil
	for _, name := range names {
		p, err := lookup(env, name)
		if err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		if p.Kind() == params.KindString {
			return fmt.Errorf("%s: %w: summary of %q needs a number", id, params.ErrTypeMismatch, name)
		}
		t.params = append(t.params, p)
		t.stats = append(t.stats, Stats{Name: name})
	}
	return nil
}

// lookup prefers the dynamic table, falling back to fixed parameters.
func lookup(env *dynamo.Env, name string) (*params.Param, error) {
	if p, err := env.Dynamic.Get(name); err == nil {
		return p, nil
	}
	return env.Fixed.Get(name)
}

func (t *tracker) observe() {
	for i, p := range t.params {
		v, _ := p.Value().Float()
		t.stats[i].Add(v)
	}
}

// empty reports whether nothing has been observed yet.
func (t *tracker) empty() bool { return len(t.stats) == 0 || t.stats[0].Count == 0 }

// Stats returns the statistics gathered so far.
func (t *tracker) Stats() []Stats { return t.stats }
