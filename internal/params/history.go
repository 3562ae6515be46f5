package params

import (
	"fmt"
	"strings"
)

// History keeps the last N values of one numeric dynamic parameter together
// with the tick each value was recorded at.
type History struct {
	name  string
	param *Param
	depth int

	ring  []float64
	ticks []int64
	head  int
	count int

	local      []float64
	localTicks []int64
}

func NewHistory(p *Param, depth int) (*History, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("history for %q: depth must be positive, got %d", p.Name, depth)
	}
	if p.Kind() == KindString {
		return nil, fmt.Errorf("%w: history for %q needs a numeric parameter", ErrTypeMismatch, p.Name)
	}
	return &History{
		name:       p.Name,
		param:      p,
		depth:      depth,
		ring:       make([]float64, depth),
		ticks:      make([]int64, depth),
		local:      make([]float64, 0, depth),
		localTicks: make([]int64, 0, depth),
	}, nil
}

func (h *History) Name() string { return h.name }
func (h *History) Depth() int   { return h.depth }

// Valid is the number of populated slots, below Depth during warm-up.
func (h *History) Valid() int { return h.count }

// Push records the parameter's current value for tick.
func (h *History) Push(tick int64) {
	v, _ := h.param.Value().Float()
	h.ring[h.head] = v
	h.ticks[h.head] = tick
	h.head = (h.head + 1) % h.depth
	if h.count < h.depth {
		h.count++
	}
}

// Refresh copies the ring into the local buffer, oldest first.
func (h *History) Refresh() {
	h.local = h.local[:0]
	h.localTicks = h.localTicks[:0]
	start := (h.head - h.count + h.depth) % h.depth
	for i := 0; i < h.count; i++ {
		j := (start + i) % h.depth
		h.local = append(h.local, h.ring[j])
		h.localTicks = append(h.localTicks, h.ticks[j])
	}
}

// Local returns the snapshot taken by the last Refresh, oldest first.
func (h *History) Local() []float64 { return h.local }

// LocalTicks returns the ticks matching Local.
func (h *History) LocalTicks() []int64 { return h.localTicks }

// Latest returns the most recently pushed value.
func (h *History) Latest() (float64, bool) {
	if h.count == 0 {
		return 0, false
	}
	return h.ring[(h.head-1+h.depth)%h.depth], true
}

// HistorySet is the collection of histories declared for a run.
type HistorySet struct {
	order  []*History
	byName map[string]*History
}

// NewHistorySet binds a history of the given depth to every named parameter
// of t.
func NewHistorySet(t *Table, names []string, depth int) (*HistorySet, error) {
	s := &HistorySet{byName: make(map[string]*History)}
	for _, name := range names {
		if _, dup := s.byName[name]; dup {
			continue
		}
		p, err := t.Get(name)
		if err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
		h, err := NewHistory(p, depth)
		if err != nil {
			return nil, err
		}
		s.order = append(s.order, h)
		s.byName[name] = h
	}
	return s, nil
}

// SplitNames parses a comma separated list of parameter names.
func SplitNames(list string) []string {
	var names []string
	for _, n := range strings.Split(list, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func (s *HistorySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Push records every history for tick.
func (s *HistorySet) Push(tick int64) {
	if s == nil {
		return
	}
	for _, h := range s.order {
		h.Push(tick)
	}
}

// Get returns the history bound to name.
func (s *HistorySet) Get(name string) (*History, error) {
	if s != nil {
		if h, ok := s.byName[name]; ok {
			return h, nil
		}
	}
	return nil, fmt.Errorf("%w: no history declared for %q", ErrNotFound, name)
}
