package dynamo

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/san-kum/windsim/internal/params"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestBindStateWritesThroughTable(t *testing.T) {
	tbl := params.NewTable("dynamic")
	theta, _ := tbl.AddOrUpdate("theta", params.Double(1))
	theta.IsState = true
	tbl.AddOrUpdate("time", params.Double(0))
	omega, _ := tbl.AddOrUpdate("omega", params.Double(2))
	omega.IsState = true

	sv, err := BindState(tbl)
	if err != nil {
		t.Fatal(err)
	}
	if sv.Len() != 2 {
		t.Fatalf("expected 2 state vars, got %d", sv.Len())
	}
	i, ok := sv.Index("omega")
	if !ok || i != 1 {
		t.Fatalf("Index(omega) = %d, %v", i, ok)
	}

	sv.Store(State{3, 4})
	if v, _ := tbl.Number("omega"); v != 4 {
		t.Errorf("table omega = %f, want 4", v)
	}
	if got := sv.Values(); got[0] != 3 || got[1] != 4 {
		t.Errorf("Values() = %v", got)
	}
}

func TestStateVectorMismatch(t *testing.T) {
	if _, err := NewStateVector([]string{"a"}, nil); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	sv, _ := Standalone([]string{"x"}, State{1})
	if _, err := sv.MustIndex("y"); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestShutdownFirstReasonWins(t *testing.T) {
	s := NewShutdown()
	if s.Requested() || s.Err() != nil {
		t.Fatal("fresh shutdown should be clear")
	}

	var wg sync.WaitGroup
	s.Request(ErrDataExhausted)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Request(ErrInterrupted)
		}()
	}
	wg.Wait()

	if !s.Requested() {
		t.Error("expected shutdown requested")
	}
	if !errors.Is(s.Err(), ErrDataExhausted) {
		t.Errorf("expected first reason to win, got %v", s.Err())
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Error("clean finish should exit 0")
	}
	err := &SimulationError{Step: 3, Time: 0.03, Wrapped: ErrInvalidState}
	if ExitCode(err) == 0 {
		t.Error("error should exit non-zero")
	}
	if !errors.Is(err, ErrInvalidState) {
		t.Error("SimulationError should unwrap")
	}
	if err.Error() != "step 3 (t=0.0300): dynamo: invalid state (NaN or Inf detected)" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestParseRole(t *testing.T) {
	for in, want := range map[string]Role{"": RoleSingle, "single": RoleSingle, "producer": RoleProducer, "consumer": RoleConsumer} {
		got, err := ParseRole(in)
		if err != nil || got != want {
			t.Errorf("ParseRole(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseRole("peer"); err == nil {
		t.Error("expected error for unknown role")
	}
	if RoleConsumer.Produces() || !RoleProducer.Produces() || !RoleSingle.Produces() {
		t.Error("unexpected Produces() result")
	}
}
