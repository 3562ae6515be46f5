package params

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAddOrUpdateRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    Value
	}{
		{"int", Int(42)},
		{"double", Double(3.25)},
		{"string", String("rk4_integrator")},
		{"empty string", String("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := NewTable("dynamic")
			if _, err := tbl.AddOrUpdate("x", tt.v); err != nil {
				t.Fatalf("add failed: %v", err)
			}
			p, err := tbl.Get("x")
			if err != nil {
				t.Fatalf("get failed: %v", err)
			}
			if got := p.Value(); got != tt.v {
				t.Errorf("Get(x) = %+v, want %+v", got, tt.v)
			}
			kind, got, err := tbl.Typed("x")
			if err != nil {
				t.Fatalf("typed failed: %v", err)
			}
			if kind != tt.v.Kind || got != tt.v {
				t.Errorf("Typed(x) = (%v, %+v), want (%v, %+v)", kind, got, tt.v.Kind, tt.v)
			}
		})
	}
}

func TestUpdateInPlace(t *testing.T) {
	tbl := NewTable("fixed")
	tbl.AddOrUpdate("dt", Double(0.1))
	tbl.AddOrUpdate("dur_sec", Double(1))
	tbl.AddOrUpdate("dt", Double(0.01))

	if tbl.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", tbl.Len())
	}
	dt, err := tbl.Float64("dt")
	if err != nil {
		t.Fatal(err)
	}
	if *dt != 0.01 {
		t.Errorf("expected latest value 0.01, got %f", *dt)
	}
}

func TestTypeMismatch(t *testing.T) {
	tbl := NewTable("fixed")
	tbl.AddOrUpdate("steps", Int(10))

	if _, err := tbl.AddOrUpdate("steps", Double(1.5)); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
	if v, _ := tbl.Int("steps"); *v != 10 {
		t.Errorf("failed update changed value to %d", *v)
	}
	if _, err := tbl.Float64("steps"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch from Float64, got %v", err)
	}
}

func TestNotFound(t *testing.T) {
	tbl := NewTable("dynamic")
	if _, err := tbl.Get("omega"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := tbl.Typed("omega"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLookupIsCaseSensitive(t *testing.T) {
	tbl := NewTable("dynamic")
	tbl.AddOrUpdate("Omega", Double(1))
	if _, err := tbl.Get("omega"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected case-sensitive miss, got %v", err)
	}
}

func TestHandleStaysValidAcrossGrowth(t *testing.T) {
	tbl := NewTable("dynamic")
	tbl.AddOrUpdate("omega", Double(1))
	ref, err := tbl.Float64("omega")
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 1000; i++ {
		tbl.AddOrUpdate(string(rune('a'+i%26))+string(rune('0'+i/26)), Double(float64(i)))
	}

	*ref = 7
	if v, _ := tbl.Number("omega"); v != 7 {
		t.Errorf("write through handle lost after growth: got %f", v)
	}
}

func TestStateBindingsOrder(t *testing.T) {
	tbl := NewTable("dynamic")
	for _, name := range []string{"theta", "time", "omega", "flow_speed"} {
		p, _ := tbl.AddOrUpdate(name, Double(0))
		p.IsState = name == "theta" || name == "omega"
	}

	for i := 0; i < 3; i++ {
		names, refs, err := tbl.StateBindings()
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"theta", "omega"}, names); diff != "" {
			t.Errorf("state names mismatch (-want +got):\n%s", diff)
		}
		if len(refs) != 2 {
			t.Fatalf("expected 2 bindings, got %d", len(refs))
		}
	}
}

func TestStateBindingsRejectNonDouble(t *testing.T) {
	tbl := NewTable("dynamic")
	p, _ := tbl.AddOrUpdate("count", Int(0))
	p.IsState = true
	if _, _, err := tbl.StateBindings(); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestSnapshotRow(t *testing.T) {
	tbl := NewTable("dynamic")
	tbl.AddOrUpdate("step", Int(3))
	tbl.AddOrUpdate("omega", Double(0.5))
	tbl.AddOrUpdate("label", String("run"))
	tbl.AddOrUpdate("empty", String(""))

	if diff := cmp.Diff([]string{"step", "omega", "label", "empty"}, tbl.Header()); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	want := []string{"3", "0.5000000000", "run", ""}
	if diff := cmp.Diff(want, tbl.SnapshotRow()); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestOrDefaults(t *testing.T) {
	tbl := NewTable("fixed")
	tbl.AddOrUpdate("control_dt", Double(0.05))
	tbl.AddOrUpdate("policy", String("hold"))

	if v, _ := tbl.FloatOr("control_dt", 1); v != 0.05 {
		t.Errorf("FloatOr present = %f", v)
	}
	if v, _ := tbl.FloatOr("missing", 1); v != 1 {
		t.Errorf("FloatOr missing = %f", v)
	}
	if v, _ := tbl.TextOr("policy", "shutdown"); v != "hold" {
		t.Errorf("TextOr present = %q", v)
	}
	if v, _ := tbl.TextOr("missing", "shutdown"); v != "shutdown" {
		t.Errorf("TextOr missing = %q", v)
	}
}

func TestOutput(t *testing.T) {
	tbl := NewTable("dynamic")
	out, err := tbl.Output("aero_torque")
	if err != nil {
		t.Fatal(err)
	}
	*out = 12.5
	if got, _ := tbl.Number("aero_torque"); got != 12.5 {
		t.Errorf("write through binding not visible: %f", got)
	}
	again, _ := tbl.Output("aero_torque")
	if again != out {
		t.Error("second Output returned a different binding")
	}

	tbl.AddOrUpdate("label", String("x"))
	if _, err := tbl.Output("label"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
}
