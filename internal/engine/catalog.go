package engine

import (
	"github.com/san-kum/windsim/internal/aero"
	"github.com/san-kum/windsim/internal/control"
	"github.com/san-kum/windsim/internal/dataproc"
	"github.com/san-kum/windsim/internal/drivetrain"
	"github.com/san-kum/windsim/internal/flow"
	"github.com/san-kum/windsim/internal/integrators"
	"github.com/san-kum/windsim/internal/physics"
	"github.com/san-kum/windsim/internal/stage"
)

// Stage kinds in dispatch order.
const (
	KindFlowGen        = "flow_gen"
	KindIntegrator     = "integrator"
	KindEOM            = "eom"
	KindFlowSimModel   = "flow_sim_model"
	KindDrivetrain     = "drivetrain"
	KindTurbineControl = "turbine_control"
	KindDataProc       = "data_proc"
)

// SelectorParam is the fixed parameter naming the implementation of kind.
func SelectorParam(kind string) string { return kind + "_function_call" }

// KindInfo describes one stage kind for listings.
type KindInfo struct {
	Kind     string
	Param    string
	IDs      []string
	Required bool
}

func ids[S any](entries []stage.Entry[S]) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

// Catalog lists every stage kind with its valid identifiers. Optional
// kinds are only called from inside other stages.
func Catalog() []KindInfo {
	kinds := []KindInfo{
		{Kind: KindFlowGen, IDs: ids(flow.Stages()), Required: true},
		{Kind: KindIntegrator, IDs: ids(integrators.Stages()), Required: true},
		{Kind: KindEOM, IDs: ids(physics.Stages()), Required: true},
		{Kind: KindFlowSimModel, IDs: ids(aero.Stages())},
		{Kind: KindDrivetrain, IDs: ids(drivetrain.Stages())},
		{Kind: KindTurbineControl, IDs: ids(control.Stages()), Required: true},
		{Kind: KindDataProc, IDs: ids(dataproc.Stages()), Required: true},
	}
	for i := range kinds {
		kinds[i].Param = SelectorParam(kinds[i].Kind)
	}
	return kinds
}
