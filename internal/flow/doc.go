// Package flow provides the flow-generation stages. Each one writes the
// free-stream wind speed for the current tick into the dynamic
// parameter flow_speed.
package flow

import (
	"github.com/san-kum/windsim/internal/dynamo"
	"github.com/san-kum/windsim/internal/stage"
)

const (
	ConstantID  = "constant_flow_gen"
	SineID      = "sine_flow_gen"
	CSVInterpID = "csv_fixed_interp_flow_gen"
)

// SpeedParam is the dynamic parameter every flow generator writes.
const SpeedParam = "flow_speed"

func Stages() []stage.Entry[dynamo.FlowGenerator] {
	return []stage.Entry[dynamo.FlowGenerator]{
		{ID: ConstantID, New: func() dynamo.FlowGenerator { return &Constant{} }},
		{ID: SineID, New: func() dynamo.FlowGenerator { return &Sine{} }},
		{ID: CSVInterpID, New: func() dynamo.FlowGenerator { return &CSVInterp{} }},
	}
}
