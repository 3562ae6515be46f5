// Package stage implements runtime selection of simulation stages.
//
// Every stage kind (flow generation, integration, equation of motion,
// turbine control, drivetrain, flow-sim model, data processing) has one
// [Registry] holding the identifiers compiled into the binary and the single
// active implementation. A registry starts with a fail-loud fallback
// installed; [Registry.DispatchOrAbort] resolves a configured identifier and
// raises the shutdown flag when it is unknown.
package stage
