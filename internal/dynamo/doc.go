// Package dynamo provides the core primitives of the simulation engine.
//
// The package defines the contracts every simulation stage implements and
// the context they run in:
//
//   - [StateVector]: ordered bindings into the dynamic parameter table
//   - [Derivative]: right-hand side dX/dt = f(X) evaluated into an output slice
//   - [Integrator], [EquationOfMotion], [FlowGenerator], [FlowModel],
//     [Drivetrain], [TurbineController], [DataProcessor]: stage contracts
//   - [Env]: the simulation context handed to every stage
//   - [Shutdown]: the single cancellation signal of a run
//
// # Side effects
//
// Stages return nothing. They read the fixed table, write results into the
// dynamic table and report fatal conditions through [Shutdown.Request].
//
// # Thread Safety
//
// Env and the parameter tables are owned by one goroutine. Shutdown is the
// only type that may be used concurrently.
package dynamo
