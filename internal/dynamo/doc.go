// Package dynamo provides the shared value type and error taxonomy for
// neurodyn.
//
//   - [Vec]: the value of a state variable or parameter
//   - [VarType]: shape hint for state variables
//   - [BuildError]: construction failures, matched with errors.Is against
//     [ErrBuild] and the specific sentinel
//   - [SimulationError]: runtime failures with step context
//
// # Error Policy
//
// Structural problems (names, tableaux, shapes) are reported when an
// equation, integrator or delay buffer is constructed. Step functions do
// not validate and do not return errors; numeric failures such as NaN
// propagate to the caller unchanged.
package dynamo
