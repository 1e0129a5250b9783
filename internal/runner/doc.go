// Package runner steps a set of dynamical systems along a fixed time grid.
//
// Within one step the order is fixed: inputs, systems in registration
// order, delay buffer updates, then monitors. Delay reads in a step
// therefore only observe values written in earlier steps.
package runner
