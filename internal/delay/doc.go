// Package delay stores the recent history of a signal for delayed
// coupling and delay differential equations.
//
// A [Buffer] is created once per delayed signal by the component that
// produces it. Each simulation step the owner pushes the current value,
// consumers pull the delayed one, and the runner calls Update once after
// all systems have stepped.
package delay
