// Package equation describes derivative functions by an explicit argument
// schema and merges coupled equations into one.
//
// Go functions carry no parameter names at runtime, so every derivative
// function is paired with a [Signature] naming its state variables, its
// time argument and its parameters, in call order:
//
//	dV := equation.MustNew(func(v []dynamo.Vec, t float64, p []dynamo.Vec) []dynamo.Vec {
//	    ...
//	}, equation.Args("V", "t", "m", "h", "n", "I"))
//
// [Joint] builds a single multi-output equation from members that each
// own a different variable; a member parameter naming another member's
// variable is wired to that variable.
package equation
