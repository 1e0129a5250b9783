// Package analysis characterizes model dynamics from repeated runs.
//
//   - [Lyapunov]: largest Lyapunov exponent from two nearby trajectories
//   - [Bifurcation]: distinct peak values of a monitor across a parameter sweep
//
// A positive exponent indicates chaos:
//
//	lambda, err := analysis.Lyapunov(ctx, build, analysis.LyapunovOptions{Duration: 1000})
//	if err == nil && lambda > 0 {
//	    // chaotic
//	}
package analysis
