// Package integrators turns equations into compiled one-step integrators.
//
// Every method is data. Explicit Runge-Kutta methods are Butcher tableaux
// with exact rational coefficients where the method has them; the generic
// builder expands a tableau and an equation schema into a stage program
// which is compiled once:
//
//	eq := equation.MustNew(dV, equation.Args("V", "t", "I"))
//	integ, err := integrators.ODEInt(eq, integrators.WithMethod("rk4"), integrators.WithDt(0.01))
//	next := integ.Step([]dynamo.Vec{V}, t, []dynamo.Vec{I})
//
// # Families
//
//   - explicit: euler, midpoint, heun2, ralston2, rk2, rk3, heun3, ralston3,
//     ssprk3, rk4, ralston4, rk4_38rule
//   - adaptive: heun_euler, rkf12, bs3, rkf45, ck, dopri5
//   - exponential: exp_euler
//   - stochastic (see [SDEInt]): euler, milstein, heun
//
// [DDEInt] accepts any explicit method and records state history in
// delay buffers.
//
// # Errors
//
// Construction validates the tableau, the step size and every generated
// name against the equation's arguments. Once an integrator is built its
// step methods do not fail; NaN and Inf produced by the derivative
// function pass through unchanged.
package integrators
