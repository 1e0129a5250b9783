// Package codegen turns stage computations into compiled step functions.
//
// A [Program] is a flat list of assignments over named slots. Each
// assignment either evaluates an arithmetic expression ([Ref], [Num],
// [Scale], [Sum], [Mul]) or calls a registered multi-output function,
// which is how derivative evaluations enter a program:
//
//	dV_k1 := f(V, t, I)
//	k2_V_arg := V + dt * 1/2 * dV_k1
//
// [Program.Source] renders the listing shown to users; [Program.Compile]
// resolves every name to a slot index once, so [Compiled.Run] performs no
// lookups on the hot path.
//
// # Coefficients
//
// [Coef] keeps tableau entries such as "2/3" as exact rationals. They
// render as a division and evaluate as float64(p)/float64(q).
package codegen
