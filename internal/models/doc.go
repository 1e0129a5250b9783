// Package models provides neuron and population models built on the
// integrators.
//
//   - [HH]: Hodgkin-Huxley, a joint equation over V, m, h and n
//   - [MorrisLecar]: two-variable calcium/potassium model
//   - [MackeyGlass]: delay differential equation with a uniform history
//   - [OUProcess]: Ornstein-Uhlenbeck process, a stochastic integrator
//   - [DelayedPair]: two rate units coupled through per-element delays
//
// Every model implements [Model] and plugs into a [runner.Runner].
// Spiking models also implement [Spiking]; models that own delay buffers
// implement [runner.DelayOwner] so the runner advances them.
package models
