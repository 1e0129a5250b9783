// Package measure computes summary statistics of recorded activity.
//
// Spike matrices are indexed [step][neuron] and voltage matrices
// [step][neuron], matching the rows a runner monitor records. Times are
// in milliseconds; rates and frequencies are returned in Hz.
//
//   - [CrossCorrelation]: zero-lag spike synchrony between neuron pairs
//   - [VoltageFluctuation]: population synchrony of membrane potentials
//   - [RasterPlot]: spike indices and times for plotting
//   - [FiringRate]: smoothed population rate
//   - [PowerSpectrum]: one-sided spectrum of a sampled signal
package measure
