package measure

import (
	"gonum.org/v1/gonum/stat"
)

// VoltageFluctuation measures synchrony as the variance of the population
// mean potential over the mean of the single-neuron variances. It is
// near 1 for a synchronous population and near 0 for an asynchronous
// one. A population whose neurons never vary returns 1.
func VoltageFluctuation(potentials [][]float64) (float64, error) {
	steps, neurons, err := dims(potentials)
	if err != nil {
		return 0, err
	}

	avg := make([]float64, steps)
	for k, row := range potentials {
		avg[k] = stat.Mean(row, nil)
	}
	avgVar := stat.PopVariance(avg, nil)

	trace := make([]float64, steps)
	vars := make([]float64, neurons)
	for i := range vars {
		for k, row := range potentials {
			trace[k] = row[i]
		}
		vars[i] = stat.PopVariance(trace, nil)
	}
	varMean := stat.Mean(vars, nil)
	if varMean == 0 {
		return 1, nil
	}
	return avgVar / varMean, nil
}
