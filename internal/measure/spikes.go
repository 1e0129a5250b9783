package measure

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrEmpty  = errors.New("measure: empty input")
	ErrRagged = errors.New("measure: rows differ in length")
)

func dims[T any](m [][]T) (steps, neurons int, err error) {
	if len(m) == 0 || len(m[0]) == 0 {
		return 0, 0, ErrEmpty
	}
	neurons = len(m[0])
	for _, row := range m {
		if len(row) != neurons {
			return 0, 0, ErrRagged
		}
	}
	return len(m), neurons, nil
}

// CrossCorrelation is the mean coherence over all neuron pairs. Time is
// cut into bins of width bin; a neuron is active in a bin if it spiked
// anywhere inside it. For a pair with binary bin trains X and Y,
//
//	k = sum(X*Y) / sqrt(sum(X) * sum(Y))
//
// and k = 0 when either neuron never fired. A trailing partial bin is
// padded with silence.
func CrossCorrelation(spikes [][]bool, bin, dt float64) (float64, error) {
	steps, neurons, err := dims(spikes)
	if err != nil {
		return 0, err
	}
	if neurons < 2 {
		return 0, fmt.Errorf("measure: cross correlation needs at least two neurons, got %d", neurons)
	}
	binSize := int(bin / dt)
	if binSize < 1 {
		return 0, fmt.Errorf("measure: bin %v is shorter than dt %v", bin, dt)
	}

	numBins := (steps + binSize - 1) / binSize
	states := make([][]float64, neurons)
	for i := range states {
		states[i] = make([]float64, numBins)
	}
	for k, row := range spikes {
		for i, s := range row {
			if s {
				states[i][k/binSize] = 1
			}
		}
	}

	var ks []float64
	for i := 0; i < neurons; i++ {
		for j := i + 1; j < neurons; j++ {
			norm := math.Sqrt(floats.Sum(states[i]) * floats.Sum(states[j]))
			if norm == 0 {
				ks = append(ks, 0)
				continue
			}
			ks = append(ks, floats.Dot(states[i], states[j])/norm)
		}
	}
	return stat.Mean(ks, nil), nil
}

// RasterPlot lists every spike as a (neuron index, time) pair, ordered by
// step then neuron.
func RasterPlot(spikes [][]bool, times []float64) (index []int, t []float64, err error) {
	if len(spikes) != len(times) {
		return nil, nil, fmt.Errorf("measure: %d spike rows for %d times", len(spikes), len(times))
	}
	for k, row := range spikes {
		for i, s := range row {
			if s {
				index = append(index, i)
				t = append(t, times[k])
			}
		}
	}
	return index, t, nil
}

// SpikeCounts returns the number of spikes of each neuron.
func SpikeCounts(spikes [][]bool) []int {
	if len(spikes) == 0 {
		return nil
	}
	counts := make([]int, len(spikes[0]))
	for _, row := range spikes {
		for i, s := range row {
			if s && i < len(counts) {
				counts[i]++
			}
		}
	}
	return counts
}

// Window names accepted by FiringRate.
const (
	WindowGaussian = "gaussian"
	WindowFlat     = "flat"
)

// FiringRate is the population rate in Hz smoothed by a window. For the
// gaussian window width is the standard deviation in ms and the kernel
// spans four of them; the flat window spans width ms. The output has one
// value per step, centered like a same-mode convolution.
func FiringRate(spikes [][]bool, width, dt float64, window string) ([]float64, error) {
	steps, neurons, err := dims(spikes)
	if err != nil {
		return nil, err
	}
	if !(dt > 0) || !(width > 0) {
		return nil, fmt.Errorf("measure: width and dt must be positive, got %v and %v", width, dt)
	}

	var kernel []float64
	switch window {
	case WindowGaussian:
		w1 := 2 * width / dt
		w2 := int(math.Round(w1))
		kernel = make([]float64, 2*w2+1)
		for i := range kernel {
			x := float64(i - w2)
			kernel[i] = math.Exp(-x * x / (w1 * w1 * 2))
		}
	case WindowFlat:
		kernel = make([]float64, int(width/2/dt)*2+1)
		for i := range kernel {
			kernel[i] = 1
		}
	default:
		return nil, fmt.Errorf("measure: unknown window %q", window)
	}
	floats.Scale(1/floats.Sum(kernel), kernel)

	rate := make([]float64, steps)
	for k, row := range spikes {
		for _, s := range row {
			if s {
				rate[k]++
			}
		}
	}
	floats.Scale(1000/(float64(neurons)*dt), rate)
	return convolveSame(rate, kernel), nil
}

// convolveSame matches numpy's convolve(a, v, mode="same"): the centered
// max(len(a), len(v)) samples of the full convolution.
func convolveSame(a, v []float64) []float64 {
	n, m := len(a), len(v)
	size := max(n, m)
	off := (min(n, m) - 1) / 2
	out := make([]float64, size)
	for k := range out {
		full := k + off
		for j := max(0, full-n+1); j <= min(full, m-1); j++ {
			out[k] += a[full-j] * v[j]
		}
	}
	return out
}
