package measure

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the one-sided power spectrum of x sampled every
// dt ms, with the mean removed. freqs are in Hz.
func PowerSpectrum(x []float64, dt float64) (freqs, power []float64, err error) {
	if len(x) < 2 {
		return nil, nil, ErrEmpty
	}
	if !(dt > 0) {
		return nil, nil, fmt.Errorf("measure: dt must be positive, got %v", dt)
	}

	centered := make([]float64, len(x))
	copy(centered, x)
	floats.AddConst(-stat.Mean(x, nil), centered)

	fft := fourier.NewFFT(len(x))
	coeffs := fft.Coefficients(nil, centered)
	freqs = make([]float64, len(coeffs))
	power = make([]float64, len(coeffs))
	n := float64(len(x))
	for i, c := range coeffs {
		a := cmplx.Abs(c)
		power[i] = a * a / n
		freqs[i] = fft.Freq(i) / dt * 1000
	}
	return freqs, power, nil
}

// DominantFrequency is the frequency in Hz carrying the most power,
// ignoring the DC bin.
func DominantFrequency(x []float64, dt float64) (float64, error) {
	freqs, power, err := PowerSpectrum(x, dt)
	if err != nil {
		return 0, err
	}
	if len(power) < 2 {
		return 0, nil
	}
	return freqs[1+floats.MaxIdx(power[1:])], nil
}
