package metrics

import (
	"errors"
	"fmt"

	"github.com/san-kum/neurodyn/internal/measure"
	"github.com/san-kum/neurodyn/internal/runner"
)

// ErrMissing is returned when a result lacks the monitor a metric reads.
var ErrMissing = errors.New("metrics: monitor not recorded")

// Metric reduces a finished run to one number.
type Metric interface {
	Name() string
	Value(res *runner.Result) (float64, error)
}

func record(res *runner.Result, monitor string) ([][]float64, error) {
	rec, ok := res.Records[monitor]
	if !ok || len(rec) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissing, monitor)
	}
	return rec, nil
}

// Spikes reads a 0/1 spike monitor as booleans.
func Spikes(res *runner.Result, monitor string) ([][]bool, error) {
	rec, err := record(res, monitor)
	if err != nil {
		return nil, err
	}
	out := make([][]bool, len(rec))
	for k, row := range rec {
		out[k] = make([]bool, len(row))
		for i, x := range row {
			out[k][i] = x != 0
		}
	}
	return out, nil
}

// SpikeTotal counts every spike of every neuron.
type SpikeTotal struct{ Monitor string }

func (m SpikeTotal) Name() string { return "spike_total" }

func (m SpikeTotal) Value(res *runner.Result) (float64, error) {
	s, err := Spikes(res, m.Monitor)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, c := range measure.SpikeCounts(s) {
		total += c
	}
	return float64(total), nil
}

// MeanRate is the population firing rate in Hz, with time in ms.
type MeanRate struct{ Monitor string }

func (m MeanRate) Name() string { return "mean_rate_hz" }

func (m MeanRate) Value(res *runner.Result) (float64, error) {
	s, err := Spikes(res, m.Monitor)
	if err != nil {
		return 0, err
	}
	counts := measure.SpikeCounts(s)
	total := 0
	for _, c := range counts {
		total += c
	}
	span := float64(len(s)) * res.Dt
	if span == 0 || len(counts) == 0 {
		return 0, nil
	}
	return float64(total) * 1000 / (float64(len(counts)) * span), nil
}

// Synchrony is the voltage fluctuation of a potential monitor.
type Synchrony struct{ Monitor string }

func (m Synchrony) Name() string { return "synchrony" }

func (m Synchrony) Value(res *runner.Result) (float64, error) {
	rec, err := record(res, m.Monitor)
	if err != nil {
		return 0, err
	}
	return measure.VoltageFluctuation(rec)
}

// Coherence is the pairwise spike cross correlation in bins of Bin ms.
type Coherence struct {
	Monitor string
	Bin     float64
}

func (m Coherence) Name() string { return "coherence" }

func (m Coherence) Value(res *runner.Result) (float64, error) {
	s, err := Spikes(res, m.Monitor)
	if err != nil {
		return 0, err
	}
	return measure.CrossCorrelation(s, m.Bin, res.Dt)
}

// DominantFrequency is the strongest frequency in Hz of element 0 of a
// monitor.
type DominantFrequency struct{ Monitor string }

func (m DominantFrequency) Name() string { return "dominant_hz" }

func (m DominantFrequency) Value(res *runner.Result) (float64, error) {
	if _, err := record(res, m.Monitor); err != nil {
		return 0, err
	}
	return measure.DominantFrequency(res.Series(m.Monitor, 0), res.Dt)
}

// Final is the population mean of the last sample of a monitor.
type Final struct{ Monitor string }

func (m Final) Name() string { return "final_" + m.Monitor }

func (m Final) Value(res *runner.Result) (float64, error) {
	if _, err := record(res, m.Monitor); err != nil {
		return 0, err
	}
	last := res.Final(m.Monitor)
	sum := 0.0
	for _, x := range last {
		sum += x
	}
	return sum / float64(len(last)), nil
}

// Summarize evaluates every metric whose monitor was recorded. Metrics
// that fail for any other reason, such as coherence on a single neuron,
// are skipped as well; their errors are returned joined.
func Summarize(res *runner.Result, ms ...Metric) (map[string]float64, error) {
	out := make(map[string]float64, len(ms))
	var errs []error
	for _, m := range ms {
		v, err := m.Value(res)
		switch {
		case errors.Is(err, ErrMissing):
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", m.Name(), err))
		default:
			out[m.Name()] = v
		}
	}
	return out, errors.Join(errs...)
}
