package measure

import (
	"errors"
	"math"
	"testing"
)

func train(steps int, neurons int, fire func(k, i int) bool) [][]bool {
	out := make([][]bool, steps)
	for k := range out {
		out[k] = make([]bool, neurons)
		for i := range out[k] {
			out[k][i] = fire(k, i)
		}
	}
	return out
}

func TestCrossCorrelation(t *testing.T) {
	tests := []struct {
		name  string
		fire  func(k, i int) bool
		want  float64
		steps int
	}{
		{"synchronous", func(k, i int) bool { return k%10 == 0 }, 1, 100},
		{"disjoint bins", func(k, i int) bool { return k%20 == 10*i }, 0, 100},
		{"silent", func(k, i int) bool { return false }, 0, 100},
		// same bin, different steps still counts as coincident
		{"same bin", func(k, i int) bool { return k%10 == i }, 1, 100},
		// trailing partial bin is padded
		{"partial bin", func(k, i int) bool { return k == 104 }, 1, 105},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CrossCorrelation(train(tt.steps, 2, tt.fire), 1, 0.1)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("cc = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCrossCorrelationPartialOverlap(t *testing.T) {
	// neuron 0 fires in bins 0 and 1, neuron 1 only in bin 0: 1/sqrt(2)
	spikes := train(20, 2, func(k, i int) bool { return k == 0 || (i == 0 && k == 10) })
	got, err := CrossCorrelation(spikes, 1, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-1/math.Sqrt2) > 1e-12 {
		t.Errorf("cc = %v, want %v", got, 1/math.Sqrt2)
	}
}

func TestCrossCorrelationErrors(t *testing.T) {
	if _, err := CrossCorrelation(nil, 1, 0.1); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
	if _, err := CrossCorrelation([][]bool{{true, false}, {true}}, 1, 0.1); !errors.Is(err, ErrRagged) {
		t.Errorf("expected ErrRagged, got %v", err)
	}
	if _, err := CrossCorrelation(train(10, 1, func(k, i int) bool { return true }), 1, 0.1); err == nil {
		t.Error("expected error for a single neuron")
	}
	if _, err := CrossCorrelation(train(10, 2, func(k, i int) bool { return true }), 0.01, 0.1); err == nil {
		t.Error("expected error for a bin shorter than dt")
	}
}

func TestVoltageFluctuation(t *testing.T) {
	sync := make([][]float64, 200)
	async := make([][]float64, 200)
	for k := range sync {
		x := math.Sin(float64(k) * 0.1)
		sync[k] = []float64{x, x, x}
		// three phases 120 degrees apart sum to zero
		async[k] = []float64{
			math.Sin(float64(k) * 0.1),
			math.Sin(float64(k)*0.1 + 2*math.Pi/3),
			math.Sin(float64(k)*0.1 + 4*math.Pi/3),
		}
	}

	got, err := VoltageFluctuation(sync)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-1) > 1e-12 {
		t.Errorf("synchronous population = %v, want 1", got)
	}
	got, err = VoltageFluctuation(async)
	if err != nil {
		t.Fatal(err)
	}
	if got > 1e-6 {
		t.Errorf("antiphase population = %v, want about 0", got)
	}

	flat := [][]float64{{-65, -65}, {-65, -65}}
	if got, _ := VoltageFluctuation(flat); got != 1 {
		t.Errorf("constant population = %v, want 1", got)
	}
}

func TestRasterPlot(t *testing.T) {
	spikes := [][]bool{{false, true}, {false, false}, {true, true}}
	idx, times, err := RasterPlot(spikes, []float64{0.1, 0.2, 0.3})
	if err != nil {
		t.Fatal(err)
	}
	wantIdx := []int{1, 0, 1}
	wantT := []float64{0.1, 0.3, 0.3}
	if len(idx) != 3 {
		t.Fatalf("got %v %v", idx, times)
	}
	for i := range wantIdx {
		if idx[i] != wantIdx[i] || times[i] != wantT[i] {
			t.Fatalf("got %v %v, want %v %v", idx, times, wantIdx, wantT)
		}
	}
	if _, _, err := RasterPlot(spikes, []float64{1}); err == nil {
		t.Error("expected error for mismatched times")
	}
	if c := SpikeCounts(spikes); c[0] != 1 || c[1] != 2 {
		t.Errorf("counts = %v", c)
	}
}

func TestFiringRate(t *testing.T) {
	// every neuron fires every 10th step of 0.1 ms: 1000 Hz
	spikes := train(1000, 4, func(k, i int) bool { return k%10 == 0 })

	for window, width := range map[string]float64{WindowFlat: 20, WindowGaussian: 2} {
		t.Run(window, func(t *testing.T) {
			rate, err := FiringRate(spikes, width, 0.1, window)
			if err != nil {
				t.Fatal(err)
			}
			if len(rate) != 1000 {
				t.Fatalf("len = %d", len(rate))
			}
			mid := rate[400:600]
			for _, r := range mid {
				if math.Abs(r-1000) > 100 {
					t.Fatalf("rate = %v, want about 1000 Hz", r)
				}
			}
		})
	}

	if _, err := FiringRate(spikes, 2, 0.1, "hann"); err == nil {
		t.Error("expected error for unknown window")
	}
}

func TestConvolveSame(t *testing.T) {
	got := convolveSame([]float64{1, 2, 3, 4, 5}, []float64{1, 1, 1})
	want := []float64{3, 6, 9, 12, 9}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestPowerSpectrum(t *testing.T) {
	// 50 Hz sine sampled at 0.1 ms for 200 ms
	const dt = 0.1
	x := make([]float64, 2000)
	for k := range x {
		x[k] = 3 + math.Sin(2*math.Pi*50*float64(k)*dt/1000)
	}

	freqs, power, err := PowerSpectrum(x, dt)
	if err != nil {
		t.Fatal(err)
	}
	if len(freqs) != 1001 || len(power) != 1001 {
		t.Fatalf("lengths %d, %d", len(freqs), len(power))
	}
	if power[0] > 1e-9 {
		t.Errorf("mean not removed, DC power %v", power[0])
	}

	f, err := DominantFrequency(x, dt)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(f-50) > 1e-9 {
		t.Errorf("dominant frequency = %v Hz, want 50", f)
	}

	if _, _, err := PowerSpectrum([]float64{1}, dt); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}
