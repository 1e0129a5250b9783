package config

import "sort"

var Presets = map[string]map[string]*Config{
	"hh": {
		"resting": {
			Model: "hh", Method: "exp_euler", Size: 1, Dt: 0.01, Duration: 50,
		},
		"tonic": {
			Model: "hh", Method: "rk4", Size: 1, Dt: 0.01, Duration: 100,
			Input: InputConfig{Amplitude: 10},
		},
		"pulse": {
			Model: "hh", Method: "rk4", Size: 1, Dt: 0.01, Duration: 50,
			Input: InputConfig{Amplitude: 20, Start: 10, Stop: 11},
		},
		"population": {
			Model: "hh", Method: "exp_euler", Size: 100, Dt: 0.01, Duration: 200,
			Input: InputConfig{Amplitude: 8},
		},
	},
	"morris_lecar": {
		"tonic": {
			Model: "morris_lecar", Method: "exp_euler", Size: 1, Dt: 0.05, Duration: 500,
			Input: InputConfig{Amplitude: 100},
		},
		"rest": {
			Model: "morris_lecar", Method: "rk4", Size: 1, Dt: 0.05, Duration: 200,
		},
	},
	"mackey_glass": {
		"chaotic": {
			Model: "mackey_glass", Method: "rk4", Size: 1, Dt: 0.1, Duration: 1000,
			Delay: DelayConfig{Tau: 17},
		},
		"periodic": {
			Model: "mackey_glass", Method: "rk4", Size: 1, Dt: 0.1, Duration: 1000,
			Delay: DelayConfig{Tau: 8},
		},
	},
	"ou": {
		"noisy": {
			Model: "ou", Method: "euler", Size: 50, Dt: 0.1, Duration: 200,
			Params: map[string]float64{"tau": 10, "sigma": 0.5},
		},
		"milstein": {
			Model: "ou", Method: "milstein", Size: 50, Dt: 0.1, Duration: 200,
			Params: map[string]float64{"tau": 5, "sigma": 1},
		},
	},
	"delayed_pair": {
		"symmetric": {
			Model: "delayed_pair", Method: "rk4", Size: 2, Dt: 0.1, Duration: 200,
			Delay: DelayConfig{Lags: []float64{5, 5}},
		},
		"asymmetric": {
			Model: "delayed_pair", Method: "rk4", Size: 2, Dt: 0.1, Duration: 200,
			Delay: DelayConfig{Lags: []float64{2, 8}},
		},
	},
}

// GetPreset returns a copy of the named preset with logging and storage
// defaults filled in, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	out := cfg.Clone()
	if out.Logging.Level == "" {
		out.Logging.Level = DefaultLogLevel
	}
	if out.Storage.Dir == "" {
		out.Storage.Dir = DefaultStoreDir
	}
	return out
}

// ListPresets returns the preset names of a model in sorted order.
func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
