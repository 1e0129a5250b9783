package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/neurodyn/internal/config"
	"github.com/san-kum/neurodyn/internal/metrics"
	"github.com/san-kum/neurodyn/internal/models"
)

// Factory builds a model from a run configuration.
type Factory func(cfg *config.Config, s models.Settings) (models.Model, error)

// Entry describes a registered model. Monitors are recorded when a run
// names none; Metrics summarize its result.
type Entry struct {
	About    string
	Build    Factory
	Monitors []string
	Metrics  []metrics.Metric
}

type Registry struct {
	models map[string]Entry
}

const (
	defaultMackeyGlassTau = 17.0
	coherenceBin          = 2.0
)

// Default lags of the delayed pair, in ms.
var defaultPairLags = []float64{5, 5}

func neuronMetrics() []metrics.Metric {
	return []metrics.Metric{
		metrics.SpikeTotal{Monitor: "spike"},
		metrics.MeanRate{Monitor: "spike"},
		metrics.Synchrony{Monitor: "V"},
		metrics.Coherence{Monitor: "spike", Bin: coherenceBin},
	}
}

func NewRegistry() *Registry {
	r := &Registry{models: make(map[string]Entry)}

	r.Register("hh", Entry{
		About: "Hodgkin-Huxley neurons",
		Build: func(_ *config.Config, s models.Settings) (models.Model, error) {
			return models.NewHH(s)
		},
		Monitors: []string{"V", "spike"},
		Metrics:  neuronMetrics(),
	})
	r.Register("morris_lecar", Entry{
		About: "Morris-Lecar neurons",
		Build: func(_ *config.Config, s models.Settings) (models.Model, error) {
			return models.NewMorrisLecar(s)
		},
		Monitors: []string{"V", "W", "spike"},
		Metrics:  neuronMetrics(),
	})
	r.Register("mackey_glass", Entry{
		About: "Mackey-Glass delay equation",
		Build: func(cfg *config.Config, s models.Settings) (models.Model, error) {
			tau := cfg.Delay.Tau
			if tau == 0 {
				tau = defaultMackeyGlassTau
			}
			return models.NewMackeyGlassTau(s, tau)
		},
		Monitors: []string{"x"},
		Metrics: []metrics.Metric{
			metrics.DominantFrequency{Monitor: "x"},
			metrics.Final{Monitor: "x"},
		},
	})
	r.Register("ou", Entry{
		About: "Ornstein-Uhlenbeck process",
		Build: func(_ *config.Config, s models.Settings) (models.Model, error) {
			return models.NewOUProcess(s)
		},
		Monitors: []string{"x"},
		Metrics:  []metrics.Metric{metrics.Final{Monitor: "x"}},
	})
	r.Register("delayed_pair", Entry{
		About: "two rate units with delayed coupling",
		Build: func(cfg *config.Config, s models.Settings) (models.Model, error) {
			lags := cfg.Delay.Lags
			if len(lags) == 0 {
				lags = defaultPairLags
			}
			if len(lags) != 2 {
				return nil, fmt.Errorf("delayed_pair needs two lags, got %d", len(lags))
			}
			return models.NewDelayedPair(s, lags[0], lags[1])
		},
		Monitors: []string{"u"},
		Metrics: []metrics.Metric{
			metrics.DominantFrequency{Monitor: "u"},
			metrics.Final{Monitor: "u"},
		},
	})

	return r
}

// Register adds or replaces a model.
func (r *Registry) Register(name string, e Entry) { r.models[name] = e }

// Lookup returns the entry of a model.
func (r *Registry) Lookup(name string) (Entry, bool) {
	e, ok := r.models[name]
	return e, ok
}

// GetModel builds the configured model and applies its parameters.
func (r *Registry) GetModel(cfg *config.Config, s models.Settings) (models.Model, error) {
	e, ok := r.models[cfg.Model]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", cfg.Model)
	}
	m, err := e.Build(cfg, s)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", cfg.Model, err)
	}

	names := make([]string, 0, len(cfg.Params))
	for name := range cfg.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := m.SetParam(name, cfg.Params[name]); err != nil {
			return nil, err
		}
	}
	m.Reset()
	return m, nil
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMonitors(model string) []string {
	return append([]string(nil), r.models[model].Monitors...)
}

func (r *Registry) DefaultMetrics(model string) []metrics.Metric {
	return append([]metrics.Metric(nil), r.models[model].Metrics...)
}
