package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/neurodyn/internal/config"
	"github.com/san-kum/neurodyn/internal/experiment"
	"github.com/san-kum/neurodyn/internal/logging"
	"github.com/san-kum/neurodyn/internal/runner"
)

// Scenario is a scripted sequence of runs. Each step starts from the
// scenario's base configuration, or from a preset, and overrides the
// fields it sets.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Base        *config.Config `yaml:"base"`
	Steps       []ScenarioStep `yaml:"steps"`
}

type ScenarioStep struct {
	Label    string              `yaml:"label"`
	Model    string              `yaml:"model"`
	Preset   string              `yaml:"preset"`
	Method   string              `yaml:"method"`
	Dt       float64             `yaml:"dt"`
	Duration float64             `yaml:"duration"`
	Size     int                 `yaml:"size"`
	Seed     uint64              `yaml:"seed"`
	Input    *config.InputConfig `yaml:"input"`
	Delay    *config.DelayConfig `yaml:"delay"`
	Params   map[string]float64  `yaml:"params"`
	Monitors []string            `yaml:"monitors"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Label   string
	Config  *config.Config
	Method  string
	Result  *runner.Result
	Summary map[string]float64
}

// LoadScenario loads a scenario from a YAML file. The base configuration
// starts from the defaults.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	scenario := Scenario{Base: config.DefaultConfig()}
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if scenario.Base == nil {
		scenario.Base = config.DefaultConfig()
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Config resolves the configuration of step i.
func (s *Scenario) Config(i int) (*config.Config, error) {
	step := s.Steps[i]
	base := s.Base
	if base == nil {
		base = config.DefaultConfig()
	}
	cfg := base.Clone()

	if step.Model != "" {
		cfg.Model = step.Model
	}
	if step.Preset != "" {
		p := config.GetPreset(cfg.Model, step.Preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %s for %s", step.Preset, cfg.Model)
		}
		p.Logging, p.Storage = cfg.Logging, cfg.Storage
		cfg = p
	}
	if step.Method != "" {
		cfg.Method = step.Method
	}
	if step.Dt != 0 {
		cfg.Dt = step.Dt
	}
	if step.Duration != 0 {
		cfg.Duration = step.Duration
	}
	if step.Size != 0 {
		cfg.Size = step.Size
	}
	if step.Seed != 0 {
		cfg.Seed = step.Seed
	}
	if step.Input != nil {
		cfg.Input = *step.Input
	}
	if step.Delay != nil {
		cfg.Delay = *step.Delay
		cfg.Delay.Lags = append([]float64(nil), step.Delay.Lags...)
	}
	if len(step.Params) > 0 {
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64, len(step.Params))
		}
		for k, v := range step.Params {
			cfg.Params[k] = v
		}
	}
	if len(step.Monitors) > 0 {
		cfg.Monitors = append([]string(nil), step.Monitors...)
	}
	return cfg, cfg.Validate()
}

// Label names step i, falling back to its position and model.
func (s *Scenario) Label(i int) string {
	if l := s.Steps[i].Label; l != "" {
		return l
	}
	return fmt.Sprintf("step%d", i+1)
}

// RunScenario executes the steps in order. On failure the results of
// the completed steps are returned with the error.
func RunScenario(ctx context.Context, scenario *Scenario, reg *experiment.Registry, logger *slog.Logger) ([]StepResult, error) {
	logger = logging.OrDiscard(logger)
	results := make([]StepResult, 0, len(scenario.Steps))

	for i := range scenario.Steps {
		label := scenario.Label(i)
		cfg, err := scenario.Config(i)
		if err != nil {
			return results, fmt.Errorf("%s: %w", label, err)
		}
		logger.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "label", label, "model", cfg.Model)

		exp, err := experiment.New(cfg, reg, experiment.WithLogger(logger))
		if err != nil {
			return results, fmt.Errorf("%s setup: %w", label, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("%s run: %w", label, err)
		}

		results = append(results, StepResult{
			Label:   label,
			Config:  cfg,
			Method:  exp.Model().Integrator().Method(),
			Result:  result,
			Summary: exp.Summary(result),
		})
	}
	return results, nil
}
