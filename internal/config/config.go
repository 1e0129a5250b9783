package config

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/neurodyn/internal/dynamo"
	"github.com/san-kum/neurodyn/internal/integrators"
)

const (
	DefaultModel    = "hh"
	DefaultDt       = 0.01
	DefaultDuration = 100.0
	DefaultSize     = 1
	DefaultLogLevel = "info"
	DefaultStoreDir = ".neurodyn"
)

// Environment variables read by ApplyEnv.
const (
	EnvMethod   = "NEURODYN_METHOD"
	EnvDt       = "NEURODYN_DT"
	EnvDuration = "NEURODYN_DURATION"
	EnvSeed     = "NEURODYN_SEED"
	EnvLogLevel = "NEURODYN_LOG_LEVEL"
)

// Config describes one simulation run. An empty Method selects the
// model's own default.
type Config struct {
	Model    string             `yaml:"model"`
	Method   string             `yaml:"method"`
	Size     int                `yaml:"size"`
	VarType  string             `yaml:"var_type,omitempty"`
	Dt       float64            `yaml:"dt"`
	Duration float64            `yaml:"duration"`
	Seed     uint64             `yaml:"seed"`
	Params   map[string]float64 `yaml:"params,omitempty"`
	Monitors []string           `yaml:"monitors,omitempty"`
	Input    InputConfig        `yaml:"input"`
	Delay    DelayConfig        `yaml:"delay"`
	Logging  LoggingConfig      `yaml:"logging"`
	Storage  StorageConfig      `yaml:"storage"`
}

// InputConfig is an external current. With Stop at zero it is applied for
// the whole run, otherwise only inside [Start, Stop).
type InputConfig struct {
	Amplitude float64 `yaml:"amplitude"`
	Start     float64 `yaml:"start"`
	Stop      float64 `yaml:"stop"`
}

// DelayConfig holds the lags of delay models: Tau for mackey_glass and
// one lag per unit for delayed_pair.
type DelayConfig struct {
	Tau  float64   `yaml:"tau,omitempty"`
	Lags []float64 `yaml:"lags,omitempty"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type StorageConfig struct {
	Dir string `yaml:"dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:    DefaultModel,
		Size:     DefaultSize,
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Logging:  LoggingConfig{Level: DefaultLogLevel},
		Storage:  StorageConfig{Dir: DefaultStoreDir},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	out.Monitors = append([]string(nil), c.Monitors...)
	out.Delay.Lags = append([]float64(nil), c.Delay.Lags...)
	return &out
}

// Validate checks ranges and that the method is registered in some
// family. Whether the method suits the model is decided when the model
// is built.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("dt must be positive, got %v", c.Dt)
	}
	if !(c.Duration > 0) || math.IsInf(c.Duration, 0) {
		return fmt.Errorf("duration must be positive, got %v", c.Duration)
	}
	if c.Duration < c.Dt {
		return fmt.Errorf("duration %v is shorter than one step of %v", c.Duration, c.Dt)
	}
	if c.Size < 1 {
		return fmt.Errorf("size must be at least 1, got %d", c.Size)
	}
	if c.Input.Stop != 0 && c.Input.Stop <= c.Input.Start {
		return fmt.Errorf("input stop %v must be after start %v", c.Input.Stop, c.Input.Start)
	}
	if c.Delay.Tau < 0 {
		return fmt.Errorf("delay tau must be non-negative, got %v", c.Delay.Tau)
	}
	for _, l := range c.Delay.Lags {
		if l < 0 {
			return fmt.Errorf("delay lags must be non-negative, got %v", l)
		}
	}
	vt, err := dynamo.ParseVarType(c.VarType)
	if err != nil {
		return err
	}
	if vt == dynamo.ScalarVar && c.Size != 1 {
		return fmt.Errorf("var_type scalar needs size 1, got %d", c.Size)
	}
	if c.Method != "" && !knownMethod(c.Method) {
		return fmt.Errorf("unknown method %q", c.Method)
	}
	return nil
}

func knownMethod(name string) bool {
	for _, list := range [][]string{
		integrators.Methods(),
		integrators.AdaptiveMethods(),
		integrators.ExponentialMethods(),
		integrators.StochasticMethods(),
	} {
		for _, m := range list {
			if m == name {
				return true
			}
		}
	}
	return false
}

// ApplyEnv overrides fields from NEURODYN_* environment variables.
func ApplyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvMethod); ok && v != "" {
		cfg.Method = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		cfg.Logging.Level = v
	}
	for _, f := range []struct {
		env string
		dst *float64
	}{
		{EnvDt, &cfg.Dt},
		{EnvDuration, &cfg.Duration},
	} {
		v, ok := os.LookupEnv(f.env)
		if !ok || v == "" {
			continue
		}
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", f.env, err)
		}
		*f.dst = x
	}
	if v, ok := os.LookupEnv(EnvSeed); ok && v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSeed, err)
		}
		cfg.Seed = seed
	}
	return nil
}
