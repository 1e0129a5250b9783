package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/neurodyn/internal/config"
)

func runCommand(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	root := newRootCmd()
	cmd, _, err := root.Find([]string{"run"})
	if err != nil {
		t.Fatal(err)
	}
	for name, v := range flags {
		if err := cmd.Flags().Set(name, v); err != nil {
			t.Fatalf("set --%s: %v", name, err)
		}
	}
	return cmd
}

func TestResolveConfigPrecedence(t *testing.T) {
	t.Setenv(config.EnvDt, "0.02")

	path := filepath.Join(t.TempDir(), "run.yaml")
	file := config.DefaultConfig()
	file.Model = "hh"
	file.Duration = 42
	file.Dt = 0.05
	file.Size = 3
	if err := config.Save(path, file); err != nil {
		t.Fatal(err)
	}

	cmd := runCommand(t, map[string]string{
		"preset": "tonic",
		"config": path,
		"size":   "7",
		"param":  "gNa=100",
		"seed":   "5",
	})
	cfg, err := resolveConfig(cmd, []string{"hh"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Duration != 42 {
		t.Errorf("duration = %v, want 42 from the config file", cfg.Duration)
	}
	if cfg.Dt != 0.02 {
		t.Errorf("dt = %v, want 0.02 from the environment", cfg.Dt)
	}
	if cfg.Size != 7 {
		t.Errorf("size = %d, want 7 from the flag", cfg.Size)
	}
	if cfg.Params["gNa"] != 100 {
		t.Errorf("params = %v", cfg.Params)
	}
	if cfg.Seed != 5 {
		t.Errorf("seed = %d, want 5", cfg.Seed)
	}
}

func TestResolveConfigPreset(t *testing.T) {
	for _, env := range []string{config.EnvMethod, config.EnvDt, config.EnvDuration, config.EnvSeed, config.EnvLogLevel} {
		if v, ok := os.LookupEnv(env); ok {
			t.Setenv(env, v)
			os.Unsetenv(env)
		}
	}

	cmd := runCommand(t, map[string]string{"preset": "chaotic"})
	cfg, err := resolveConfig(cmd, []string{"mackey_glass"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Delay.Tau != 17 || cfg.Method != "rk4" {
		t.Errorf("preset not applied: %+v", cfg)
	}
	if cfg.Seed == 0 {
		t.Error("a zero seed should be replaced")
	}
}

func TestResolveConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		flags map[string]string
		args  []string
		want  string
	}{
		{"unknown preset", map[string]string{"preset": "nope"}, []string{"hh"}, "unknown preset"},
		{"bad param", map[string]string{"param": "gNa"}, []string{"hh"}, "name=value"},
		{"bad param value", map[string]string{"param": "gNa=x"}, []string{"hh"}, "gNa"},
		{"bad method", map[string]string{"method": "rk9"}, []string{"hh"}, "unknown method"},
		{"bad dt", map[string]string{"dt": "-1"}, []string{"hh"}, "dt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := runCommand(t, tt.flags)
			_, err := resolveConfig(cmd, tt.args)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCodeModelFor(t *testing.T) {
	if got := codeModelFor("milstein"); got != "ou" {
		t.Errorf("milstein -> %s, want ou", got)
	}
	if got := codeModelFor("rk4"); got != config.DefaultModel {
		t.Errorf("rk4 -> %s, want %s", got, config.DefaultModel)
	}
}

func TestParseGrid(t *testing.T) {
	name, values, err := parseGrid("input=0:10:3")
	if err != nil {
		t.Fatal(err)
	}
	if name != "input" || len(values) != 3 || values[1] != 5 {
		t.Errorf("parseGrid = %s %v", name, values)
	}

	for _, bad := range []string{"input", "input=0:10", "input=a:1:2", "input=0:b:2", "input=0:1:0"} {
		if _, _, err := parseGrid(bad); err == nil {
			t.Errorf("parseGrid(%q) should fail", bad)
		}
	}
}
