// Package config provides the typed YAML configuration record driving a
// perturbation session: which backend loads, its per-backend options,
// and the session-wide logging settings. Grounded on chaos-utils'
// pkg/config/config.go: default-then-overlay loading, environment
// variable expansion, and a top-level Validate pass.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level session configuration.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Backend    string           `yaml:"backend"` // ieee|bitmask|cancellation|mcaquad|mcaint
	Seed       uint64           `yaml:"seed"`
	UseSeed    bool             `yaml:"use_seed"`
	IEEE       IEEEConfig       `yaml:"ieee"`
	Bitmask    BitmaskConfig    `yaml:"bitmask"`
	Cancellation CancellationConfig `yaml:"cancellation"`
	MCAQuad    MCAQuadConfig    `yaml:"mcaquad"`
	MCAInt     MCAIntConfig     `yaml:"mcaint"`
}

// LoggingConfig controls the session-wide telemetry.Logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	SilentLoad  bool   `yaml:"silent_load"`
}

// IEEEConfig mirrors backend/ieee.Config's YAML surface.
type IEEEConfig struct {
	Debug                    bool `yaml:"debug"`
	DebugBinary              bool `yaml:"debug_binary"`
	PrintNewLine             bool `yaml:"print_new_line"`
	PrintSubnormalNormalized bool `yaml:"print_subnormal_normalized"`
	NoBackendName            bool `yaml:"no_backend_name"`
	CountOp                  bool `yaml:"count_op"`
}

// BitmaskConfig mirrors backend/bitmask.Config's YAML surface.
type BitmaskConfig struct {
	Mode        string `yaml:"mode"`     // ieee|ib|ob|full
	Operator    string `yaml:"operator"` // zero|one|rand
	Precision32 int    `yaml:"precision_binary32"`
	Precision64 int    `yaml:"precision_binary64"`
	DAZ         bool   `yaml:"daz"`
	FTZ         bool   `yaml:"ftz"`
}

// CancellationConfig mirrors backend/cancellation.Config's YAML surface.
type CancellationConfig struct {
	Tolerance int  `yaml:"tolerance"`
	Warning   bool `yaml:"warning"`
}

// MCAQuadConfig mirrors backend/mcaquad.Config's YAML surface.
type MCAQuadConfig struct {
	Mode        string  `yaml:"mode"`       // ieee|pb|rr|mca
	ErrorMode   string  `yaml:"error_mode"` // rel|abs|all
	Precision32 int     `yaml:"precision_binary32"`
	Precision64 int     `yaml:"precision_binary64"`
	AbsErrExp32 int32   `yaml:"abs_err_exp_binary32"`
	AbsErrExp64 int32   `yaml:"abs_err_exp_binary64"`
	Sparsity    float64 `yaml:"sparsity"`
	DAZ         bool    `yaml:"daz"`
	FTZ         bool    `yaml:"ftz"`
}

// MCAIntConfig mirrors backend/mcaint.Config's YAML surface. There is no
// precision field: §4.7 fixes it and rejects runtime overrides.
type MCAIntConfig struct {
	Mode     string  `yaml:"mode"`
	Sparsity float64 `yaml:"sparsity"`
	DAZ      bool    `yaml:"daz"`
	FTZ      bool    `yaml:"ftz"`
}

// Default returns the configuration the ieee backend runs under when no
// file is supplied, matching the loading contract's "silent, plain
// IEEE" fallback.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Backend: "ieee",
		MCAQuad: MCAQuadConfig{Mode: "mca", ErrorMode: "rel", Precision32: 12, Precision64: 24, Sparsity: 1},
		MCAInt:  MCAIntConfig{Mode: "mca", Sparsity: 1},
		Bitmask: BitmaskConfig{Mode: "ob", Operator: "zero", Precision32: 12, Precision64: 24},
		Cancellation: CancellationConfig{Tolerance: 1},
	}
}

// Load reads a YAML config file, overlaying it onto Default(). A missing
// path returns the defaults unchanged, matching the "no config found,
// run plain IEEE" fallback the loading contract requires.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

var validBackends = map[string]bool{
	"ieee": true, "bitmask": true, "cancellation": true, "mcaquad": true, "mcaint": true,
}

// Validate checks the top-level backend selector and the selected
// backend's sparsity or tolerance, so those mistakes fail before any
// backend is constructed. Mode strings are checked by session.Build and
// precision ranges by each backend's Configure.
func (c *Config) Validate() error {
	if !validBackends[c.Backend] {
		return fmt.Errorf("backend %q is not one of ieee|bitmask|cancellation|mcaquad|mcaint", c.Backend)
	}
	if c.Backend == "mcaquad" && c.MCAQuad.Sparsity <= 0 {
		return fmt.Errorf("mcaquad.sparsity must be > 0")
	}
	if c.Backend == "mcaint" && c.MCAInt.Sparsity <= 0 {
		return fmt.Errorf("mcaint.sparsity must be > 0")
	}
	if c.Backend == "cancellation" && c.Cancellation.Tolerance < 0 {
		return fmt.Errorf("cancellation.tolerance must be >= 0")
	}
	return nil
}
