// Package config loads, validates and persists run configuration. All
// configuration defects are caught here, before any particle is touched.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/gravlab/internal/precision"
)

const (
	DefaultN              = 64
	DefaultEps            = 0.05
	DefaultDt             = 0.001
	DefaultEta            = 0.02
	DefaultDtMax          = 0.0625
	DefaultDtMin          = 1.0 / (1 << 21)
	DefaultDuration       = 4.0
	DefaultSampleInterval = 0.05
	DefaultMaxStalls      = 32
)

// Config is one run's full configuration.
type Config struct {
	Problem string `yaml:"problem"` // cold_collapse, kepler, plummer, ring
	Scheme  string `yaml:"scheme"`  // leapfrog, hermite

	N   int     `yaml:"n"`
	Eps float64 `yaml:"eps"`

	Dt    float64 `yaml:"dt"`     // leapfrog global step
	Eta   float64 `yaml:"eta"`    // hermite accuracy parameter
	DtMax float64 `yaml:"dt_max"` // hermite coarsest block step
	DtMin float64 `yaml:"dt_min"` // hermite finest block step

	Duration       float64 `yaml:"duration"`
	SampleInterval float64 `yaml:"sample_interval"`
	Seed           int64   `yaml:"seed"`

	Potential   bool `yaml:"potential"`    // compute potential energy
	ApproxRsqrt bool `yaml:"approx_rsqrt"` // fast reciprocal sqrt (low tier only)
	MaxStalls   int  `yaml:"max_stalls"`

	Precision PrecisionConfig `yaml:"precision"`
}

// PrecisionConfig names the tier per quantity class.
type PrecisionConfig struct {
	Force       string `yaml:"force"`
	Integrate   string `yaml:"integrate"`
	Diagnostics string `yaml:"diagnostics"`
}

func DefaultConfig() *Config {
	return &Config{
		Problem:        "cold_collapse",
		Scheme:         "leapfrog",
		N:              DefaultN,
		Eps:            DefaultEps,
		Dt:             DefaultDt,
		Eta:            DefaultEta,
		DtMax:          DefaultDtMax,
		DtMin:          DefaultDtMin,
		Duration:       DefaultDuration,
		SampleInterval: DefaultSampleInterval,
		Potential:      true,
		MaxStalls:      DefaultMaxStalls,
		Precision: PrecisionConfig{
			Force:       "mid",
			Integrate:   "mid",
			Diagnostics: "mid",
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
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

// Policy parses the tier assignment. Call Validate first; this repeats
// only the tier parsing so callers can build the evaluator directly.
func (c *Config) Policy() (precision.Policy, error) {
	var p precision.Policy
	var err error
	if p.Force, err = precision.ParseTier(c.Precision.Force); err != nil {
		return p, err
	}
	if p.Integrate, err = precision.ParseTier(c.Precision.Integrate); err != nil {
		return p, err
	}
	if p.Diagnostics, err = precision.ParseTier(c.Precision.Diagnostics); err != nil {
		return p, err
	}
	return p, nil
}

// ConfigError names the offending field. Fatal: a run never starts with
// one of these.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

var validSchemes = map[string]bool{"leapfrog": true, "hermite": true}

var validProblems = map[string]bool{
	"cold_collapse": true,
	"kepler":        true,
	"plummer":       true,
	"ring":          true,
}

// Validate applies the full fail-fast rule set.
func (c *Config) Validate() error {
	if !validProblems[c.Problem] {
		return &ConfigError{"problem", fmt.Sprintf("unknown problem %q", c.Problem)}
	}
	if !validSchemes[c.Scheme] {
		return &ConfigError{"scheme", fmt.Sprintf("unknown scheme %q", c.Scheme)}
	}
	if c.N <= 0 && c.Problem != "kepler" {
		return &ConfigError{"n", "particle count must be positive"}
	}
	if c.Eps <= 0 {
		return &ConfigError{"eps", "softening length must be positive"}
	}
	switch c.Scheme {
	case "leapfrog":
		if c.Dt <= 0 {
			return &ConfigError{"dt", "timestep must be positive"}
		}
	case "hermite":
		if c.Eta <= 0 {
			return &ConfigError{"eta", "accuracy parameter must be positive"}
		}
		if c.DtMax <= 0 || c.DtMin <= 0 {
			return &ConfigError{"dt_max", "block step bounds must be positive"}
		}
		if c.DtMin > c.DtMax {
			return &ConfigError{"dt_min", "finest step exceeds coarsest step"}
		}
	}
	if c.Duration <= 0 {
		return &ConfigError{"duration", "duration must be positive"}
	}
	if c.SampleInterval < 0 {
		return &ConfigError{"sample_interval", "sample interval must not be negative"}
	}
	if c.MaxStalls < 0 {
		return &ConfigError{"max_stalls", "stall limit must not be negative"}
	}

	p, err := c.Policy()
	if err != nil {
		return &ConfigError{"precision", err.Error()}
	}
	if c.ApproxRsqrt && p.Force != precision.Low {
		return &ConfigError{"approx_rsqrt", "approximate rsqrt requires the low force tier"}
	}
	return nil
}
