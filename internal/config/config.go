package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultProblem         = "wendyhunt"
	DefaultIterations      = 2000
	DefaultTolerance       = 1e-4
	DefaultVerifyTolerance = 1e-6
	DefaultGridX           = 5
	DefaultGridY           = 5
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Problem         string      `yaml:"problem"`
	Iterations      int         `yaml:"iterations"`
	Tolerance       float64     `yaml:"tolerance"`
	Sparse          bool        `yaml:"sparse"`
	Verify          bool        `yaml:"verify"`
	VerifyTolerance float64     `yaml:"verify_tolerance"`
	Discount        *float64    `yaml:"discount,omitempty"`
	InitialValue    float64     `yaml:"initial_value"`
	Output          string      `yaml:"output,omitempty"`
	Grid            GridConfig  `yaml:"grid"`
	Table           TableConfig `yaml:"table,omitempty"`
}

type GridConfig struct {
	NX int `yaml:"nx"`
	NY int `yaml:"ny"`
}

// TableConfig describes a custom problem inline, transitions indexed
// [action][state][next] and rewards [action][state].
type TableConfig struct {
	Transitions [][][]float64 `yaml:"transitions,omitempty"`
	Rewards     [][]float64   `yaml:"rewards,omitempty"`
	Discount    float64       `yaml:"discount,omitempty"`
	Actions     []string      `yaml:"actions,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Problem:         DefaultProblem,
		Iterations:      DefaultIterations,
		Tolerance:       DefaultTolerance,
		Sparse:          true,
		Verify:          true,
		VerifyTolerance: DefaultVerifyTolerance,
		Grid: GridConfig{
			NX: DefaultGridX,
			NY: DefaultGridY,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings no run could use.
func (c *Config) Validate() error {
	if c.Problem == "" {
		return errors.Wrap(ErrInvalid, "problem is required")
	}
	if c.Iterations < 0 {
		return errors.Wrapf(ErrInvalid, "iterations must be non-negative, got %d", c.Iterations)
	}
	if !(c.Tolerance > 0) {
		return errors.Wrapf(ErrInvalid, "tolerance must be positive, got %g", c.Tolerance)
	}
	if c.Verify && !(c.VerifyTolerance > 0) {
		return errors.Wrapf(ErrInvalid, "verify_tolerance must be positive, got %g", c.VerifyTolerance)
	}
	if c.Discount != nil && !(*c.Discount >= 0 && *c.Discount <= 1) {
		return errors.Wrapf(ErrInvalid, "discount must be in [0, 1], got %g", *c.Discount)
	}
	if c.Grid.NX < 2 || c.Grid.NY < 2 {
		return errors.Wrapf(ErrInvalid, "grid must be at least 2x2, got %dx%d", c.Grid.NX, c.Grid.NY)
	}
	return nil
}

// HasTable reports whether the config defines an inline table problem.
func (c *Config) HasTable() bool {
	return len(c.Table.Transitions) > 0
}
