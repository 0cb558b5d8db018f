package models

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSuite reports a suite file that cannot be run.
var ErrInvalidSuite = errors.New("invalid suite")

// Suite is a named set of metric evaluations run against one
// observations/forecast pair.
type Suite struct {
	SuiteIdentity `yaml:",inline"`
	Config        SuiteConfig  `yaml:"config,omitempty" json:"config,omitempty"`
	Metrics       []MetricSpec `yaml:"metrics" json:"metrics"`
}

type SuiteIdentity struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// SuiteConfig holds suite-wide defaults. Unset fields fall back to the
// project configuration.
type SuiteConfig struct {
	ScoreAverage *bool            `yaml:"score_average,omitempty" json:"score_average,omitempty"`
	Multioutput  string           `yaml:"multioutput,omitempty" json:"multioutput,omitempty"`
	Workers      int              `yaml:"max_workers,omitempty" json:"workers,omitempty"`
	ByIndex      bool             `yaml:"by_index,omitempty" json:"by_index,omitempty"`
	Bootstrap    *BootstrapConfig `yaml:"bootstrap,omitempty" json:"bootstrap,omitempty"`
}

// BootstrapConfig enables confidence intervals over the per-time-point
// series of each metric.
type BootstrapConfig struct {
	Enabled         bool    `yaml:"enabled" json:"enabled"`
	ConfidenceLevel float64 `yaml:"confidence_level,omitempty" json:"confidence_level,omitempty"`
	Iterations      int     `yaml:"iterations,omitempty" json:"iterations,omitempty"`
	Seed            int64   `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// MetricSpec defines one metric evaluation.
type MetricSpec struct {
	Name      string         `yaml:"name" json:"name"`
	Type      string         `yaml:"type" json:"type"`
	Params    map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
	Threshold *Threshold     `yaml:"threshold,omitempty" json:"threshold,omitempty"`
}

// DisplayName returns the metric name, or its type when unnamed.
func (m MetricSpec) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.Type
}

// Threshold bounds a metric result. Max and Min apply to every entry of
// the result. Tolerance bounds the distance of an empirical coverage from
// its nominal level.
type Threshold struct {
	Max       *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Min       *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Tolerance *float64 `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
}

// LoadSuite loads a suite from a YAML file
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSuite(data)
}

// ParseSuite decodes and validates a YAML suite document.
func ParseSuite(data []byte) (*Suite, error) {
	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSuite, err)
	}

	if err := suite.Validate(); err != nil {
		return nil, err
	}

	return &suite, nil
}

// Validate checks that the suite is runnable
func (s *Suite) Validate() error {
	if len(s.Metrics) == 0 {
		return fmt.Errorf("%w: at least one metric is required", ErrInvalidSuite)
	}
	if s.Config.Workers < 0 {
		return fmt.Errorf("%w: max_workers must not be negative, got %d", ErrInvalidSuite, s.Config.Workers)
	}
	if b := s.Config.Bootstrap; b != nil && b.ConfidenceLevel != 0 && (b.ConfidenceLevel <= 0 || b.ConfidenceLevel >= 1) {
		return fmt.Errorf("%w: bootstrap.confidence_level must be in (0, 1), got %g", ErrInvalidSuite, b.ConfidenceLevel)
	}

	seen := make(map[string]bool, len(s.Metrics))
	for i, m := range s.Metrics {
		if m.Type == "" {
			return fmt.Errorf("%w: metrics[%d]: type is required", ErrInvalidSuite, i)
		}
		name := m.DisplayName()
		if seen[name] {
			return fmt.Errorf("%w: duplicate metric name %q", ErrInvalidSuite, name)
		}
		seen[name] = true

		if err := m.Threshold.validate(); err != nil {
			return fmt.Errorf("%w: metric %q: %v", ErrInvalidSuite, name, err)
		}
	}
	return nil
}

func (t *Threshold) validate() error {
	if t == nil {
		return nil
	}
	if t.Max != nil && t.Min != nil && *t.Min > *t.Max {
		return fmt.Errorf("threshold.min %g is above threshold.max %g", *t.Min, *t.Max)
	}
	if t.Tolerance != nil && (*t.Tolerance < 0 || *t.Tolerance > 1) {
		return fmt.Errorf("threshold.tolerance must be in [0, 1], got %g", *t.Tolerance)
	}
	return nil
}
