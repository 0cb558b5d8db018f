// Package projectconfig provides the ProjectConfig struct and loader for
// .probscore.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spboyer/probscore/internal/metrics"
	"github.com/spboyer/probscore/internal/models"
	"github.com/spboyer/probscore/internal/statistics"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up from the working
// directory upwards.
const FileName = ".probscore.yaml"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultSuiteFile  = "probscore.yaml"
	DefaultResultsDir = "results/"

	DefaultScoreAverage = true
	DefaultMultioutput  = string(metrics.UniformAverage)
	DefaultWorkers      = 4
	DefaultFormat       = "table"

	DefaultBootstrapSeed = 42

	DefaultServerPort         = 3000
	DefaultServerMaxBodyBytes = 32 << 20
)

// Formats lists the accepted report formats.
var Formats = []string{"table", "json", "junit"}

// PathsConfig holds the default suite file and results directory.
type PathsConfig struct {
	Suite   string `yaml:"suite,omitempty"`
	Results string `yaml:"results,omitempty"`
}

// DefaultsConfig holds default evaluation parameters.
type DefaultsConfig struct {
	ScoreAverage *bool  `yaml:"score_average,omitempty"`
	Multioutput  string `yaml:"multioutput,omitempty"`
	Workers      int    `yaml:"workers,omitempty"`
	Format       string `yaml:"format,omitempty"`
	ByIndex      *bool  `yaml:"by_index,omitempty"`
}

// BootstrapConfig holds confidence interval settings.
type BootstrapConfig struct {
	Enabled         *bool   `yaml:"enabled,omitempty"`
	ConfidenceLevel float64 `yaml:"confidence_level,omitempty"`
	Iterations      int     `yaml:"iterations,omitempty"`
	Seed            *int64  `yaml:"seed,omitempty"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port         int   `yaml:"port,omitempty"`
	MaxBodyBytes int64 `yaml:"max_body_bytes,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .probscore.yaml.
type ProjectConfig struct {
	Paths     PathsConfig     `yaml:"paths,omitempty"`
	Defaults  DefaultsConfig  `yaml:"defaults,omitempty"`
	Bootstrap BootstrapConfig `yaml:"bootstrap,omitempty"`
	Server    ServerConfig    `yaml:"server,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Paths: PathsConfig{
			Suite:   DefaultSuiteFile,
			Results: DefaultResultsDir,
		},
		Defaults: DefaultsConfig{
			ScoreAverage: boolPtr(DefaultScoreAverage),
			Multioutput:  DefaultMultioutput,
			Workers:      DefaultWorkers,
			Format:       DefaultFormat,
			ByIndex:      boolPtr(false),
		},
		Bootstrap: BootstrapConfig{
			Enabled:         boolPtr(false),
			ConfidenceLevel: statistics.DefaultConfidenceLevel,
			Iterations:      statistics.DefaultBootstrapIterations,
			Seed:            int64Ptr(DefaultBootstrapSeed),
		},
		Server: ServerConfig{
			Port:         DefaultServerPort,
			MaxBodyBytes: DefaultServerMaxBodyBytes,
		},
	}
}

// Load finds .probscore.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // no file found → return defaults
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	// Merge file values onto defaults.
	mergeConfig(cfg, &fileCfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", FileName, err)
	}
	return cfg, nil
}

// Validate rejects values the evaluation cannot use.
func (c *ProjectConfig) Validate() error {
	if _, err := metrics.ParseMultioutput(c.Defaults.Multioutput); err != nil {
		return err
	}
	if c.Defaults.Workers < 1 {
		return fmt.Errorf("defaults.workers must be at least 1, got %d", c.Defaults.Workers)
	}
	if !slices.Contains(Formats, c.Defaults.Format) {
		return fmt.Errorf("defaults.format must be one of %v, got %q", Formats, c.Defaults.Format)
	}
	if l := c.Bootstrap.ConfidenceLevel; l <= 0 || l >= 1 {
		return fmt.Errorf("bootstrap.confidence_level must be in (0, 1), got %g", l)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	return nil
}

// MetricOptions returns the default aggregation options.
func (c *ProjectConfig) MetricOptions() (metrics.Options, error) {
	m, err := metrics.ParseMultioutput(c.Defaults.Multioutput)
	if err != nil {
		return metrics.Options{}, err
	}
	return metrics.Options{ScoreAverage: *c.Defaults.ScoreAverage, Multioutput: m}, nil
}

// BootstrapSettings returns the bootstrap configuration for the runner.
func (c *ProjectConfig) BootstrapSettings() *models.BootstrapConfig {
	return &models.BootstrapConfig{
		Enabled:         *c.Bootstrap.Enabled,
		ConfidenceLevel: c.Bootstrap.ConfidenceLevel,
		Iterations:      c.Bootstrap.Iterations,
		Seed:            *c.Bootstrap.Seed,
	}
}

// findConfigFile walks up from dir looking for .probscore.yaml (max 10
// levels). Returns os.ErrNotExist if no config file is found. Propagates
// real I/O errors (e.g. permission denied) instead of silently swallowing
// them.
func findConfigFile(dir string) ([]byte, error) {
	// Convert to absolute path so filepath.Dir(".") walks correctly.
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Paths
	if src.Paths.Suite != "" {
		dst.Paths.Suite = src.Paths.Suite
	}
	if src.Paths.Results != "" {
		dst.Paths.Results = src.Paths.Results
	}

	// Defaults
	if src.Defaults.ScoreAverage != nil {
		dst.Defaults.ScoreAverage = src.Defaults.ScoreAverage
	}
	if src.Defaults.Multioutput != "" {
		dst.Defaults.Multioutput = src.Defaults.Multioutput
	}
	if src.Defaults.Workers != 0 {
		dst.Defaults.Workers = src.Defaults.Workers
	}
	if src.Defaults.Format != "" {
		dst.Defaults.Format = src.Defaults.Format
	}
	if src.Defaults.ByIndex != nil {
		dst.Defaults.ByIndex = src.Defaults.ByIndex
	}

	// Bootstrap
	if src.Bootstrap.Enabled != nil {
		dst.Bootstrap.Enabled = src.Bootstrap.Enabled
	}
	if src.Bootstrap.ConfidenceLevel != 0 {
		dst.Bootstrap.ConfidenceLevel = src.Bootstrap.ConfidenceLevel
	}
	if src.Bootstrap.Iterations != 0 {
		dst.Bootstrap.Iterations = src.Bootstrap.Iterations
	}
	if src.Bootstrap.Seed != nil {
		dst.Bootstrap.Seed = src.Bootstrap.Seed
	}

	// Server
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	if src.Server.MaxBodyBytes != 0 {
		dst.Server.MaxBodyBytes = src.Server.MaxBodyBytes
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func int64Ptr(i int64) *int64 {
	return &i
}
