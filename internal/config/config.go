// Package config loads and validates the spectra tool configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete tool configuration.
type Config struct {
	// Repo configures the version-controlled location of the store.
	Repo RepoConfig `yaml:"repo"`

	// Store configures the sample store.
	Store StoreConfig `yaml:"store"`

	// Summary configures per-reading summary statistics.
	Summary SummaryConfig `yaml:"summary"`

	// Plot configures chart rendering.
	Plot PlotConfig `yaml:"plot"`
}

// RepoConfig configures the git repository holding the store file.
type RepoConfig struct {
	// URL is the remote repository URL.
	URL string `yaml:"url"`

	// Dir is the local checkout directory.
	Dir string `yaml:"dir"`

	// Branch is the branch pushed to.
	Branch string `yaml:"branch"`

	// Remote is the remote name.
	Remote string `yaml:"remote"`

	// AuthorName and AuthorEmail identify commits made by the tool.
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`

	// Timeout bounds clone, pull and push operations.
	Timeout Duration `yaml:"timeout"`
}

// Duration is a time.Duration that can be unmarshaled from YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		// Try as int (seconds)
		var i int
		if err := unmarshal(&i); err != nil {
			return err
		}
		*d = Duration(time.Duration(i) * time.Second)
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// StoreConfig configures the sample store.
type StoreConfig struct {
	// File is the store file name, relative to the repo directory.
	File string `yaml:"file"`
}

// SummaryConfig configures per-reading summary statistics.
type SummaryConfig struct {
	// PercentileAccuracy is the DDSketch relative accuracy (0.01 = 1% error).
	PercentileAccuracy float64 `yaml:"percentile_accuracy"`
}

// PlotConfig configures chart rendering.
type PlotConfig struct {
	// Output is the default chart output path.
	Output string `yaml:"output"`

	// WidthIn and HeightIn are the chart dimensions in inches.
	WidthIn  float64 `yaml:"width_in"`
	HeightIn float64 `yaml:"height_in"`
}

// StorePath returns the absolute-or-relative path of the store file
// inside the repo checkout.
func (c *Config) StorePath() string {
	return filepath.Join(c.Repo.Dir, c.Store.File)
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Repo: RepoConfig{
			URL:         "https://github.com/aa08453/ML-and-Absorption-Spectroscopy.git",
			Dir:         "repo",
			Branch:      "main",
			Remote:      "origin",
			AuthorName:  "spectra",
			AuthorEmail: "spectra@localhost",
			Timeout:     Duration(2 * time.Minute),
		},
		Store: StoreConfig{
			File: "samples.duckdb",
		},
		Summary: SummaryConfig{
			PercentileAccuracy: 0.01,
		},
		Plot: PlotConfig{
			Output:   "spectra.png",
			WidthIn:  10,
			HeightIn: 6,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Repo.Dir == "" {
		return fmt.Errorf("repo.dir must not be empty")
	}
	if c.Store.File == "" {
		return fmt.Errorf("store.file must not be empty")
	}
	if c.Summary.PercentileAccuracy <= 0 || c.Summary.PercentileAccuracy >= 1 {
		return fmt.Errorf("summary.percentile_accuracy must be in (0, 1), got %v", c.Summary.PercentileAccuracy)
	}
	if c.Plot.WidthIn <= 0 || c.Plot.HeightIn <= 0 {
		return fmt.Errorf("plot dimensions must be positive")
	}
	if c.Repo.Timeout <= 0 {
		return fmt.Errorf("repo.timeout must be positive")
	}
	return nil
}
