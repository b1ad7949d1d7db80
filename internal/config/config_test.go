package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	if cfg.Store.File != "samples.duckdb" {
		t.Errorf("expected samples.duckdb, got %s", cfg.Store.File)
	}
	if cfg.StorePath() != filepath.Join("repo", "samples.duckdb") {
		t.Errorf("unexpected store path %s", cfg.StorePath())
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spectra.yaml")

	content := `
repo:
  url: https://example.com/data.git
  dir: checkout
  branch: data
  timeout: 30s
store:
  file: milk.duckdb
summary:
  percentile_accuracy: 0.05
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Repo.URL != "https://example.com/data.git" {
		t.Errorf("unexpected repo url %s", cfg.Repo.URL)
	}
	if cfg.Repo.Timeout.Duration() != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.Repo.Timeout)
	}
	if cfg.StorePath() != filepath.Join("checkout", "milk.duckdb") {
		t.Errorf("unexpected store path %s", cfg.StorePath())
	}

	// Unset fields keep their defaults.
	if cfg.Repo.Remote != "origin" {
		t.Errorf("expected default remote, got %s", cfg.Repo.Remote)
	}
	if cfg.Plot.Output != "spectra.png" {
		t.Errorf("expected default plot output, got %s", cfg.Plot.Output)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}

	// Callers fall back to defaults when the file is missing, so the
	// wrapped error must stay detectable through the chain.
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing file not detectable via errors.Is: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty repo dir", func(c *Config) { c.Repo.Dir = "" }},
		{"empty store file", func(c *Config) { c.Store.File = "" }},
		{"zero accuracy", func(c *Config) { c.Summary.PercentileAccuracy = 0 }},
		{"accuracy too large", func(c *Config) { c.Summary.PercentileAccuracy = 1 }},
		{"zero plot width", func(c *Config) { c.Plot.WidthIn = 0 }},
		{"zero timeout", func(c *Config) { c.Repo.Timeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
