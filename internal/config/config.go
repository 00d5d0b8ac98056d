// Package config defines analyzer configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Layer file, env, and flag sources on top via Load.
// - External errors are wrapped via this package's sentinel kinds.
package config

import (
	"fmt"
	"path/filepath"
)

// Config contains process configuration for one analysis sweep.
type Config struct {
	// Region and Season identify the dataset, e.g. "eu" / "tww-season3".
	Region string `koanf:"region"`
	Season string `koanf:"season"`

	// TargetLevel is the resilience key level the sweep starts at. The key
	// name matches the upstream config files.
	TargetLevel int `koanf:"resi_key_level"`

	// MaxLevel bounds both the sweep and the level window of resilience
	// calculations.
	MaxLevel int `koanf:"max_level"`

	// MinLevel is the lower bound of the resilience level window.
	MinLevel int `koanf:"min_level"`

	// DBPath overrides the derived "<season>-<region>.db" database path.
	DBPath string `koanf:"db_path"`

	// DungeonsPath points at the JSON map of dungeon name -> short code.
	DungeonsPath string `koanf:"dungeons_path"`

	// OutputDir receives the result files.
	OutputDir string `koanf:"output_dir"`

	// Workers sets how many goroutines scan characters during edge building.
	Workers int `koanf:"workers"`

	// CacheSize bounds the resilience memo cache (0 disables, <0 unbounded).
	CacheSize int `koanf:"cache_size"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr enables a Prometheus /metrics listener while the sweep
	// runs, e.g. ":9090". Empty disables it.
	MetricsAddr string `koanf:"metrics_addr"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		Region:       "eu",
		Season:       "tww-season3",
		TargetLevel:  20,
		MaxLevel:     25,
		MinLevel:     18,
		DungeonsPath: "dungeons.json",
		OutputDir:    ".",
		Workers:      1,
		CacheSize:    65536,
		LogLevel:     "info",
	}
}

// DBFile returns the season database path, derived from season and region
// unless overridden.
func (c *Config) DBFile() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return fmt.Sprintf("%s-%s.db", c.Season, c.Region)
}

// OutputPrefix returns the path prefix for result files at one target level.
func (c *Config) OutputPrefix(level int) string {
	return filepath.Join(c.OutputDir, fmt.Sprintf("%s-%s-resi%d", c.Season, c.Region, level))
}

// Validate checks level ordering and worker counts.
func (c *Config) Validate() error {
	if c.Region == "" || c.Season == "" {
		return fmt.Errorf("%w: region and season must not be empty", ErrInvalidConfig)
	}
	if c.TargetLevel <= 0 || c.MinLevel <= 0 {
		return fmt.Errorf("%w: levels must be positive", ErrInvalidConfig)
	}
	if c.MaxLevel < c.TargetLevel {
		return fmt.Errorf("%w: max_level %d below resi_key_level %d", ErrInvalidConfig, c.MaxLevel, c.TargetLevel)
	}
	if c.MinLevel > c.TargetLevel {
		return fmt.Errorf("%w: min_level %d above resi_key_level %d", ErrInvalidConfig, c.MinLevel, c.TargetLevel)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalidConfig)
	}
	return nil
}
