// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load() to layer sources.
// - External errors must be wrapped via this package's error kinds.
package config

import "runtime"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// BestN sets the initial number of races counted toward season totals.
	BestN int `koanf:"best_n"`

	// PointsBase sets the points awarded for first place in a race.
	PointsBase int `koanf:"points_base"`

	// TablePath points at a age-grading standards file. Empty means the
	// embedded table.
	TablePath string `koanf:"table_path"`

	// RescoreWorkers bounds concurrent race rescores during a full recompute.
	RescoreWorkers int `koanf:"rescore_workers"`

	// MaxStandingsLimit caps the limit query parameter on standings reads.
	MaxStandingsLimit int `koanf:"max_standings_limit"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		BestN:             5,
		PointsBase:        25,
		TablePath:         "",
		RescoreWorkers:    runtime.NumCPU(),
		MaxStandingsLimit: 500,
	}
}
