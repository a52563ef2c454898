// Package config provides configuration management for tandem.
package config

import "time"

// Config holds all configuration options for the supervisor. The
// embedding collaborator owns where these values come from; this package
// only parses and validates them.
type Config struct {
	// Primary worker
	PrimaryPath string   `json:"primary_path"`
	PrimaryArgs []string `json:"primary_args"`
	PrimaryDir  string   `json:"primary_dir"`

	// Secondary worker (started after the primary signals readiness)
	SecondaryPath string   `json:"secondary_path"`
	SecondaryArgs []string `json:"secondary_args"`
	SecondaryDir  string   `json:"secondary_dir"`
	SecondaryEnv  []string `json:"secondary_env"`

	// ReadySentinel is the substring in the primary's stdout that marks
	// it ready for the secondary to start.
	ReadySentinel string `json:"ready_sentinel"`

	// Lifecycle
	GracePeriod  time.Duration `json:"grace_period"`  // terminate → kill escalation
	PollInterval time.Duration `json:"poll_interval"` // liveness check cadence
	SweepNames   []string      `json:"sweep_names"`   // orphan sweep targets
	HideWindows  bool          `json:"hide_windows"`  // suppress console windows (Windows)

	// Observability
	MetricsAddr string `json:"metrics_addr"` // empty = disabled
	LogFormat   string `json:"log_format"`   // json, text
	LogLevel    string `json:"log_level"`
	LogFile     string `json:"log_file"` // empty = stderr only
	Verbose     bool   `json:"verbose"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		GracePeriod:  5 * time.Second,
		PollInterval: 1 * time.Second,
		HideWindows:  true,

		MetricsAddr: "", // disabled
		LogFormat:   "text",
		LogLevel:    "info",
		Verbose:     false,
	}
}
