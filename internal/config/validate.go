package config

import (
	"errors"
	"fmt"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors and inconsistencies.
// Returns nil if valid, or an error describing the problem.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.PrimaryPath == "" {
		errs = append(errs, ValidationError{
			Field:   "primary",
			Message: "primary worker executable is required",
		})
	}

	if cfg.SecondaryPath == "" {
		errs = append(errs, ValidationError{
			Field:   "secondary",
			Message: "secondary worker executable is required",
		})
	}

	// Without a sentinel the secondary would never start.
	if cfg.ReadySentinel == "" {
		errs = append(errs, ValidationError{
			Field:   "ready_sentinel",
			Message: "readiness sentinel substring is required",
		})
	}

	if cfg.GracePeriod <= 0 {
		errs = append(errs, ValidationError{
			Field:   "grace_period",
			Message: "must be positive",
		})
	}

	if cfg.PollInterval <= 0 {
		errs = append(errs, ValidationError{
			Field:   "poll_interval",
			Message: "must be positive",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.LogFormat] {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json' or 'text' (got %q)", cfg.LogFormat),
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.LogLevel] {
		errs = append(errs, ValidationError{
			Field:   "log_level",
			Message: fmt.Sprintf("must be one of: debug, info, warn, error (got %q)", cfg.LogLevel),
		})
	}

	for _, kv := range cfg.SecondaryEnv {
		if !containsEquals(kv) {
			errs = append(errs, ValidationError{
				Field:   "secondary_env",
				Message: fmt.Sprintf("must be KEY=value (got %q)", kv),
			})
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func containsEquals(kv string) bool {
	for i := 0; i < len(kv); i++ {
		if kv[i] == '=' {
			return i > 0
		}
	}
	return false
}
