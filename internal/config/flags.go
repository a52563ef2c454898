package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// stringList is a custom flag type for repeatable flags.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ", ")
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// ParseFlags parses command-line flags and returns a Config.
func ParseFlags() (*Config, error) {
	cfg := DefaultConfig()
	var primaryArgs, secondaryArgs, secondaryEnv, sweepNames stringList

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `tandem - readiness-gated supervisor for a two-worker pipeline

Usage:
  tandem -primary <path> -secondary <path> -ready-sentinel <substring> [flags]

Workers:
`)
		printFlagCategory([]string{"primary", "primary-arg", "primary-dir", "secondary", "secondary-arg", "secondary-dir", "secondary-env"})

		fmt.Fprintf(os.Stderr, "\nReadiness:\n")
		printFlagCategory([]string{"ready-sentinel"})

		fmt.Fprintf(os.Stderr, "\nLifecycle:\n")
		printFlagCategory([]string{"grace-period", "poll-interval", "sweep-name", "hide-windows"})

		fmt.Fprintf(os.Stderr, "\nObservability:\n")
		printFlagCategory([]string{"metrics", "log-format", "log-level", "log-file", "v"})

		fmt.Fprintf(os.Stderr, `
Examples:
  # Supervise a server/client pair; client starts when the server is up
  tandem -primary ./start_server -secondary ./start_client \
    -ready-sentinel "service up" -sweep-name start_server

`)
	}

	// Workers
	flag.StringVar(&cfg.PrimaryPath, "primary", cfg.PrimaryPath, "Path to the primary worker executable")
	flag.Var(&primaryArgs, "primary-arg", "Argument for the primary worker (can repeat)")
	flag.StringVar(&cfg.PrimaryDir, "primary-dir", cfg.PrimaryDir, "Working directory for the primary worker")
	flag.StringVar(&cfg.SecondaryPath, "secondary", cfg.SecondaryPath, "Path to the secondary worker executable")
	flag.Var(&secondaryArgs, "secondary-arg", "Argument for the secondary worker (can repeat)")
	flag.StringVar(&cfg.SecondaryDir, "secondary-dir", cfg.SecondaryDir, "Working directory for the secondary worker")
	flag.Var(&secondaryEnv, "secondary-env", "KEY=value environment override for the secondary worker (can repeat)")

	// Readiness
	flag.StringVar(&cfg.ReadySentinel, "ready-sentinel", cfg.ReadySentinel,
		"Substring in the primary's stdout that marks it ready")

	// Lifecycle
	flag.DurationVar(&cfg.GracePeriod, "grace-period", cfg.GracePeriod,
		"Wait after a graceful termination request before force-killing")
	flag.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval,
		"Interval between worker liveness checks")
	flag.Var(&sweepNames, "sweep-name",
		"Process name to terminate during the orphan sweep (can repeat)")
	flag.BoolVar(&cfg.HideWindows, "hide-windows", cfg.HideWindows,
		"Suppress worker console windows (Windows only)")

	// Observability
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr,
		"Prometheus metrics address (empty = disabled)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, `Log level: "debug", "info", "warn", "error"`)
	flag.StringVar(&cfg.LogFile, "log-file", cfg.LogFile,
		"Append-only log sink file (rotated; empty = stderr only)")
	flag.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")

	flag.Parse()

	cfg.PrimaryArgs = primaryArgs
	cfg.SecondaryArgs = secondaryArgs
	cfg.SecondaryEnv = secondaryEnv
	cfg.SweepNames = sweepNames

	return cfg, nil
}

// printFlagCategory prints flags matching the given names (helper for usage).
func printFlagCategory(names []string) {
	flag.VisitAll(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				fmt.Fprintf(os.Stderr, "  -%s\n    \t%s", f.Name, f.Usage)
				if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "0s" {
					fmt.Fprintf(os.Stderr, " (default %s)", f.DefValue)
				}
				fmt.Fprintln(os.Stderr)
				return
			}
		}
	})
}
