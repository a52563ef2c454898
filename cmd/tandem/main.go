// Package main provides the tandem CLI entry point.
//
// tandem supervises a two-worker pipeline: a primary process and a
// secondary process that starts only after the primary announces
// readiness on its stdout. Worker output is streamed to the console and
// to an append-only log sink.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tandemproc/tandem/internal/config"
	"github.com/tandemproc/tandem/internal/logging"
	"github.com/tandemproc/tandem/internal/metrics"
	"github.com/tandemproc/tandem/internal/supervisor"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/tandem
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Handle version flag early (before flag parsing)
	if len(os.Args) > 1 {
		arg := os.Args[1]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Printf("tandem %s\n", version)
			return 0
		}
	}

	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return 1
	}

	// Initialize logger; tee into the rotating sink when configured.
	var logWriter io.Writer = os.Stderr
	if cfg.LogFile != "" {
		sink := logging.NewRotatingSink(cfg.LogFile)
		defer sink.Close()
		logWriter = io.MultiWriter(os.Stderr, sink)
	}
	logger := logging.NewLogger(logWriter, cfg.LogFormat, cfg.LogLevel, cfg.Verbose)
	logging.SetDefault(logger)

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	logger.Info("starting",
		"version", version,
		"primary", cfg.PrimaryPath,
		"secondary", cfg.SecondaryPath,
		"sentinel", cfg.ReadySentinel,
		"grace_period", cfg.GracePeriod.String(),
		"poll_interval", cfg.PollInterval.String(),
	)

	metrics.Register()
	var metricsServer *metrics.Server
	if cfg.MetricsAddr != "" {
		metricsServer = metrics.NewServer(cfg.MetricsAddr, logger)
		metricsServer.Start()
	}

	sup := supervisor.New(cfg, logger)

	// Console observer: the minimal embedding collaborator.
	obs := newConsoleObserver(os.Stdout)
	for _, ch := range sup.Channels() {
		ch.Subscribe(obs.print)
	}

	if err := sup.Start(); err != nil {
		logger.Error("supervisor_failed", "error", err)
		return 1
	}

	printBanner(cfg)

	// First signal stops the pipeline; a second one forces exit.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("signal_received", "signal", sig.String())

	go func() {
		<-sigCh
		logger.Warn("second_signal_forcing_exit")
		os.Exit(1)
	}()

	sup.Stop()
	sup.Wait()

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Warn("metrics_server_shutdown_error", "error", err)
		}
	}

	return 0
}

// printBanner prints the startup banner.
func printBanner(cfg *config.Config) {
	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                         tandem                            ║")
	fmt.Println("║        readiness-gated two-worker pipeline supervisor     ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Primary:    %s\n", cfg.PrimaryPath)
	fmt.Printf("  Secondary:  %s (starts on %q)\n", cfg.SecondaryPath, cfg.ReadySentinel)
	if cfg.MetricsAddr != "" {
		fmt.Printf("  Metrics:    http://%s/metrics\n", cfg.MetricsAddr)
	}
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop.")
	fmt.Println()
}
