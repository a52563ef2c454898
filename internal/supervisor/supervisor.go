// Package supervisor orchestrates the two-worker pipeline: it spawns the
// primary, starts the secondary once the primary announces readiness,
// polls both for unexpected exits, and performs ordered shutdown with an
// orphan sweep on both ends of the run.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tandemproc/tandem/internal/config"
	"github.com/tandemproc/tandem/internal/logstream"
	"github.com/tandemproc/tandem/internal/metrics"
	"github.com/tandemproc/tandem/internal/process"
	"github.com/tandemproc/tandem/internal/readiness"
	"github.com/tandemproc/tandem/internal/sweep"
)

// Worker names used in source tags, metrics labels and status lines.
const (
	WorkerPrimary   = "primary"
	WorkerSecondary = "secondary"
)

// Supervisor owns the whole pipeline lifecycle. Start and Stop are
// idempotent and safe to call from different goroutines; every fault
// except a startup failure is funneled to the status channel and the log
// rather than raised to the caller.
type Supervisor struct {
	cfg    *config.Config
	logger *slog.Logger

	primaryOut   *logstream.Channel
	primaryErr   *logstream.Channel
	secondaryOut *logstream.Channel
	secondaryErr *logstream.Channel
	status       *logstream.Channel

	sweeper *sweep.Sweeper
	gate    *readiness.Gate

	// shutdownRequested flips before termination so the liveness check
	// does not misreport shutdown-induced exits as crashes.
	shutdownRequested atomic.Bool

	mu        sync.Mutex
	started   bool
	stopped   bool
	primary   *process.Handle
	secondary *process.Handle

	// one report per worker exit
	primaryReported   bool
	secondaryReported bool

	stopPoll chan struct{}
	pollDone chan struct{}
}

// New creates a Supervisor with its five observer channels. Nothing is
// spawned until Start.
func New(cfg *config.Config, logger *slog.Logger) *Supervisor {
	s := &Supervisor{
		cfg:          cfg,
		logger:       logger,
		primaryOut:   logstream.NewChannel(logstream.SourceTag(WorkerPrimary, logstream.StreamStdout)),
		primaryErr:   logstream.NewChannel(logstream.SourceTag(WorkerPrimary, logstream.StreamStderr)),
		secondaryOut: logstream.NewChannel(logstream.SourceTag(WorkerSecondary, logstream.StreamStdout)),
		secondaryErr: logstream.NewChannel(logstream.SourceTag(WorkerSecondary, logstream.StreamStderr)),
		status:       logstream.NewChannel(logstream.SourceStatus),
	}
	s.sweeper = sweep.New(cfg.SweepNames, logger, s.status)

	for _, ch := range s.Channels() {
		ch.Subscribe(func(l logstream.Line) { metrics.ObserveLine(l.Source) })
	}

	return s
}

// Channels returns all five observer channels.
func (s *Supervisor) Channels() []*logstream.Channel {
	return []*logstream.Channel{
		s.primaryOut, s.primaryErr,
		s.secondaryOut, s.secondaryErr,
		s.status,
	}
}

// PrimaryOut returns the primary worker's stdout channel.
func (s *Supervisor) PrimaryOut() *logstream.Channel { return s.primaryOut }

// PrimaryErr returns the primary worker's stderr channel.
func (s *Supervisor) PrimaryErr() *logstream.Channel { return s.primaryErr }

// SecondaryOut returns the secondary worker's stdout channel.
func (s *Supervisor) SecondaryOut() *logstream.Channel { return s.secondaryOut }

// SecondaryErr returns the secondary worker's stderr channel.
func (s *Supervisor) SecondaryErr() *logstream.Channel { return s.secondaryErr }

// Status returns the channel carrying liveness and sweep notifications.
func (s *Supervisor) Status() *logstream.Channel { return s.status }

// Start validates and spawns the primary worker, arms the readiness gate
// that will spawn the secondary, and begins the liveness loop. Idempotent;
// a second call on a running supervisor is a no-op. A startup failure is
// terminal for this run: it is reported and returned, nothing is spawned,
// and the supervisor does not retry.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.stopped {
		return fmt.Errorf("supervisor already stopped")
	}

	if err := checkExecutable(s.cfg.PrimaryPath); err != nil {
		err = fmt.Errorf("primary executable %s: %w", s.cfg.PrimaryPath, err)
		s.logger.Error("startup_failed", "error", err)
		s.report("startup failed: " + err.Error())
		return err
	}

	s.report("starting pipeline")
	if n := s.sweeper.Sweep(context.Background()); n > 0 {
		metrics.OrphansSwept(n)
	}

	// Arm the gate before the primary exists: its readers start
	// publishing immediately, and the sentinel may be the first line out.
	// The gate listens on the raw stdout stream, not on any rendering
	// layer, so the secondary starts right after genuine readiness.
	s.gate = readiness.NewGate(s.cfg.ReadySentinel, s.startSecondary)
	s.primaryOut.Subscribe(s.gate.Observe)

	primary, err := process.Start(process.Spec{
		Name:       WorkerPrimary,
		Path:       s.cfg.PrimaryPath,
		Args:       s.cfg.PrimaryArgs,
		Dir:        s.cfg.PrimaryDir,
		HideWindow: s.cfg.HideWindows,
	}, s.logger, s.primaryOut, s.primaryErr)
	if err != nil {
		err = fmt.Errorf("spawn primary: %w", err)
		s.logger.Error("startup_failed", "error", err)
		s.report("startup failed: " + err.Error())
		return err
	}
	s.primary = primary
	metrics.SetWorkerUp(WorkerPrimary, true)
	s.report(fmt.Sprintf("primary started (pid %d)", primary.PID()))

	s.stopPoll = make(chan struct{})
	s.pollDone = make(chan struct{})
	go s.livenessLoop()

	s.started = true
	return nil
}

// startSecondary is the readiness gate's action. It runs on the primary's
// stdout reader goroutine; a failure here leaves the primary running.
func (s *Supervisor) startSecondary() {
	// Checked again under the lock; this keeps the reader goroutine from
	// queueing behind a Stop already in progress.
	if s.shutdownRequested.Load() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.shutdownRequested.Load() {
		return
	}

	s.logger.Info("primary_ready", "sentinel", s.cfg.ReadySentinel)

	secondary, err := process.Start(process.Spec{
		Name:       WorkerSecondary,
		Path:       s.cfg.SecondaryPath,
		Args:       s.cfg.SecondaryArgs,
		Dir:        s.cfg.SecondaryDir,
		Env:        s.cfg.SecondaryEnv,
		HideWindow: s.cfg.HideWindows,
	}, s.logger, s.secondaryOut, s.secondaryErr)
	if err != nil {
		s.logger.Warn("secondary_spawn_failed", "error", err)
		s.report("secondary failed to start: " + err.Error())
		return
	}
	s.secondary = secondary
	metrics.SetWorkerUp(WorkerSecondary, true)
	s.report(fmt.Sprintf("secondary started (pid %d)", secondary.PID()))
}

// livenessLoop polls both handles on the configured interval until Stop.
func (s *Supervisor) livenessLoop() {
	defer close(s.pollDone)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopPoll:
			return
		case <-ticker.C:
			s.checkWorkers()
		}
	}
}

func (s *Supervisor) checkWorkers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkWorker(WorkerPrimary, s.primary, &s.primaryReported)
	s.checkWorker(WorkerSecondary, s.secondary, &s.secondaryReported)
}

// checkWorker reports an exited worker exactly once. Shutdown-induced
// exits are not classified; an unsolicited non-zero exit is a crash, a
// zero exit is clean. No auto-restart either way: a downed worker stays
// down until the owner restarts the whole supervisor.
func (s *Supervisor) checkWorker(name string, h *process.Handle, reported *bool) {
	if h == nil || *reported || h.Alive() {
		return
	}
	*reported = true
	metrics.SetWorkerUp(name, false)

	code, _ := h.ExitCode()
	if s.shutdownRequested.Load() {
		s.logger.Debug("worker_exit_during_shutdown", "worker", name, "exit_code", code)
		return
	}

	if code != 0 {
		s.logger.Warn("worker_crashed", "worker", name, "exit_code", code)
		s.report(fmt.Sprintf("%s crashed (exit code %d)", name, code))
		metrics.WorkerExited(name, "crashed")
	} else {
		s.logger.Info("worker_exited_cleanly", "worker", name)
		s.report(fmt.Sprintf("%s exited cleanly", name))
		metrics.WorkerExited(name, "clean")
	}
}

// Stop terminates the pipeline in reverse startup order (secondary, then
// primary), each with the configured grace period before forced kill, and
// sweeps orphans again. Idempotent: before Start it is a no-op, and
// repeat calls return immediately. Safe to call from a different
// goroutine than Start.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Before Start there is nothing to shut down, and flipping the
	// shutdown flag here would poison a later Start.
	if !s.started || s.stopped {
		return
	}
	s.shutdownRequested.Store(true)
	s.stopped = true

	close(s.stopPoll)

	s.report("stopping pipeline")
	s.terminate(s.secondary)
	s.terminate(s.primary)
	metrics.SetWorkerUp(WorkerPrimary, false)
	metrics.SetWorkerUp(WorkerSecondary, false)

	// Catch anything spawned outside this supervisor's direct ownership.
	if n := s.sweeper.Sweep(context.Background()); n > 0 {
		metrics.OrphansSwept(n)
	}
	s.report("pipeline stopped")
}

// Wait blocks until the liveness loop has exited. Only meaningful after
// Stop.
func (s *Supervisor) Wait() {
	s.mu.Lock()
	done := s.pollDone
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// terminate shuts one worker down; termination faults never abort the
// rest of the shutdown sequence.
func (s *Supervisor) terminate(h *process.Handle) {
	if h == nil {
		return
	}
	if err := h.Terminate(s.cfg.GracePeriod); err != nil {
		s.logger.Warn("worker_termination_fault",
			"worker", h.Name(),
			"pid", h.PID(),
			"error", err,
		)
	}
}

func (s *Supervisor) report(text string) {
	s.status.Publish(logstream.NewLine(logstream.SourceStatus, text))
}

// checkExecutable verifies the path names a readable regular file before
// anything is spawned. A missing or unreadable primary is a startup
// failure, not a spawn error.
func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("is a directory")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}
