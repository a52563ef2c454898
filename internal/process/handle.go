package process

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tandemproc/tandem/internal/logstream"
)

// Handle owns one spawned worker process together with the two Readers
// draining its stdout and stderr. The readers live until the process
// closes its streams, normally on exit.
type Handle struct {
	spec   Spec
	cmd    *exec.Cmd
	pid    int
	logger *slog.Logger

	outReader *logstream.Reader
	errReader *logstream.Reader

	done     chan struct{}
	exited   atomic.Bool
	exitCode atomic.Int64

	termMu sync.Mutex
}

// Start launches the worker described by spec and begins draining its
// stdout and stderr onto the given channels. The returned Handle is live;
// a spawn failure returns a nil Handle and the error.
func Start(spec Spec, logger *slog.Logger, out, errCh *logstream.Channel) (*Handle, error) {
	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	setSysProcAttr(cmd, spec.HideWindow)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%s stdout pipe: %w", spec.Name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%s stderr pipe: %w", spec.Name, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", spec.Name, err)
	}

	h := &Handle{
		spec:   spec,
		cmd:    cmd,
		pid:    cmd.Process.Pid,
		logger: logger,
		done:   make(chan struct{}),
	}
	h.outReader = logstream.NewReader(logstream.SourceTag(spec.Name, logstream.StreamStdout), stdout, out, logger)
	h.errReader = logstream.NewReader(logstream.SourceTag(spec.Name, logstream.StreamStderr), stderr, errCh, logger)
	go h.outReader.Run()
	go h.errReader.Run()
	go h.wait()

	logger.Info("worker_started",
		"worker", spec.Name,
		"path", spec.Path,
		"pid", h.pid,
	)

	return h, nil
}

// wait reaps the process after both streams have drained, per the
// exec.Cmd pipe contract, then records the exit code.
func (h *Handle) wait() {
	<-h.outReader.Done()
	<-h.errReader.Done()

	waitErr := h.cmd.Wait()
	code := extractExitCode(waitErr)
	h.exitCode.Store(int64(code))
	h.exited.Store(true)
	close(h.done)

	h.logger.Info("worker_exited",
		"worker", h.spec.Name,
		"pid", h.pid,
		"exit_code", code,
	)
}

// PID returns the spawn-time process id.
func (h *Handle) PID() int {
	return h.pid
}

// Name returns the worker name from the spec.
func (h *Handle) Name() string {
	return h.spec.Name
}

// Alive reports whether the process has not yet exited. Non-blocking and
// nil-safe.
func (h *Handle) Alive() bool {
	if h == nil {
		return false
	}
	return !h.exited.Load()
}

// ExitCode returns the exit code once the process has exited.
func (h *Handle) ExitCode() (int, bool) {
	if h == nil || !h.exited.Load() {
		return 0, false
	}
	return int(h.exitCode.Load()), true
}

// Done is closed when the process has exited and both streams are
// drained.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Terminate requests graceful termination and waits up to grace; if the
// process is still alive it is force-killed. Idempotent: terminating an
// already-exited or nil handle is a no-op. The returned error reports an
// escalation or a kill that did not take; callers log it and move on.
func (h *Handle) Terminate(grace time.Duration) error {
	if h == nil || h.cmd == nil || h.cmd.Process == nil {
		return nil
	}
	h.termMu.Lock()
	defer h.termMu.Unlock()

	if !h.Alive() {
		return nil
	}

	if err := terminateProcess(h.cmd.Process); err != nil {
		h.logger.Warn("terminate_request_failed",
			"worker", h.spec.Name,
			"pid", h.pid,
			"error", err,
		)
	}

	select {
	case <-h.done:
		return nil
	case <-time.After(grace):
	}

	h.logger.Warn("force_killing_worker", "worker", h.spec.Name, "pid", h.pid)
	if err := killProcess(h.cmd.Process); err != nil {
		h.logger.Warn("kill_failed", "worker", h.spec.Name, "pid", h.pid, "error", err)
	}

	// A killed process should be reaped promptly; bound the wait anyway
	// in case the kill was denied.
	select {
	case <-h.done:
	case <-time.After(grace):
		return fmt.Errorf("%s (pid %d) did not exit after kill", h.spec.Name, h.pid)
	}
	return errors.New("process did not exit gracefully")
}

// extractExitCode extracts the exit code from a Wait() error.
func extractExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitCodeFromState(exitErr)
	}

	// Unknown error, assume exit code 1
	return 1
}
