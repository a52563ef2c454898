// Package sweep terminates stale worker processes left over from earlier
// runs, matched by executable name. The sweep is best-effort: matching
// relies on exact names, every per-process failure is logged and skipped,
// and the sweep never fails the caller.
package sweep

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/tandemproc/tandem/internal/logstream"
)

// proc is the slice of a host process the sweeper needs. Satisfied by
// gopsutil in production and by fakes in tests.
type proc interface {
	Pid() int32
	Name(ctx context.Context) (string, error)
	Terminate(ctx context.Context) error
}

// lister enumerates host processes.
type lister func(ctx context.Context) ([]proc, error)

// Sweeper terminates processes whose executable name matches one of the
// configured names.
type Sweeper struct {
	names  []string
	logger *slog.Logger
	status *logstream.Channel
	list   lister
}

// New creates a sweeper over the host process table. status may be nil
// when no observer channel is wired (e.g. in tests).
func New(names []string, logger *slog.Logger, status *logstream.Channel) *Sweeper {
	return &Sweeper{
		names:  names,
		logger: logger,
		status: status,
		list:   listHostProcesses,
	}
}

// Sweep enumerates host processes and requests termination of every
// name match, skipping the current process. Returns the number of
// termination requests issued. Never returns an error: enumeration or
// per-process failures are logged and the sweep continues.
func (s *Sweeper) Sweep(ctx context.Context) int {
	if len(s.names) == 0 {
		return 0
	}

	procs, err := s.list(ctx)
	if err != nil {
		s.logger.Warn("orphan_sweep_enumeration_failed", "error", err)
		return 0
	}

	self := int32(os.Getpid())
	swept := 0
	for _, p := range procs {
		if p.Pid() == self {
			continue
		}
		name, err := p.Name(ctx)
		if err != nil {
			// Process vanished or access denied; nothing to clean here.
			continue
		}
		if !s.match(name) {
			continue
		}
		if err := p.Terminate(ctx); err != nil {
			s.logger.Warn("orphan_terminate_failed",
				"name", name,
				"pid", p.Pid(),
				"error", err,
			)
			continue
		}
		swept++
		s.logger.Info("orphan_terminated", "name", name, "pid", p.Pid())
		s.report("cleaned up orphan process " + name)
	}
	return swept
}

// match compares case-insensitively against the configured names.
func (s *Sweeper) match(name string) bool {
	for _, want := range s.names {
		if strings.EqualFold(name, want) {
			return true
		}
	}
	return false
}

func (s *Sweeper) report(text string) {
	if s.status == nil {
		return
	}
	s.status.Publish(logstream.NewLine(logstream.SourceStatus, text))
}

// hostProc adapts gopsutil to the proc interface.
type hostProc struct {
	p *process.Process
}

func (h hostProc) Pid() int32 {
	return h.p.Pid
}

func (h hostProc) Name(ctx context.Context) (string, error) {
	return h.p.NameWithContext(ctx)
}

func (h hostProc) Terminate(ctx context.Context) error {
	return h.p.TerminateWithContext(ctx)
}

func listHostProcesses(ctx context.Context) ([]proc, error) {
	ps, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]proc, 0, len(ps))
	for _, p := range ps {
		out = append(out, hostProc{p: p})
	}
	return out, nil
}
