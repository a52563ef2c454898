// Package readiness gates the secondary worker's startup on the primary
// announcing readiness in its output.
package readiness

import (
	"strings"
	"sync/atomic"

	"github.com/tandemproc/tandem/internal/logstream"
)

// Gate is a two-state machine: WAITING until the first observed line
// contains the sentinel substring, then TRIGGERED (terminal). The
// transition runs the registered action exactly once, even when several
// matching lines are delivered concurrently. A triggered gate cannot be
// reused; later lines pass through it untouched.
type Gate struct {
	sentinel  string
	action    func()
	triggered atomic.Bool
}

// NewGate creates a gate that runs action the first time a line
// containing sentinel is observed.
func NewGate(sentinel string, action func()) *Gate {
	return &Gate{sentinel: sentinel, action: action}
}

// Observe inspects one line. Intended to be subscribed directly on the
// primary's stdout channel.
func (g *Gate) Observe(line logstream.Line) {
	if g.triggered.Load() {
		return
	}
	if !strings.Contains(line.Text, g.sentinel) {
		return
	}
	// CAS guards against duplicate sentinel lines racing the transition.
	if g.triggered.CompareAndSwap(false, true) {
		g.action()
	}
}

// Triggered reports whether the gate has fired.
func (g *Gate) Triggered() bool {
	return g.triggered.Load()
}
