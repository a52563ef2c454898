package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/tandemproc/tandem/internal/logstream"
)

// consoleObserver renders log lines to a writer with a colored source
// tag. It is the reference embedding collaborator: everything it does is
// subscribe callbacks, nothing in the core depends on it.
type consoleObserver struct {
	mu sync.Mutex
	w  io.Writer

	primaryStyle   lipgloss.Style
	secondaryStyle lipgloss.Style
	statusStyle    lipgloss.Style
	stderrStyle    lipgloss.Style
}

func newConsoleObserver(w io.Writer) *consoleObserver {
	return &consoleObserver{
		w:              w,
		primaryStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("6")),  // cyan
		secondaryStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),  // green
		statusStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),  // yellow
		stderrStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),  // red
	}
}

// print is the subscriber callback for every channel. The mutex keeps
// lines from the independent reader goroutines from interleaving
// mid-line; per-source order is already guaranteed upstream.
func (o *consoleObserver) print(line logstream.Line) {
	tag := o.styleFor(line.Source).Render("[" + line.Source + "]")

	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.w, "%s %s %s\n", line.Time.Format("15:04:05.000"), tag, line.Text)
}

func (o *consoleObserver) styleFor(source string) lipgloss.Style {
	switch {
	case source == logstream.SourceStatus:
		return o.statusStyle
	case strings.HasSuffix(source, "/"+logstream.StreamStderr):
		return o.stderrStyle
	case strings.HasPrefix(source, "primary/"):
		return o.primaryStyle
	default:
		return o.secondaryStyle
	}
}
