// Package logstream carries worker output lines from stream readers to
// observers. Each worker stream is drained by one Reader goroutine that
// publishes onto a Channel; observers subscribe callbacks on the Channel.
package logstream

import "time"

// Source tags for the well-known channels. Worker streams use
// SourceTag(worker, stream), e.g. "primary/stdout".
const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"

	// SourceStatus tags supervisor status events (crashes, clean exits,
	// orphan cleanup) so observers can render them like ordinary output.
	SourceStatus = "status"
)

// SourceTag builds the source tag for a worker stream.
func SourceTag(worker, stream string) string {
	return worker + "/" + stream
}

// Line is a single line of output. Immutable once constructed; safe to
// share across subscribers without synchronization.
type Line struct {
	Source string
	Text   string
	Time   time.Time
}

// NewLine constructs a Line stamped with the current time.
func NewLine(source, text string) Line {
	return Line{Source: source, Text: text, Time: time.Now()}
}
