package logstream

import (
	"bufio"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
)

// Reader drains one worker stream (stdout or stderr) line by line until
// EOF, recording each line to the structured log and publishing it on a
// Channel. One Reader runs per stream on its own goroutine.
//
// A read error mid-stream is logged and treated as end-of-stream; the
// reader never panics into its caller.
type Reader struct {
	source string
	stream io.ReadCloser
	ch     *Channel
	logger *slog.Logger
	done   chan struct{}

	// Stats (atomic for thread-safety)
	bytesRead atomic.Int64
	linesRead atomic.Int64
}

// NewReader creates a reader for one stream. source tags every line,
// e.g. "primary/stdout".
func NewReader(source string, stream io.ReadCloser, ch *Channel, logger *slog.Logger) *Reader {
	return &Reader{
		source: source,
		stream: stream,
		ch:     ch,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Run reads lines until EOF, then closes the stream handle and returns.
// MUST run in its own goroutine; Done() is closed on exit.
func (r *Reader) Run() {
	defer close(r.done)
	defer r.stream.Close()

	scanner := bufio.NewScanner(r.stream)

	// Worker output lines can be long; match the pipe buffer headroom.
	const maxLineSize = 64 * 1024
	scanner.Buffer(make([]byte, maxLineSize), 1024*1024)

	for scanner.Scan() {
		raw := scanner.Text()
		r.bytesRead.Add(int64(len(raw) + 1)) // +1 for newline
		r.linesRead.Add(1)

		text := strings.TrimRight(raw, " \t\r\n")
		r.logger.Info("worker_line", "source", r.source, "line", text)
		r.ch.Publish(NewLine(r.source, text))
	}

	// A mid-stream read fault is absorbed as end-of-stream.
	if err := scanner.Err(); err != nil {
		r.logger.Warn("stream_read_error", "source", r.source, "error", err)
	}
}

// Done is closed when the stream has been fully drained.
func (r *Reader) Done() <-chan struct{} {
	return r.done
}

// Stats returns (bytesRead, linesRead).
func (r *Reader) Stats() (bytesRead, linesRead int64) {
	return r.bytesRead.Load(), r.linesRead.Load()
}
