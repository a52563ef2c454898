package logging

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewRotatingSink returns an append-only, size-rotated writer for the
// persistent line log. One line is written per record; rotation keeps the
// sink from growing without bound across long supervisor runs.
func NewRotatingSink(path string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
}
