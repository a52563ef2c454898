// Package process owns spawned worker processes: spawning, stream
// draining, liveness and graceful-then-forced termination.
package process

// Spec describes how to launch one worker. Immutable once a Handle has
// been started from it.
type Spec struct {
	// Name identifies the worker in logs and source tags ("primary",
	// "secondary").
	Name string

	// Path is the executable to run.
	Path string

	// Args are passed verbatim (not including the program name).
	Args []string

	// Dir is the working directory. Empty means inherit.
	Dir string

	// Env entries ("KEY=value") are appended to the inherited
	// environment.
	Env []string

	// HideWindow suppresses the console window the child would otherwise
	// open on Windows. No effect elsewhere.
	HideWindow bool
}
