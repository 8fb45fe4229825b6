// Package pty abstracts the OS pseudo-terminal: a child process wired
// to a console-like device whose other end we read, write and resize.
// Windows uses ConPTY; everything else goes through the classic Unix
// pty device.
package pty

import (
	"errors"
	"time"
)

var (
	// ErrSpawnFailed wraps any OS refusal to allocate a pty or launch
	// the child process.
	ErrSpawnFailed = errors.New("pty: spawn failed")
	// ErrResizeFailed wraps a failed window-size change. The pane keeps
	// its previous size.
	ErrResizeFailed = errors.New("pty: resize failed")
	// ErrClosed is returned by writes after the pty has been released.
	ErrClosed = errors.New("pty: closed")
)

// killGrace is how long Kill waits for the child to exit before
// escalating to forced termination.
const killGrace = 3 * time.Second

// Pty is one pseudo-console resource plus its attached child process.
//
// Read streams child output; it returns io.EOF (or a platform read
// error treated as EOF by callers) once the child is gone, and is not
// restartable. Resize propagates a window-size change notification to
// the child. ExitCode reports the child's status once reaped.
type Pty interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Resize(rows, cols int) error
	Size() (rows, cols int)
	ExitCode() (code int, exited bool)
	Kill() error
	Close() error
}

// Options configures Spawn.
type Options struct {
	// Command is the argv to launch; Command[0] is resolved via PATH.
	Command []string
	// Env is the full child environment; nil inherits the server's.
	Env []string
	// Dir is the child working directory; empty inherits.
	Dir string
	// Rows and Cols are the initial terminal dimensions.
	Rows, Cols int
}

func (o *Options) normalize() {
	if o.Rows < 1 {
		o.Rows = 24
	}
	if o.Cols < 1 {
		o.Cols = 80
	}
}

// Spawn launches a child attached to a fresh pseudo-console.
// Failures are synchronous and wrap ErrSpawnFailed.
func Spawn(opts Options) (Pty, error) {
	opts.normalize()
	return spawn(opts)
}
