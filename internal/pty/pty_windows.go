//go:build windows

package pty

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/x/conpty"
	"golang.org/x/sys/windows"
)

type winPty struct {
	cpty *conpty.ConPty
	proc windows.Handle

	mu     sync.Mutex
	rows   int
	cols   int
	closed bool

	done     chan struct{}
	exitCode int
	exited   bool
}

func spawn(opts Options) (Pty, error) {
	cpty, err := conpty.New(opts.Cols, opts.Rows, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}

	env := opts.Env
	if env == nil {
		env = os.Environ()
	}
	_, handle, err := cpty.Spawn(opts.Command[0], opts.Command, &syscall.ProcAttr{
		Dir: opts.Dir,
		Env: env,
	})
	if err != nil {
		_ = cpty.Close()
		return nil, fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}

	p := &winPty{
		cpty: cpty,
		proc: windows.Handle(handle),
		rows: opts.Rows,
		cols: opts.Cols,
		done: make(chan struct{}),
	}
	go p.reap()
	return p, nil
}

func (p *winPty) reap() {
	_, _ = windows.WaitForSingleObject(p.proc, windows.INFINITE)
	var code uint32
	if err := windows.GetExitCodeProcess(p.proc, &code); err != nil {
		code = ^uint32(0)
	}

	p.mu.Lock()
	p.exited = true
	p.exitCode = int(int32(code))
	p.mu.Unlock()
	close(p.done)
}

func (p *winPty) Read(b []byte) (int, error) {
	return p.cpty.Read(b)
}

func (p *winPty) Write(b []byte) (int, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return 0, ErrClosed
	}
	return p.cpty.Write(b)
}

func (p *winPty) Resize(rows, cols int) error {
	if rows < 1 || cols < 1 {
		return fmt.Errorf("%w: invalid size %dx%d", ErrResizeFailed, rows, cols)
	}
	if err := p.cpty.Resize(cols, rows); err != nil {
		return fmt.Errorf("%w: %v", ErrResizeFailed, err)
	}
	p.mu.Lock()
	p.rows, p.cols = rows, cols
	p.mu.Unlock()
	return nil
}

func (p *winPty) Size() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rows, p.cols
}

func (p *winPty) ExitCode() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode, p.exited
}

// Kill terminates the child. ConPTY has no graceful signal, so the
// grace period only matters when the child is already on its way out.
func (p *winPty) Kill() error {
	p.mu.Lock()
	exited := p.exited
	p.mu.Unlock()
	if exited {
		return nil
	}

	select {
	case <-p.done:
		return nil
	case <-time.After(10 * time.Millisecond):
	}
	if err := windows.TerminateProcess(p.proc, 1); err != nil {
		return err
	}
	<-p.done
	return nil
}

func (p *winPty) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	_ = windows.CloseHandle(p.proc)
	return p.cpty.Close()
}
