//go:build !windows

package pty

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
)

type unixPty struct {
	ptmx *os.File
	cmd  *exec.Cmd

	mu     sync.Mutex
	rows   int
	cols   int
	closed bool

	done     chan struct{}
	exitCode int
	exited   bool
}

func spawn(opts Options) (Pty, error) {
	cmd := exec.Command(opts.Command[0], opts.Command[1:]...)
	cmd.Dir = opts.Dir
	if opts.Env != nil {
		cmd.Env = opts.Env
	}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(opts.Rows),
		Cols: uint16(opts.Cols),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}

	p := &unixPty{
		ptmx: ptmx,
		cmd:  cmd,
		rows: opts.Rows,
		cols: opts.Cols,
		done: make(chan struct{}),
	}
	go p.reap()
	return p, nil
}

// reap waits for the child so its status is available to ExitCode and
// the zombie is collected even when nobody calls Kill.
func (p *unixPty) reap() {
	err := p.cmd.Wait()

	p.mu.Lock()
	p.exited = true
	if err == nil {
		p.exitCode = 0
	} else if ee, ok := err.(*exec.ExitError); ok {
		p.exitCode = ee.ExitCode()
	} else {
		p.exitCode = -1
	}
	p.mu.Unlock()
	close(p.done)
}

func (p *unixPty) Read(b []byte) (int, error) {
	return p.ptmx.Read(b)
}

func (p *unixPty) Write(b []byte) (int, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return 0, ErrClosed
	}
	return p.ptmx.Write(b)
}

func (p *unixPty) Resize(rows, cols int) error {
	if rows < 1 || cols < 1 {
		return fmt.Errorf("%w: invalid size %dx%d", ErrResizeFailed, rows, cols)
	}
	if err := pty.Setsize(p.ptmx, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrResizeFailed, err)
	}
	p.mu.Lock()
	p.rows, p.cols = rows, cols
	p.mu.Unlock()
	return nil
}

func (p *unixPty) Size() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rows, p.cols
}

func (p *unixPty) ExitCode() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode, p.exited
}

// Kill asks the child to terminate and escalates to SIGKILL if it is
// still running after the grace period.
func (p *unixPty) Kill() error {
	p.mu.Lock()
	exited := p.exited
	p.mu.Unlock()
	if exited {
		return nil
	}

	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return err
	}
	select {
	case <-p.done:
		return nil
	case <-time.After(killGrace):
	}
	if err := p.cmd.Process.Kill(); err != nil {
		return err
	}
	<-p.done
	return nil
}

func (p *unixPty) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	return p.ptmx.Close()
}
