// Package session owns the pane/window/session model: panes wrap a
// PTY plus an emulated screen, windows arrange panes in a split tree,
// sessions hold an ordered list of windows and persist while no
// client is attached. The registry maps session names to sessions.
package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Gbr22/citymux/internal/logger"
	"github.com/Gbr22/citymux/internal/pty"
	"github.com/Gbr22/citymux/internal/vt"
)

// Pane is one terminal: a child process on a PTY feeding an emulated
// screen. A dedicated goroutine pumps PTY output into the emulator so
// a blocked child never stalls other panes.
type Pane struct {
	ID   int
	Term *vt.Terminal

	pt  pty.Pty
	log zerolog.Logger

	mu       sync.Mutex
	dead     bool
	exitCode int
}

func newPane(id int, pt pty.Pty, rows, cols, scrollback int) *Pane {
	term := vt.New(rows, cols)
	term.SetMaxScrollback(scrollback)
	return &Pane{
		ID:   id,
		Term: term,
		pt:   pt,
		log:  logger.WithComponent("pane").With().Int("pane", id).Logger(),
	}
}

// readLoop pumps child output into the emulator until the stream
// ends. A read error after a successful spawn means the child is
// gone; it is not exceptional.
func (p *Pane) readLoop(onOutput func(), onExit func(*Pane)) {
	buf := make([]byte, 4096)
	for {
		n, err := p.pt.Read(buf)
		if n > 0 {
			_, _ = p.Term.Write(buf[:n])
			onOutput()
		}
		if err != nil {
			break
		}
	}

	// EOF can race the reaper; wait briefly for the real status.
	code, exited := p.pt.ExitCode()
	deadline := time.Now().Add(time.Second)
	for !exited && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
		code, exited = p.pt.ExitCode()
	}
	p.mu.Lock()
	p.dead = true
	p.exitCode = code
	p.mu.Unlock()
	if exited {
		p.log.Debug().Int("exit_code", code).Msg("pane child exited")
	} else {
		p.log.Debug().Msg("pane child exited before status was reaped")
	}
	onExit(p)
}

// Write forwards input bytes to the child.
func (p *Pane) Write(b []byte) error {
	p.mu.Lock()
	dead := p.dead
	p.mu.Unlock()
	if dead {
		return pty.ErrClosed
	}
	_, err := p.pt.Write(b)
	return err
}

// Resize changes the pane dimensions. If the PTY refuses the new size
// the emulator keeps its previous dimensions and rendering continues
// with stale geometry.
func (p *Pane) Resize(rows, cols int) {
	if r, c := p.Term.Size(); r == rows && c == cols {
		return
	}
	if err := p.pt.Resize(rows, cols); err != nil {
		p.log.Warn().Err(err).Int("rows", rows).Int("cols", cols).Msg("pty resize failed")
		return
	}
	p.Term.Resize(rows, cols)
}

// Dead reports whether the child has exited.
func (p *Pane) Dead() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dead
}

// ExitCode is valid once Dead reports true.
func (p *Pane) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// Kill signals the child and escalates after a bounded wait. Teardown
// of session state happens on the read loop's exit path.
func (p *Pane) Kill() {
	if err := p.pt.Kill(); err != nil {
		p.log.Warn().Err(err).Msg("pane kill failed")
	}
}

func (p *Pane) close() {
	_ = p.pt.Close()
}
