package session

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Gbr22/citymux/internal/layout"
	"github.com/Gbr22/citymux/internal/logger"
	"github.com/Gbr22/citymux/internal/pty"
	"github.com/Gbr22/citymux/internal/vt"
)

var (
	ErrNoSuchSession = errors.New("no such session")
	ErrSessionExists = errors.New("session already exists")
	ErrSessionBusy   = errors.New("session already attached")
	ErrSessionClosed = errors.New("session closed")
	ErrNoSuchWindow  = errors.New("no such window")
)

// Options configures a new session.
type Options struct {
	// Shell is the program launched in new panes.
	Shell string
	// Dir is the working directory for new panes; empty inherits.
	Dir string
	// Rows and Cols are the initial client viewport size.
	Rows, Cols int
	// Scrollback is the per-pane history depth.
	Scrollback int
}

// Session is a named collection of windows. It persists independent
// of client attachment; the child processes keep running while no
// client is watching.
type Session struct {
	Name      string
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	opts       Options
	panes      map[int]*Pane
	nextPaneID int
	windows    []*Window
	nextWinID  int
	activeWin  int
	attached   bool
	closed     bool

	// notify is the coalescing redraw signal: capacity one, a send
	// while full is dropped because a redraw is already pending.
	notify  chan struct{}
	done    chan struct{}
	onClose func(*Session)

	log zerolog.Logger
}

// New creates a session with one window holding one pane running the
// configured shell. Spawn failures are returned synchronously and
// leave no session behind.
func New(name string, opts Options, onClose func(*Session)) (*Session, error) {
	if opts.Rows < 1 {
		opts.Rows = 24
	}
	if opts.Cols < 1 {
		opts.Cols = 80
	}
	s := &Session{
		Name:      name,
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		opts:      opts,
		panes:     make(map[int]*Pane),
		notify:    make(chan struct{}, 1),
		done:      make(chan struct{}),
		onClose:   onClose,
		log:       logger.WithComponent("session").With().Str("session", name).Logger(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	pane, err := s.spawnPane(opts.Rows, opts.Cols)
	if err != nil {
		return nil, err
	}
	s.windows = append(s.windows, newWindow(s.nextWinID, pane.ID))
	s.nextWinID++
	s.applyLayout()
	s.log.Info().Str("id", s.ID).Msg("session created")
	return s, nil
}

// childEnv is the environment for spawned panes. TERM identifies the
// emulator's repertoire to child programs.
func (s *Session) childEnv() []string {
	env := os.Environ()
	out := env[:0:0]
	for _, kv := range env {
		if strings.HasPrefix(kv, "TERM=") {
			continue
		}
		out = append(out, kv)
	}
	return append(out, "TERM=xterm-citymux", "CITYMUX_SESSION="+s.Name)
}

// spawnPane launches a child and starts its read pump. Caller holds
// the lock.
func (s *Session) spawnPane(rows, cols int) (*Pane, error) {
	pt, err := pty.Spawn(pty.Options{
		Command: []string{s.opts.Shell},
		Env:     s.childEnv(),
		Dir:     s.opts.Dir,
		Rows:    rows,
		Cols:    cols,
	})
	if err != nil {
		return nil, fmt.Errorf("spawn pane: %w", err)
	}
	pane := newPane(s.nextPaneID, pt, rows, cols, s.opts.Scrollback)
	s.nextPaneID++
	s.panes[pane.ID] = pane
	go pane.readLoop(s.signal, s.handlePaneExit)
	return pane, nil
}

// signal requests a redraw. Non-blocking; redundant signals coalesce.
func (s *Session) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Notify is the coalesced redraw channel consumed by the render loop.
func (s *Session) Notify() <-chan struct{} { return s.notify }

// Done is closed when the session's last window closes.
func (s *Session) Done() <-chan struct{} { return s.done }

// Attach claims the session for a client. One client at a time.
func (s *Session) Attach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.attached {
		return ErrSessionBusy
	}
	s.attached = true
	return nil
}

// Detach releases the session. Panes keep running; detach never waits
// on pane I/O.
func (s *Session) Detach() {
	s.mu.Lock()
	s.attached = false
	s.mu.Unlock()
}

// Attached reports whether a client currently holds the session.
func (s *Session) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

// Resize sets the client viewport and lays every window's panes out
// to the new size. Applied atomically with respect to rendering.
func (s *Session) Resize(rows, cols int) {
	s.mu.Lock()
	if rows >= 1 && cols >= 1 && (rows != s.opts.Rows || cols != s.opts.Cols) {
		s.opts.Rows, s.opts.Cols = rows, cols
		s.applyLayout()
	}
	s.mu.Unlock()
	s.signal()
}

// applyLayout resolves the active window's tree and resizes its panes
// to their assigned rectangles. Caller holds the lock.
func (s *Session) applyLayout() {
	w := s.activeWindow()
	if w == nil {
		return
	}
	res := w.tree.Resolve(layout.Rect{X: 0, Y: 0, W: s.opts.Cols, H: s.opts.Rows})
	for id, r := range res.Panes {
		if p, ok := s.panes[id]; ok {
			p.Resize(r.H, r.W)
		}
	}
}

func (s *Session) activeWindow() *Window {
	if len(s.windows) == 0 {
		return nil
	}
	if s.activeWin >= len(s.windows) {
		s.activeWin = len(s.windows) - 1
	}
	return s.windows[s.activeWin]
}

// WriteActive forwards input bytes to the active pane's child.
func (s *Session) WriteActive(b []byte) {
	s.mu.Lock()
	var pane *Pane
	if w := s.activeWindow(); w != nil {
		pane = s.panes[w.ActivePane()]
	}
	s.mu.Unlock()
	if pane == nil {
		return
	}
	if err := pane.Write(b); err != nil {
		s.log.Debug().Err(err).Int("pane", pane.ID).Msg("input write failed")
	}
}

// SplitActive replaces the active pane's leaf with a split holding
// the existing pane and a freshly spawned one. On spawn failure the
// tree is left untouched.
func (s *Session) SplitActive(dir layout.Direction, ratio float64) error {
	s.mu.Lock()
	defer func() {
		s.mu.Unlock()
		s.signal()
	}()
	if s.closed {
		return ErrSessionClosed
	}
	w := s.activeWindow()
	if w == nil {
		return ErrSessionClosed
	}
	pane, err := s.spawnPane(s.opts.Rows, s.opts.Cols)
	if err != nil {
		return err
	}
	if err := w.split(dir, ratio, pane.ID); err != nil {
		delete(s.panes, pane.ID)
		pane.Kill()
		pane.close()
		return err
	}
	s.applyLayout()
	return nil
}

// NewWindow appends a window with a single fresh pane and focuses it.
func (s *Session) NewWindow() error {
	s.mu.Lock()
	defer func() {
		s.mu.Unlock()
		s.signal()
	}()
	if s.closed {
		return ErrSessionClosed
	}
	pane, err := s.spawnPane(s.opts.Rows, s.opts.Cols)
	if err != nil {
		return err
	}
	s.windows = append(s.windows, newWindow(s.nextWinID, pane.ID))
	s.nextWinID++
	s.activeWin = len(s.windows) - 1
	s.applyLayout()
	return nil
}

// NextWindow cycles the active window forward.
func (s *Session) NextWindow() {
	s.mu.Lock()
	if len(s.windows) > 0 {
		s.activeWin = (s.activeWin + 1) % len(s.windows)
		s.applyLayout()
	}
	s.mu.Unlock()
	s.signal()
}

// PrevWindow cycles the active window backward.
func (s *Session) PrevWindow() {
	s.mu.Lock()
	if len(s.windows) > 0 {
		s.activeWin = (s.activeWin - 1 + len(s.windows)) % len(s.windows)
		s.applyLayout()
	}
	s.mu.Unlock()
	s.signal()
}

// SelectWindow focuses the window at the given position.
func (s *Session) SelectWindow(i int) error {
	s.mu.Lock()
	defer func() {
		s.mu.Unlock()
		s.signal()
	}()
	if i < 0 || i >= len(s.windows) {
		return ErrNoSuchWindow
	}
	s.activeWin = i
	s.applyLayout()
	return nil
}

// FocusNext moves focus to the next pane in tree order.
func (s *Session) FocusNext() {
	s.mu.Lock()
	if w := s.activeWindow(); w != nil {
		w.focusNext()
	}
	s.mu.Unlock()
	s.signal()
}

// FocusPrev moves focus to the previous pane in tree order.
func (s *Session) FocusPrev() {
	s.mu.Lock()
	if w := s.activeWindow(); w != nil {
		w.focusPrev()
	}
	s.mu.Unlock()
	s.signal()
}

// FocusDirection moves focus to the pane adjacent in the given
// direction, probing the resolved geometry.
func (s *Session) FocusDirection(dx, dy int) {
	s.mu.Lock()
	if w := s.activeWindow(); w != nil {
		w.focusDirection(dx, dy, layout.Rect{X: 0, Y: 0, W: s.opts.Cols, H: s.opts.Rows})
	}
	s.mu.Unlock()
	s.signal()
}

// KillActivePane signals the active pane's child. Structural teardown
// happens when the read loop observes the exit, so the kill itself
// never blocks the input path.
func (s *Session) KillActivePane() {
	s.mu.Lock()
	var pane *Pane
	if w := s.activeWindow(); w != nil {
		pane = s.panes[w.ActivePane()]
	}
	s.mu.Unlock()
	if pane != nil {
		go pane.Kill()
	}
}

// handlePaneExit removes a dead pane from the arena and every window,
// collapsing emptied windows. Closing the last window closes the
// session.
func (s *Session) handlePaneExit(p *Pane) {
	s.mu.Lock()
	if _, ok := s.panes[p.ID]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.panes, p.ID)
	p.close()

	for i, w := range s.windows {
		if !w.contains(p.ID) {
			continue
		}
		if w.removePane(p.ID) {
			s.windows = append(s.windows[:i], s.windows[i+1:]...)
			if s.activeWin >= i && s.activeWin > 0 {
				s.activeWin--
			}
		}
		break
	}

	if len(s.windows) == 0 {
		s.closeLocked()
		s.mu.Unlock()
		if s.onClose != nil {
			s.onClose(s)
		}
		return
	}
	s.applyLayout()
	s.mu.Unlock()
	s.signal()
}

// closeLocked marks the session dead and wakes waiters. Caller holds
// the lock.
func (s *Session) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	s.log.Info().Msg("session closed")
}

// Close kills every pane's child and tears the session down without
// waiting for the children to exit.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	panes := make([]*Pane, 0, len(s.panes))
	for _, p := range s.panes {
		panes = append(panes, p)
	}
	s.panes = make(map[int]*Pane)
	s.windows = nil
	s.closeLocked()
	s.mu.Unlock()

	for _, p := range panes {
		go func(p *Pane) {
			p.Kill()
			p.close()
		}(p)
	}
	if s.onClose != nil {
		s.onClose(s)
	}
}

// PaneView is one pane's contribution to a rendered frame.
type PaneView struct {
	ID     int
	Rect   layout.Rect
	Snap   *vt.Snapshot
	Title  string
	Active bool
}

// View is a consistent picture of the active window taken under the
// session lock: resolved geometry plus per-pane snapshots. Snapshots
// reset each pane's dirty hint, so each View sees exactly the damage
// since the previous one.
type View struct {
	Rows, Cols int
	WindowID   int
	Windows    int
	Panes      []PaneView
	Separators []layout.Separator
	// Mouse is the active pane's pointer-reporting mode, mirrored to
	// the client terminal so it only sends events someone wants.
	Mouse vt.MouseMode
}

// View captures the active window for the compositor.
func (s *Session) View() *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := &View{Rows: s.opts.Rows, Cols: s.opts.Cols, Windows: len(s.windows)}
	w := s.activeWindow()
	if w == nil {
		return v
	}
	v.WindowID = w.ID
	res := w.tree.Resolve(layout.Rect{X: 0, Y: 0, W: s.opts.Cols, H: s.opts.Rows})
	v.Separators = res.Separators
	for _, id := range w.tree.Leaves() {
		p, ok := s.panes[id]
		if !ok {
			continue
		}
		r, ok := res.Panes[id]
		if !ok {
			continue
		}
		active := id == w.ActivePane()
		if active {
			v.Mouse, _ = p.Term.Mouse()
		}
		v.Panes = append(v.Panes, PaneView{
			ID:     id,
			Rect:   r,
			Snap:   p.Term.Snapshot(),
			Title:  p.Term.Title(),
			Active: active,
		})
	}
	return v
}

// Panes reports how many live panes the session holds.
func (s *Session) Panes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.panes)
}

// Windows reports how many windows the session holds.
func (s *Session) Windows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// ActivePaneID resolves the focused pane, for tests and diagnostics.
func (s *Session) ActivePaneID() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.activeWindow()
	if w == nil {
		return 0, false
	}
	if _, ok := s.panes[w.ActivePane()]; !ok {
		return 0, false
	}
	return w.ActivePane(), true
}
