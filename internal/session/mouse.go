package session

import (
	"fmt"

	"github.com/Gbr22/citymux/internal/layout"
	"github.com/Gbr22/citymux/internal/vt"
)

// MouseEvent is one pointer event in 0-based screen coordinates.
type MouseEvent struct {
	Button   int
	Col, Row int
	Press    bool
	Release  bool
	Motion   bool
}

// RouteMouse delivers a pointer event to the pane under it. A press
// focuses that pane regardless of its reporting mode; the event itself
// is forwarded only when the pane asked for events of that kind,
// re-encoded the way the pane asked for with pane-relative coordinates.
func (s *Session) RouteMouse(ev MouseEvent) {
	s.mu.Lock()
	w := s.activeWindow()
	if w == nil {
		s.mu.Unlock()
		return
	}
	res := w.tree.Resolve(layout.Rect{X: 0, Y: 0, W: s.opts.Cols, H: s.opts.Rows})
	var pane *Pane
	var rect layout.Rect
	for id, r := range res.Panes {
		if r.Contains(ev.Col, ev.Row) {
			pane, rect = s.panes[id], r
			break
		}
	}
	if pane == nil {
		s.mu.Unlock()
		return
	}
	focusChanged := false
	if ev.Press && w.active != pane.ID {
		w.active = pane.ID
		focusChanged = true
	}
	s.mu.Unlock()
	if focusChanged {
		s.signal()
	}

	mode, enc := pane.Term.Mouse()
	if !mouseReportable(mode, ev) {
		return
	}
	seq := encodeMouse(ev, enc, ev.Col-rect.X, ev.Row-rect.Y)
	if err := pane.Write(seq); err != nil {
		s.log.Debug().Err(err).Int("pane", pane.ID).Msg("mouse write failed")
	}
}

// mouseReportable filters events against the pane's reporting mode.
func mouseReportable(mode vt.MouseMode, ev MouseEvent) bool {
	switch mode {
	case vt.MousePress:
		return ev.Press
	case vt.MousePressRelease:
		return ev.Press || ev.Release
	case vt.MouseButtonMotion, vt.MouseAnyMotion:
		return true
	default:
		return false
	}
}

// encodeMouse renders an event in the pane's requested wire format.
// x and y are 0-based pane-relative cell coordinates.
func encodeMouse(ev MouseEvent, enc vt.MouseEncoding, x, y int) []byte {
	b := ev.Button
	if ev.Motion {
		b |= 32
	}
	switch enc {
	case vt.MouseEncSGR:
		final := byte('M')
		if ev.Release {
			final = 'm'
		}
		return []byte(fmt.Sprintf("\x1b[<%d;%d;%d%c", b, x+1, y+1, final))
	case vt.MouseEncUTF8:
		if ev.Release {
			b = 3
		}
		return []byte("\x1b[M" + string(rune(32+b)) + string(rune(33+x)) + string(rune(33+y)))
	default:
		if ev.Release {
			b = 3
		}
		// The legacy encoding tops out one byte per coordinate.
		if x > 222 {
			x = 222
		}
		if y > 222 {
			y = 222
		}
		return []byte{0x1b, '[', 'M', byte(32 + b), byte(33 + x), byte(33 + y)}
	}
}
