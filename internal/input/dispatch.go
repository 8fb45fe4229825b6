package input

import (
	"github.com/Gbr22/citymux/internal/layout"
	"github.com/Gbr22/citymux/internal/session"
)

// Dispatch applies a routed action to a session. It reports whether
// the client asked to detach. Command failures (a refused split, an
// out-of-range window) are absorbed here; they must never take down
// the connection.
func Dispatch(s *session.Session, a Action) (detach bool) {
	if a.Cmd == CmdNone {
		if a.Mouse != nil {
			s.RouteMouse(session.MouseEvent{
				Button:  a.Mouse.Button,
				Col:     a.Mouse.Col,
				Row:     a.Mouse.Row,
				Press:   a.Mouse.Press,
				Release: a.Mouse.Release,
				Motion:  a.Mouse.Motion,
			})
		}
		if len(a.Literal) > 0 {
			s.WriteActive(a.Literal)
		}
		return false
	}

	switch a.Cmd {
	case CmdSplitVertical:
		_ = s.SplitActive(layout.Vertical, 0.5)
	case CmdSplitHorizontal:
		_ = s.SplitActive(layout.Horizontal, 0.5)
	case CmdFocusNext:
		s.FocusNext()
	case CmdFocusPrev:
		s.FocusPrev()
	case CmdFocusLeft:
		s.FocusDirection(-1, 0)
	case CmdFocusRight:
		s.FocusDirection(1, 0)
	case CmdFocusUp:
		s.FocusDirection(0, -1)
	case CmdFocusDown:
		s.FocusDirection(0, 1)
	case CmdKillPane:
		s.KillActivePane()
	case CmdDetach:
		return true
	case CmdNewWindow:
		_ = s.NewWindow()
	case CmdNextWindow:
		s.NextWindow()
	case CmdPrevWindow:
		s.PrevWindow()
	case CmdSelectWindow:
		_ = s.SelectWindow(a.Arg)
	}
	return false
}
