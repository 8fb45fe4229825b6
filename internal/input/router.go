// Package input routes client keystrokes: a byte-level state machine
// that recognizes the command prefix and maps the following byte to a
// multiplexer command, forwarding everything else verbatim to the
// active pane. A prefix followed by an unbound byte is delivered as
// literal input, prefix included; bindings never eat keystrokes
// silently.
package input

import (
	"fmt"
)

// Command is the closed set of multiplexer commands. Matching is
// exhaustive; adding a command means extending this enumeration.
type Command int

const (
	CmdNone Command = iota
	CmdSplitVertical
	CmdSplitHorizontal
	CmdFocusNext
	CmdFocusPrev
	CmdFocusLeft
	CmdFocusRight
	CmdFocusUp
	CmdFocusDown
	CmdKillPane
	CmdDetach
	CmdNewWindow
	CmdNextWindow
	CmdPrevWindow
	CmdSelectWindow
)

var commandNames = map[string]Command{
	"split-vertical":   CmdSplitVertical,
	"split-horizontal": CmdSplitHorizontal,
	"focus-next":       CmdFocusNext,
	"focus-prev":       CmdFocusPrev,
	"focus-left":       CmdFocusLeft,
	"focus-right":      CmdFocusRight,
	"focus-up":         CmdFocusUp,
	"focus-down":       CmdFocusDown,
	"kill-pane":        CmdKillPane,
	"detach":           CmdDetach,
	"new-window":       CmdNewWindow,
	"next-window":      CmdNextWindow,
	"prev-window":      CmdPrevWindow,
}

// Action is one routed unit: a command (with an optional argument,
// e.g. a window index), a decoded mouse event, or literal bytes for
// the active pane.
type Action struct {
	Cmd     Command
	Arg     int
	Mouse   *MouseEvent
	Literal []byte
}

// DefaultBindings is the built-in post-prefix key table.
func DefaultBindings() map[byte]Command {
	return map[byte]Command{
		'%': CmdSplitVertical,
		'"': CmdSplitHorizontal,
		'o': CmdFocusNext,
		';': CmdFocusPrev,
		'h': CmdFocusLeft,
		'l': CmdFocusRight,
		'k': CmdFocusUp,
		'j': CmdFocusDown,
		'x': CmdKillPane,
		'd': CmdDetach,
		'c': CmdNewWindow,
		'n': CmdNextWindow,
		'p': CmdPrevWindow,
	}
}

// ParseBindings converts a config binding table (single-character key
// to command name) into a byte table layered over the defaults.
func ParseBindings(overrides map[string]string) (map[byte]Command, error) {
	table := DefaultBindings()
	for key, name := range overrides {
		if len(key) != 1 {
			return nil, fmt.Errorf("binding key %q must be a single character", key)
		}
		cmd, ok := commandNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown command %q for key %q", name, key)
		}
		table[key[0]] = cmd
	}
	return table, nil
}

// Router is the prefix state machine. Not safe for concurrent use;
// each client connection owns one.
type Router struct {
	prefix   byte
	bindings map[byte]Command
	inPrefix bool
}

// NewRouter creates a router for the given prefix byte and binding
// table. A nil table uses the defaults.
func NewRouter(prefix byte, bindings map[byte]Command) *Router {
	if bindings == nil {
		bindings = DefaultBindings()
	}
	return &Router{prefix: prefix, bindings: bindings}
}

// Feed consumes input bytes and returns the routed actions in order.
// Consecutive literal bytes coalesce into one action.
func (r *Router) Feed(data []byte) []Action {
	var actions []Action
	var lit []byte
	flush := func() {
		if len(lit) > 0 {
			actions = append(actions, Action{Literal: lit})
			lit = nil
		}
	}

	for i := 0; i < len(data); i++ {
		b := data[i]
		if !r.inPrefix {
			if b == r.prefix {
				r.inPrefix = true
				continue
			}
			if b == 0x1b {
				// Pointer reports arrive inline with keystrokes. A
				// report truncated by the read boundary falls through
				// as literal bytes.
				if ev, n, ok := parseSGRMouse(data[i:]); ok {
					flush()
					actions = append(actions, Action{Mouse: &ev})
					i += n - 1
					continue
				}
			}
			lit = append(lit, b)
			continue
		}

		r.inPrefix = false
		switch {
		case b == r.prefix:
			// Prefix twice sends the prefix byte itself.
			lit = append(lit, b)
		case r.bindings[b] != CmdNone:
			// Explicit bindings win, even on digit keys.
			flush()
			actions = append(actions, Action{Cmd: r.bindings[b]})
		case b >= '0' && b <= '9':
			flush()
			actions = append(actions, Action{Cmd: CmdSelectWindow, Arg: int(b - '0')})
		default:
			// Unbound key after the prefix: deliver both bytes,
			// never drop input.
			lit = append(lit, r.prefix, b)
		}
	}
	flush()
	return actions
}

// Pending reports whether the router is waiting for a post-prefix
// byte, for diagnostics and tests.
func (r *Router) Pending() bool { return r.inPrefix }
