// Package server exposes sessions over a local endpoint: a fiber app
// accepting websocket attach connections plus a small JSON API for
// listing, creating and killing sessions. Control messages travel as
// text frames, terminal bytes as binary frames.
package server

import "time"

// Error codes reported in ServerMessage.Error.
const (
	ErrCodeNoSuchSession = "no-such-session"
	ErrCodeSessionExists = "session-exists"
	ErrCodeSessionBusy   = "session-busy"
	ErrCodeSpawnFailed   = "spawn-failed"
	ErrCodeBadRequest    = "bad-request"
)

// Client message types.
const (
	MsgAttach = "attach"
	MsgResize = "resize"
	MsgDetach = "detach"
)

// Server message types.
const (
	MsgAttached      = "attached"
	MsgError         = "error"
	MsgSessionClosed = "session-closed"
)

// ClientMessage is a control frame from client to server. Raw input
// bytes travel separately as binary frames.
type ClientMessage struct {
	Type string `json:"type"`
	// Session names the target for attach.
	Session string `json:"session,omitempty"`
	// Create requests a new session instead of attaching to an
	// existing one.
	Create bool `json:"create,omitempty"`
	// Rows and Cols carry the client terminal size on attach and
	// resize.
	Rows int `json:"rows,omitempty"`
	Cols int `json:"cols,omitempty"`
}

// ServerMessage is a control frame from server to client. Compositor
// output travels separately as binary frames.
type ServerMessage struct {
	Type    string `json:"type"`
	Session string `json:"session,omitempty"`
	Error   string `json:"error,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// SessionInfo describes one session in list responses.
type SessionInfo struct {
	Name     string    `json:"name"`
	ID       string    `json:"id"`
	Created  time.Time `json:"created"`
	Windows  int       `json:"windows"`
	Panes    int       `json:"panes"`
	Attached bool      `json:"attached"`
}

// CreateRequest is the body of POST /v1/sessions.
type CreateRequest struct {
	Name string `json:"name"`
	Rows int    `json:"rows,omitempty"`
	Cols int    `json:"cols,omitempty"`
}
