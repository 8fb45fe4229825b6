// Package client is the attach side: it dials the server endpoint,
// performs the attach handshake, and shuttles raw bytes between the
// local terminal and the session.
package client

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Gbr22/citymux/internal/server"
)

// AttachError is a server-reported attach failure.
type AttachError struct {
	Code   string
	Detail string
}

func (e *AttachError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Detail)
	}
	return e.Code
}

// Conn is one attach connection.
type Conn struct {
	ws *websocket.Conn
}

// Dial connects to the server endpoint. The websocket handshake runs
// over whatever transport the endpoint uses, unix socket included.
func Dial(network, addr string) (*Conn, error) {
	dialer := websocket.Dialer{
		NetDial: func(_, _ string) (net.Conn, error) {
			return net.DialTimeout(network, addr, 5*time.Second)
		},
		HandshakeTimeout: 5 * time.Second,
	}
	// The host part is a placeholder; routing happens on the path.
	ws, _, err := dialer.Dial("ws://citymux/v1/attach", nil)
	if err != nil {
		return nil, fmt.Errorf("dial server: %w", err)
	}
	return &Conn{ws: ws}, nil
}

// Attach requests the named session and waits for the server verdict.
func (c *Conn) Attach(name string, create bool, rows, cols int) error {
	req := server.ClientMessage{
		Type:    server.MsgAttach,
		Session: name,
		Create:  create,
		Rows:    rows,
		Cols:    cols,
	}
	if err := c.writeJSON(req); err != nil {
		return err
	}
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			return fmt.Errorf("attach: %w", err)
		}
		if mt != websocket.TextMessage {
			continue
		}
		var msg server.ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case server.MsgAttached:
			return nil
		case server.MsgError:
			return &AttachError{Code: msg.Error, Detail: msg.Detail}
		}
	}
}

// Event is one server frame: terminal output bytes, or session end.
type Event struct {
	Output []byte
	Closed bool
}

// Next blocks for the next server frame.
func (c *Conn) Next() (Event, error) {
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			return Event{}, err
		}
		switch mt {
		case websocket.BinaryMessage:
			return Event{Output: data}, nil
		case websocket.TextMessage:
			var msg server.ServerMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			if msg.Type == server.MsgSessionClosed {
				return Event{Closed: true}, nil
			}
		}
	}
}

// Send forwards raw input bytes to the session.
func (c *Conn) Send(b []byte) error {
	return c.ws.WriteMessage(websocket.BinaryMessage, b)
}

// Resize reports a new client terminal size.
func (c *Conn) Resize(rows, cols int) error {
	return c.writeJSON(server.ClientMessage{Type: server.MsgResize, Rows: rows, Cols: cols})
}

// Detach asks the server to release the session.
func (c *Conn) Detach() error {
	return c.writeJSON(server.ClientMessage{Type: server.MsgDetach})
}

// Close tears the connection down.
func (c *Conn) Close() error {
	return c.ws.Close()
}

func (c *Conn) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// httpClient returns an HTTP client routed to the server endpoint,
// for the session API.
func httpClient(network, addr string) *http.Client {
	return &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			Dial: func(_, _ string) (net.Conn, error) {
				return net.DialTimeout(network, addr, 5*time.Second)
			},
		},
	}
}
