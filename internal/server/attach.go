package server

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/Gbr22/citymux/internal/compositor"
	"github.com/Gbr22/citymux/internal/input"
	"github.com/Gbr22/citymux/internal/logger"
	"github.com/Gbr22/citymux/internal/pty"
	"github.com/Gbr22/citymux/internal/session"
	"github.com/Gbr22/citymux/internal/vt"
)

// connWriter serializes websocket writes; the render goroutine and the
// control path would otherwise interleave frames.
type connWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *connWriter) binary(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.BinaryMessage, b)
}

func (w *connWriter) control(m ServerMessage) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Server) handleAttach(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(s.handleClient)(c)
}

// errorCode maps attach-time failures to wire error codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, session.ErrNoSuchSession), errors.Is(err, session.ErrSessionClosed):
		return ErrCodeNoSuchSession
	case errors.Is(err, session.ErrSessionExists):
		return ErrCodeSessionExists
	case errors.Is(err, session.ErrSessionBusy):
		return ErrCodeSessionBusy
	case errors.Is(err, pty.ErrSpawnFailed):
		return ErrCodeSpawnFailed
	default:
		return ErrCodeBadRequest
	}
}

// handleClient runs one attached client: resolve the session, stream
// rendered frames out, route input bytes in. Client failures detach
// the client and leave the session running.
func (s *Server) handleClient(conn *websocket.Conn) {
	defer conn.Close()
	cw := &connWriter{conn: conn}
	log := logger.WithComponent("attach")

	sess, log, ok := s.attachHandshake(conn, cw, log)
	if !ok {
		return
	}
	defer sess.Detach()

	cfg := s.config()
	bindings, err := input.ParseBindings(cfg.Bindings)
	if err != nil {
		log.Warn().Err(err).Msg("bad key bindings in config, using defaults")
		bindings = nil
	}
	router := input.NewRouter(cfg.PrefixByte(), bindings)
	comp := compositor.New(compositor.Palette{
		Border:       cfg.Palette.Border,
		BorderActive: cfg.Palette.BorderActive,
	})

	done := make(chan struct{})
	defer close(done)
	go s.renderLoop(sess, comp, cw, conn, done, log)

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			// Disconnected client: detach and keep the session alive.
			log.Debug().Err(err).Msg("client connection closed")
			return
		}
		switch mt {
		case websocket.BinaryMessage:
			for _, a := range router.Feed(data) {
				if input.Dispatch(sess, a) {
					log.Info().Msg("client detached")
					return
				}
			}
		case websocket.TextMessage:
			var msg ClientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			switch msg.Type {
			case MsgResize:
				sess.Resize(msg.Rows, msg.Cols)
			case MsgDetach:
				log.Info().Msg("client detached")
				return
			}
		}
	}
}

// attachHandshake reads the attach request and resolves or creates the
// session. All failures are reported to the client before closing.
func (s *Server) attachHandshake(conn *websocket.Conn, cw *connWriter, log zerolog.Logger) (*session.Session, zerolog.Logger, bool) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, log, false
	}
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != MsgAttach || msg.Session == "" {
		_ = cw.control(ServerMessage{Type: MsgError, Error: ErrCodeBadRequest,
			Detail: "first frame must be an attach request"})
		return nil, log, false
	}
	log = log.With().Str("session", msg.Session).Logger()

	cfg := s.config()
	var sess *session.Session
	if msg.Create {
		sess, err = s.registry.Create(msg.Session, session.Options{
			Shell:      cfg.Shell,
			Rows:       msg.Rows,
			Cols:       msg.Cols,
			Scrollback: cfg.Scrollback,
		})
	} else {
		sess, err = s.registry.Get(msg.Session)
	}
	if err != nil {
		log.Warn().Err(err).Msg("attach failed")
		_ = cw.control(ServerMessage{Type: MsgError, Error: errorCode(err), Detail: err.Error()})
		return nil, log, false
	}

	if err := sess.Attach(); err != nil {
		log.Warn().Err(err).Msg("attach refused")
		_ = cw.control(ServerMessage{Type: MsgError, Error: errorCode(err), Detail: err.Error()})
		return nil, log, false
	}

	sess.Resize(msg.Rows, msg.Cols)
	if err := cw.control(ServerMessage{Type: MsgAttached, Session: msg.Session}); err != nil {
		sess.Detach()
		return nil, log, false
	}
	log.Info().Msg("client attached")
	return sess, log, true
}

// renderLoop is the single writer of compositor output for one client:
// a full redraw on attach, then an incremental frame per coalesced
// notification. Switching windows invalidates the canvas and forces a
// full redraw. Closing the connection on session end unblocks the
// client read loop.
func (s *Server) renderLoop(sess *session.Session, comp *compositor.Compositor, cw *connWriter, conn *websocket.Conn, done <-chan struct{}, log zerolog.Logger) {
	lastWin := -1
	lastMouse := vt.MouseOff
	send := func(full bool) error {
		v := sess.View()
		if v.WindowID != lastWin {
			comp.Invalidate()
			full = true
			lastWin = v.WindowID
		}
		frame := comp.Render(v, full)
		if v.Mouse != lastMouse {
			frame = append(frame, mouseModeSeq(lastMouse, v.Mouse)...)
			lastMouse = v.Mouse
		}
		return cw.binary(frame)
	}

	if err := send(true); err != nil {
		return
	}
	for {
		select {
		case <-done:
			return
		case <-sess.Done():
			_ = cw.control(ServerMessage{Type: MsgSessionClosed, Session: sess.Name})
			conn.Close()
			return
		case <-sess.Notify():
			if err := send(false); err != nil {
				log.Debug().Err(err).Msg("frame write failed")
				return
			}
		}
	}
}

// mouseModeSeq switches the client terminal's pointer reporting to
// track the active pane. The client always reports in SGR encoding;
// events are re-encoded per pane on the way back in.
func mouseModeSeq(from, to vt.MouseMode) []byte {
	var b []byte
	if from != vt.MouseOff {
		b = append(b, "\x1b[?1003l\x1b[?1002l\x1b[?1000l\x1b[?1006l"...)
	}
	switch to {
	case vt.MousePress, vt.MousePressRelease:
		b = append(b, "\x1b[?1000h\x1b[?1006h"...)
	case vt.MouseButtonMotion:
		b = append(b, "\x1b[?1002h\x1b[?1006h"...)
	case vt.MouseAnyMotion:
		b = append(b, "\x1b[?1003h\x1b[?1006h"...)
	}
	return b
}
