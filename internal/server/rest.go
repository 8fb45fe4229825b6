package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Gbr22/citymux/internal/session"
)

func (s *Server) handleList(c *fiber.Ctx) error {
	sessions := s.registry.List()
	out := make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, SessionInfo{
			Name:     sess.Name,
			ID:       sess.ID,
			Created:  sess.CreatedAt,
			Windows:  sess.Windows(),
			Panes:    sess.Panes(),
			Attached: sess.Attached(),
		})
	}
	return c.JSON(out)
}

// handleCreate makes a detached session, for "citymux new -d".
func (s *Server) handleCreate(c *fiber.Ctx) error {
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ServerMessage{
			Type: MsgError, Error: ErrCodeBadRequest, Detail: "session name required",
		})
	}
	cfg := s.config()
	sess, err := s.registry.Create(req.Name, session.Options{
		Shell:      cfg.Shell,
		Rows:       req.Rows,
		Cols:       req.Cols,
		Scrollback: cfg.Scrollback,
	})
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, session.ErrSessionExists) {
			status = fiber.StatusConflict
		}
		return c.Status(status).JSON(ServerMessage{
			Type: MsgError, Error: errorCode(err), Detail: err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(SessionInfo{
		Name:    sess.Name,
		ID:      sess.ID,
		Created: sess.CreatedAt,
		Windows: sess.Windows(),
		Panes:   sess.Panes(),
	})
}

func (s *Server) handleKill(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := s.registry.Kill(name); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ServerMessage{
			Type: MsgError, Error: errorCode(err), Detail: err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
