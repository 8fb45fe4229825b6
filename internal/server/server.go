package server

import (
	"net"
	"os"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/Gbr22/citymux/internal/config"
	"github.com/Gbr22/citymux/internal/logger"
	"github.com/Gbr22/citymux/internal/session"
)

// Server is one multiplexer server instance: the session registry plus
// the fiber app serving the attach endpoint and the session API.
type Server struct {
	registry *session.Registry
	persist  bool

	mu  sync.Mutex
	cfg *config.Config

	app      *fiber.App
	shutdown chan struct{}
	once     sync.Once

	log zerolog.Logger
}

// New creates a server. Unless persist is set, the server shuts down
// when its last session closes.
func New(cfg *config.Config, persist bool) *Server {
	s := &Server{
		persist:  persist,
		cfg:      cfg,
		shutdown: make(chan struct{}),
		log:      logger.WithComponent("server"),
	}
	s.registry = session.NewRegistry(func() {
		if !s.persist {
			s.log.Info().Msg("last session closed, shutting down")
			s.Shutdown()
		}
	})
	return s
}

// Registry exposes the session registry, mainly for tests.
func (s *Server) Registry() *session.Registry { return s.registry }

// SetConfig swaps the configuration. New attach connections pick up
// the new prefix, bindings and palette; existing ones keep theirs.
func (s *Server) SetConfig(cfg *config.Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *Server) config() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Run listens on the configured endpoint and serves until Shutdown.
// Children of live sessions are terminated on the way out.
func (s *Server) Run() error {
	network, addr := s.config().Endpoint()
	if network == "unix" {
		// A stale socket from a dead server would block the listen.
		_ = os.Remove(addr)
	}
	ln, err := net.Listen(network, addr)
	if err != nil {
		return err
	}

	app := s.newApp()
	s.app = app

	go func() {
		<-s.shutdown
		s.registry.CloseAll()
		_ = app.Shutdown()
	}()

	s.log.Info().Str("network", network).Str("addr", addr).Msg("listening")
	err = app.Listener(ln)
	if network == "unix" {
		_ = os.Remove(addr)
	}
	return err
}

func (s *Server) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "citymux",
		DisableStartupMessage: true,
	})
	v1 := app.Group("/v1")
	v1.Get("/attach", s.handleAttach)
	v1.Get("/sessions", s.handleList)
	v1.Post("/sessions", s.handleCreate)
	v1.Delete("/sessions/:name", s.handleKill)
	v1.Post("/shutdown", s.handleShutdown)
	return app
}

// Shutdown stops the server. Safe to call more than once.
func (s *Server) Shutdown() {
	s.once.Do(func() { close(s.shutdown) })
}

func (s *Server) handleShutdown(c *fiber.Ctx) error {
	s.log.Info().Msg("shutdown requested")
	go s.Shutdown()
	return c.SendStatus(fiber.StatusNoContent)
}
