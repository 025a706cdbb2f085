// Package httpapi exposes the supervisor's status and control plane over
// HTTP, using the same fiber-based stack the rest of this codebase's
// corpus reaches for.
package httpapi

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"

	"chiafan-supervisor/supervisor"
)

// Server wires a fiber app to a Supervisor.
type Server struct {
	app     *fiber.App
	super   *supervisor.Supervisor
	log     *slog.Logger
	limiter *rateLimiter
	hub     *hub
}

// New builds a Server bound to super. Call Listen to start serving.
func New(super *supervisor.Supervisor, log *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": true, "message": err.Error()})
		},
	})

	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		TimeZone: "America/New_York",
		Format:   "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))

	s := &Server{
		app:     app,
		super:   super,
		log:     log,
		limiter: newRateLimiter(),
		hub:     newHub(),
	}

	s.routes()
	go s.hub.broadcastLoop(super)
	return s
}

func (s *Server) routes() {
	s.app.Get("/healthz", s.handleHealthz)
	s.app.Get("/status", s.handleStatus)
	s.app.Post("/status", s.handleStatus)

	s.app.Get("/status/stream", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}, websocket.New(s.hub.serve))

	mutating := s.app.Group("", s.rateLimitMiddleware)
	mutating.Get("/start", s.handleStart)
	mutating.Post("/start", s.handleStart)
	mutating.Get("/drain", s.handleDrain)
	mutating.Post("/drain", s.handleDrain)
	mutating.Get("/abort", s.handleAbort)
	mutating.Post("/abort", s.handleAbort)
}

// Listen starts serving on addr (host:port).
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the HTTP server, giving in-flight requests
// up to the given grace period to complete.
func (s *Server) Shutdown(grace time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	return s.app.ShutdownWithContext(ctx)
}
