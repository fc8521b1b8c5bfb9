package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/certitax/certitax/internal/config"
	"github.com/certitax/certitax/internal/routes"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app   *fiber.App
	cfg   config.Config
	db    *pgxpool.Pool
	cache *redis.Client
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: errorHandler,
	})

	if err := routes.Setup(app, routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger}); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, db: db, cache: cache}, nil
}

// errorHandler renders every handler failure in the uniform envelope the
// frontend expects: {success:false, error:...}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := http.StatusInternalServerError
	message := err.Error()

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
