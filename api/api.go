// Package api exposes dataset comparison over HTTP.
package api

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/TFMV/keydiff/pkg/diff"
	"github.com/TFMV/keydiff/version"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// ServerOptions configures the HTTP server.
type ServerOptions struct {
	Port    string
	Prefork bool

	// BodyLimit caps request bodies in bytes, uploads included.
	// Zero uses 64 MiB.
	BodyLimit int

	// Logger receives server and comparison logs. Nil disables them.
	Logger *zap.Logger
}

// Server holds the Fiber app instance
type Server struct {
	app    *fiber.App
	opts   ServerOptions
	log    *zap.Logger
	differ *diff.KeyDiffer
}

// NewServer initializes a new Fiber instance with the comparison routes.
func NewServer(opts ServerOptions) *Server {
	if opts.BodyLimit == 0 {
		opts.BodyLimit = 64 << 20
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	differ, _ := diff.NewKeyDiffer(log)

	app := fiber.New(fiber.Config{
		IdleTimeout:           10 * time.Second,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		Prefork:               opts.Prefork,
		BodyLimit:             opts.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{Output: os.Stderr}))

	s := &Server{app: app, opts: opts, log: log, differ: differ}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "keydiff API",
			"version": version.Version,
			"build":   version.BuildDate,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	v1 := app.Group("/v1")
	v1.Post("/columns", s.handleColumns)
	v1.Post("/compare", s.handleCompare)
	v1.Post("/compare/files", s.handleCompareFiles)

	return s
}

// GetApp returns the underlying Fiber app.
func (s *Server) GetApp() *fiber.App {
	return s.app
}

// Start runs the server until an interrupt or SIGTERM arrives, then shuts
// it down gracefully.
func (s *Server) Start() error {
	port := s.opts.Port
	if port == "" {
		port = "8080"
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	errc := make(chan error, 1)
	go func() {
		s.log.Info("keydiff API listening", zap.String("port", port))
		errc <- s.app.Listen(":" + port)
	}()

	select {
	case err := <-errc:
		return err
	case <-quit:
	}
	s.log.Info("received shutdown signal, stopping server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		return err
	}
	s.log.Info("server shutdown successfully")
	return nil
}

// Shutdown stops the server, waiting for open requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// errorHandler maps comparison failures to status codes: schema and lookup
// errors are 422, Fiber errors keep their code, anything else is 500.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	var schemaErr *core.SchemaError
	var lookupErr *core.LookupError
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.As(err, &schemaErr), errors.As(err, &lookupErr):
		code = fiber.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = fiber.StatusRequestTimeout
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
