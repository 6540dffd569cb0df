package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/docgate-app/docgate/internal/config"
	"github.com/docgate-app/docgate/internal/pdftext"
	"github.com/docgate-app/docgate/internal/pipeline"
)

// Server is the HTTP surface the ingestion pipeline is driven through.
type Server struct {
	app      *fiber.App
	registry *pipeline.Registry
	pdf      *pdftext.Extractor
}

// NewServer creates the HTTP server and mounts the routes.
func NewServer(cfg *config.Config, registry *pipeline.Registry) *Server {
	app := fiber.New(fiber.Config{
		ServerHeader:          "Docgate",
		AppName:               "Docgate v1.0.0",
		BodyLimit:             cfg.Server.BodyLimit,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		DisableStartupMessage: !cfg.Debug,
		ErrorHandler:          errorHandler,
	})

	s := &Server{
		app:      app,
		registry: registry,
		pdf:      pdftext.New(),
	}

	app.Get("/health", s.handleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Post("/v1/documents/parse", s.handleParse)

	return s
}

// Listen starts serving on the given address and blocks.
func (s *Server) Listen(address string) error {
	return s.app.Listen(address)
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app, used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// errorHandler handles errors globally
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	if code >= 500 {
		log.Error().Err(err).Str("path", c.Path()).Msg("Server error")
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}
