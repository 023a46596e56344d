// Package server exposes the converter over HTTP.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	branding "github.com/andreago-sparkensolutions/sparken-branding"
	"github.com/andreago-sparkensolutions/sparken-branding/internal/config"
)

// formOverhead is the room left in the body limit for multipart framing and
// the text fields next to the file.
const formOverhead = 64 << 10

// Converter is the part of *branding.Converter the handlers use.
type Converter interface {
	Convert(ctx context.Context, in branding.Input) (*branding.Result, error)
	Capabilities(ctx context.Context) branding.Capabilities
}

type Server struct {
	app  *fiber.App
	cfg  *config.Config
	conv Converter
	log  *zap.Logger
}

func New(cfg *config.Config, conv Converter, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{cfg: cfg, conv: conv, log: log}

	s.app = fiber.New(fiber.Config{
		AppName:               "sparken-branding",
		BodyLimit:             cfg.Upload.MaxBytes + formOverhead,
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})
	s.app.Use(s.requestID, s.accessLog)
	s.registerRoutes()
	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

// Run blocks until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.log.Info("server listening", zap.String("port", s.cfg.Server.Port), zap.String("env", s.cfg.Server.Environment))
	return s.app.Listen(":" + s.cfg.Server.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes() {
	s.app.Get("/healthz", s.health)

	api := s.app.Group("/api")
	api.Post("/brand", s.brand)
	api.Get("/capabilities", s.capabilities)
}

const requestIDHeader = "X-Request-ID"

func (s *Server) requestID(c *fiber.Ctx) error {
	id := c.Get(requestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	c.Locals("request_id", id)
	c.Set(requestIDHeader, id)
	return c.Next()
}

func requestIDOf(c *fiber.Ctx) string {
	id, _ := c.Locals("request_id").(string)
	return id
}

func (s *Server) accessLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	if err != nil {
		// Let the error handler write the status before it is logged.
		if herr := s.errorHandler(c, err); herr != nil {
			return herr
		}
	}
	s.log.Info("request",
		zap.String("request_id", requestIDOf(c)),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("took", time.Since(start)))
	return nil
}

// errorHandler renders errors that escape the handlers, such as an oversized
// body or an unknown route, in the same JSON shape as handler errors.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	msg := err.Error()
	if code == fiber.StatusRequestEntityTooLarge {
		msg = "File too large"
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
