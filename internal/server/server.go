// Package server contains the HTTP handlers and routing for the blogging API.
package server

import (
	"context"
	"errors"
	"fmt"

	"inkwell/internal/auth"
	"inkwell/internal/bootstrap"
	"inkwell/internal/config"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const serviceName = "inkwell-api"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	runtime        *bootstrap.Runtime
	tokens         *auth.TokenService
	promMiddleware *fiberprometheus.FiberPrometheus
	credentials    *service.CredentialService
	postService    *service.PostService
	commentService *service.CommentService
}

// NewServer connects every backend named by cfg and creates a server on top.
func NewServer(cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	srv, err := NewServerWithDeps(cfg, rt)
	if err != nil {
		_ = rt.Close(context.Background())
		return nil, err
	}
	return srv, nil
}

// NewServerWithDeps creates a Server using an already-initialized runtime.
// Use this in tests or when the caller owns the connections.
func NewServerWithDeps(cfg *config.Config, rt *bootstrap.Runtime) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	return &Server{
		config:         cfg,
		runtime:        rt,
		tokens:         tokens,
		promMiddleware: middleware.InitMetrics(serviceName),
		credentials:    service.NewCredentialService(rt.Users, cfg.EffectiveBcryptCost()),
		postService:    service.NewPostService(rt.Posts, rt.Storage),
		commentService: service.NewCommentService(rt.Comments),
	}, nil
}

// NewApp returns a Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Inkwell API",
		BodyLimit:    s.config.MaxUploadSizeMB * 1024 * 1024,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler renders errors that escape handlers (unknown routes, oversized
// bodies, panics) in the same shape as handler errors.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := models.CodeInternal
		switch fe.Code {
		case fiber.StatusNotFound:
			code = models.CodeNotFound
		case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
			code = models.CodeValidation
		}
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message, Code: code})
	}
	return respondError(c, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers; covers are embedded by a frontend on another origin.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,DELETE",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	requireAuth := middleware.RequireAuthenticated(s.tokens)

	app.Get("/test", s.Test)
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Post("/register", s.Register)
	app.Post("/login", s.Login)
	app.Get("/profile", requireAuth, s.Profile)
	app.Post("/logout", s.Logout)

	app.Get("/post", s.ListPosts)
	app.Get("/post/:id", s.GetPost)
	app.Post("/post", requireAuth, s.CreatePost)
	app.Put("/post/:id", requireAuth, s.UpdatePost)

	app.Get("/comments", s.ListRecentComments)
	app.Post("/comments", requireAuth, s.CreateComment)

	app.Get("/uploads/:name", s.GetUpload)
}

// Shutdown releases the datastore, Redis and other runtime resources.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.runtime == nil {
		return nil
	}
	if err := s.runtime.Close(ctx); err != nil {
		return fmt.Errorf("runtime shutdown: %w", err)
	}
	return nil
}
