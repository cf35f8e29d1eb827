// Package server contains the HTTP handlers and routing for the API.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	_ "vinoteca/docs" // swagger docs
	"vinoteca/internal/bootstrap"
	"vinoteca/internal/config"
	"vinoteca/internal/database"
	"vinoteca/internal/identity"
	"vinoteca/internal/middleware"
	"vinoteca/internal/models"
	"vinoteca/internal/observability"
	"vinoteca/internal/repository"
	"vinoteca/internal/service"
	"vinoteca/internal/token"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "vinoteca-api"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	sessions       *token.Issuer
	revoker        *token.Revoker
	verifier       identity.Verifier
	authService    *service.AuthService
	reviewService  *service.ReviewService
	commentService *service.CommentService
	wineService    *service.WineService
}

// NewServer connects to the database and Redis described by cfg, prepares
// the schema and builds a Server on top of them. Redis is optional: without
// it rate limiting fails open and logout is unavailable.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{
		Redis:       true,
		ApplySchema: true,
		SeedCatalog: cfg.SeedCatalogOnStart,
	})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient, nil)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil verifier is replaced by a JWKS verifier configured from cfg.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, verifier identity.Verifier) (*Server, error) {
	sessions, err := token.NewIssuer(token.Config{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.SessionIssuer,
		Audience: cfg.SessionAudience,
		TTL:      cfg.SessionTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("session issuer: %w", err)
	}
	if verifier == nil {
		verifier = identity.NewJWKSVerifier(identity.Config{
			Issuer:          cfg.IdentityIssuer,
			Audience:        cfg.IdentityAudience,
			JWKSURL:         cfg.IdentityJWKSURL,
			Leeway:          cfg.IdentityClockSkew,
			HTTPClient:      &http.Client{Timeout: cfg.IdentityHTTPTimeout},
			RefreshInterval: cfg.IdentityKeyRefresh,
		})
	}

	userRepo := repository.NewUserRepository(db)
	wineRepo := repository.NewWineRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	revoker := token.NewRevoker(redisClient, nil)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics(serviceName),
		sessions:       sessions,
		revoker:        revoker,
		verifier:       verifier,
		authService:    service.NewAuthService(verifier, userRepo, sessions, revoker),
		reviewService:  service.NewReviewService(reviewRepo, commentRepo, wineRepo, userRepo),
		commentService: service.NewCommentService(commentRepo, reviewRepo, userRepo),
		wineService:    service.NewWineService(wineRepo),
	}, nil
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Vinoteca API",
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler renders errors returned from handlers and middleware.
func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(models.ErrorResponse{
			Error: fiberErr.Message,
			Code:  codeForStatus(fiberErr.Code),
		})
	}
	if _, ok := models.AsAppError(err); !ok {
		observability.GlobalLogger.ErrorContext(c.UserContext(), "unhandled error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, err)
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return models.CodeNotFound
	case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge, fiber.StatusUnsupportedMediaType:
		return models.CodeInvalidInput
	case fiber.StatusUnauthorized:
		return models.CodeUnauthorized
	case fiber.StatusForbidden:
		return models.CodeForbidden
	case fiber.StatusUnprocessableEntity:
		return models.CodeBusinessRuleViolation
	}
	if status >= fiber.StatusInternalServerError {
		return models.CodeInternal
	}
	return ""
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Tracing runs before the context middleware so the trace id reaches the logger
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS before anything that can short-circuit so error responses keep CORS headers
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/identity", middleware.RateLimit(
		s.redis, s.config.AuthRateLimit, s.config.AuthRateWindow, "auth_identity"), s.AuthenticateWithIdentity)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired(s.sessions, s.revoker))
	writeLimit := func(name string) fiber.Handler {
		return middleware.RateLimit(s.redis, s.config.WriteRateLimit, s.config.WriteRateWindow, name)
	}

	protected.Post("/auth/logout", s.Logout)

	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Get("/:id/comments", s.ListUserComments)

	wines := protected.Group("/wines")
	wines.Get("/", s.ListWines)
	wines.Get("/:id", s.GetWine)

	reviews := protected.Group("/reviews")
	reviews.Post("/", writeLimit("review_write"), s.CreateReview)
	reviews.Get("/", s.ListReviews)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	reviews.Post("/:id/comments", writeLimit("comment_write"), s.CreateComment)
	reviews.Get("/:id/comments", s.ListReviewComments)
	reviews.Get("/:id", s.GetReview)
	reviews.Put("/:id", writeLimit("review_write"), s.UpdateReview)
	reviews.Delete("/:id", writeLimit("review_write"), s.DeleteReview)

	comments := protected.Group("/comments")
	comments.Put("/:id", writeLimit("comment_write"), s.UpdateComment)
	comments.Delete("/:id", writeLimit("comment_write"), s.DeleteComment)
}

// LivenessCheck handles liveness check requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck handles readiness check requests. Redis only counts when
// it is configured.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now().UTC(),
	})
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	s.app = s.App()
	observability.GlobalLogger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
	}

	for _, db := range []*gorm.DB{s.db, database.GetReadDB()} {
		if db == nil {
			continue
		}
		if sqlDB, err := db.DB(); err == nil {
			if cerr := sqlDB.Close(); cerr != nil {
				errs = append(errs, fmt.Errorf("close database: %w", cerr))
			}
		}
	}
	database.SetReadDB(nil)

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}

	if closer, ok := s.verifier.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close identity verifier: %w", err))
		}
	}

	observability.GlobalLogger.InfoContext(ctx, "server shutdown complete")
	return errors.Join(errs...)
}
