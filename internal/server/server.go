// Package server contains the HTTP handlers for the stories API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "stories/docs" // swagger docs
	"stories/internal/bootstrap"
	"stories/internal/config"
	"stories/internal/featureflags"
	"stories/internal/middleware"
	"stories/internal/models"
	"stories/internal/ratelimit"
	"stories/internal/repository"
	"stories/internal/service"
	"stories/internal/upload"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	defaultStoryLimit       = 10
	defaultStoryLimitWindow = 12 * time.Hour
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	storyRepo      repository.StoryRepository
	userRepo       repository.UserRepository
	storyService   *service.StoryService
	feedService    *service.FeedService
	userService    *service.UserService
	featureFlags   *featureflags.Manager
	admission      *ratelimit.SlidingWindow
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	db, redisClient, err := bootstrap.InitRuntime(cfg, bootstrap.Options{
		SeedDemo: cfg.DevSeedDemo && cfg.Env == "development",
	})
	if err != nil {
		return nil, err
	}

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	storyRepo := repository.NewStoryRepository(db)
	userRepo := repository.NewUserRepository(db)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("stories-api"),
		storyRepo:      storyRepo,
		userRepo:       userRepo,
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	limit, window := admissionWindow(cfg)
	server.admission = ratelimit.NewSlidingWindow(redisClient, limit, window)
	middleware.Logger.Info("story admission configured",
		slog.Int("limit", server.admission.Limit()),
		slog.Duration("window", server.admission.Window()),
		slog.Bool("redis", redisClient != nil),
	)
	server.userService = service.NewUserService(userRepo)
	server.feedService = service.NewFeedService(storyRepo)
	server.storyService = service.NewStoryService(
		storyRepo,
		userRepo,
		service.NewContentGuard(upload.NewVerifier(cfg.UploadTokenSecret)),
		server.admission,
		server.userService.IsModerator,
	)

	return server, nil
}

func admissionWindow(cfg *config.Config) (int, time.Duration) {
	limit := cfg.StoryLimitPerWindow
	if limit <= 0 {
		limit = defaultStoryLimit
	}
	window := time.Duration(cfg.StoryLimitWindowHours) * time.Hour
	if window <= 0 {
		window = defaultStoryLimitWindow
	}
	return limit, window
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Server span; must run before ContextMiddleware so the trace id reaches the logger
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

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + middleware.AccessTokenHeader,
		MaxAge:       86400, // 24 hours
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
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Stories Backend Metrics Dashboard",
	}))

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Reads
	app.Get("/text-story/:id", s.GetStory(models.StoryKindText))
	app.Get("/gif-story/:id", s.GetStory(models.StoryKindGIF))
	app.Get("/text-stories/hot/:cursor?", s.GetHotStories(models.StoryKindText))
	app.Get("/gif-stories/hot/:cursor?", s.GetHotStories(models.StoryKindGIF))

	auth := s.AuthRequired()
	likeLimit := middleware.RateLimit(s.redis, 120, time.Minute, "like_story")

	// Creation
	app.Post("/new-text-story", auth, s.creationOpen(models.StoryKindText), s.CreateTextStory)
	app.Post("/new-gif-story", auth, s.creationOpen(models.StoryKindGIF), s.CreateGifStory)

	// Likes
	app.Post("/like-text-story/:id", auth, likeLimit, s.LikeStory(models.StoryKindText))
	app.Post("/like-gif-story/:id", auth, likeLimit, s.LikeStory(models.StoryKindGIF))
	app.Post("/unlike-text-story/:id", auth, likeLimit, s.UnlikeStory(models.StoryKindText))
	app.Post("/unlike-gif-story/:id", auth, likeLimit, s.UnlikeStory(models.StoryKindGIF))

	// Deletion
	app.Post("/delete-text-story/:id", auth, s.DeleteStory(models.StoryKindText))
	app.Post("/delete-gif-story/:id", auth, s.DeleteStory(models.StoryKindGIF))

	// Profile
	app.Post("/update-flair", auth, s.UpdateFlair)
	app.Get("/feature-flags", auth, s.GetFeatureFlags)

	// Routes used by extension versions before the text/gif split
	app.Get("/story/likes/:id", s.Deprecated)
	app.Get("/stories/hot/:cursor?", s.Deprecated)
	app.Post("/like-story/:id/:username", s.Deprecated)
	app.Post("/new-story", s.Deprecated)
}

// LivenessCheck handles liveness probe requests
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/live [get]
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
// @Summary Readiness probe
// @Description Checks the database and Redis connections.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/ready [get]
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

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Creation admission lives in Redis, so the service is not ready without it.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware. The token comes from
// "Authorization: Bearer" or the extension's access-token header.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := middleware.ExtractToken(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("not authenticated"))
		}

		userID, err := middleware.ParseAccessToken(s.config.JWTSecret, tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("not authenticated"))
		}

		// Store user ID in context
		c.Locals("userID", userID)
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// optionalUserID resolves the caller when a valid token is present but does not enforce it.
func (s *Server) optionalUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	userID, err := middleware.ParseAccessToken(s.config.JWTSecret, middleware.ExtractToken(c))
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

// currentUserID returns the id AuthRequired stored for this request.
func currentUserID(c *fiber.Ctx) uuid.UUID {
	userID, _ := c.Locals("userID").(uuid.UUID)
	return userID
}

// NewApp builds the fiber app with middleware and routes attached.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Stories API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Routing errors such as 404/405 keep their own status.
			if e, ok := err.(*fiber.Error); ok && e.Code < fiber.StatusInternalServerError {
				return c.Status(e.Code).JSON(models.ErrorResponse{Error: e.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled request error",
				slog.String("path", c.Path()),
				slog.String("error", err.Error()),
			)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
