// Package server contains the HTTP handlers for the blogging API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	_ "inkwell/docs" // swagger docs
	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/credentials"
	"inkwell/internal/database"
	"inkwell/internal/media"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/service"
	"inkwell/internal/session"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	sessions       *session.Manager
	media          media.Store

	identityService   *service.IdentityService
	postService       *service.PostService
	tagService        *service.TagService
	engagementService *service.EngagementService
}

// NewServer connects to the database, Redis and the media backend and
// wires every service.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := observability.RegisterGormMetrics(db); err != nil {
		return nil, fmt.Errorf("register query metrics: %w", err)
	}

	redisClient := cache.InitRedis(cfg.RedisURL)

	store, err := NewMediaStore(cfg)
	if err != nil {
		return nil, err
	}

	srv := NewServerWithDeps(cfg, db, redisClient, store)
	srv.promMiddleware = middleware.InitMetrics("inkwell-api")
	return srv, nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil redisClient keeps sessions in process memory.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store media.Store) *Server {
	var sessionStore session.Store
	if redisClient != nil {
		sessionStore = session.NewRedisStore(redisClient)
	} else {
		middleware.Logger.Warn("Redis unavailable, sessions are kept in memory")
		sessionStore = session.NewMemoryStore()
	}
	sessions := session.NewManager(sessionStore, session.NewTokenCodec(cfg.SessionSecret), cfg.SessionTTL())

	tx := database.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	tagRepo := repository.NewTagRepository(db)

	return &Server{
		config:            cfg,
		db:                db,
		redis:             redisClient,
		sessions:          sessions,
		media:             store,
		identityService:   service.NewIdentityService(tx, userRepo, credentials.NewBcryptHasher(), sessions, store),
		postService:       service.NewPostService(tx, postRepo, tagRepo, store),
		tagService:        service.NewTagService(tagRepo, postRepo),
		engagementService: service.NewEngagementService(tx, postRepo, commentRepo, likeRepo, userRepo),
	}
}

// NewMediaStore builds the image store selected by MEDIA_BACKEND.
func NewMediaStore(cfg *config.Config) (media.Store, error) {
	switch cfg.MediaBackend {
	case "", "disk":
		return media.NewDiskStore(cfg.MediaRoot), nil
	case "s3":
		store, err := media.NewS3Store(media.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UseSSL:          cfg.S3UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown MEDIA_BACKEND %q", cfg.MediaBackend)
	}
}

// NewApp returns a Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	bodyLimit := s.config.MediaMaxUploadMB
	if bodyLimit <= 0 {
		bodyLimit = 10
	}

	app := fiber.New(fiber.Config{
		AppName:      "Inkwell API",
		BodyLimit:    bodyLimit * 1024 * 1024,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler renders errors that escaped a handler in the API error shape.
func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(models.ErrorResponse{Error: fiberErr.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, models.StatusFor(err), err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ResolveActor(s.sessions))

	// Runs after ResolveActor so the actor id reaches the logs
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if s.config.MediaBackend == "" || s.config.MediaBackend == "disk" {
		app.Static("/uploads", filepath.Join(s.config.MediaRoot, "uploads"))
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	api.Post("/register", s.Register)
	api.Post("/login", s.Login)
	api.Post("/logout", s.Logout)

	me := api.Group("/me", middleware.RequireActor)
	me.Get("/", s.GetMe)
	me.Put("/avatar", s.UpdateAvatar)

	users := api.Group("/users")
	users.Get("/", s.GetUsers)
	users.Get("/:id/likes", s.GetUserLikes)

	// Specific /:id/:resource routes before the generic /:id route
	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Get("/search", s.SearchPosts)
	posts.Post("/", s.CreatePost)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", middleware.RequireActor, s.CreateComment)
	posts.Post("/:id/like", middleware.RequireActor, s.ToggleLike)
	posts.Get("/:id/likes", s.GetPostLikes)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", middleware.RequireActor, s.UpdatePost)
	posts.Delete("/:id", middleware.RequireActor, s.DeletePost)

	tags := api.Group("/tags")
	tags.Get("/", s.GetTags)
	tags.Get("/active", s.GetActiveTags)
	tags.Get("/:id/posts", s.GetTagPosts)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck pings the database and, when configured, Redis.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
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
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
