package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/ai"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/cache"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/config"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/events"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/handlers"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/metrics"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/repositories/postgres"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/security"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/services"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/storage"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/utils"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/validator"
	"github.com/amarjyotibairagi/proDriverV2-sub001/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Failed to initialize Redis, continuing without cache", "error", err)
			redisClient = nil
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()
	cacheManager := cache.NewCacheManager(redisClient)

	// Domain events: audit trail and identity change notifications
	bus, err := events.NewBus(cfg.KafkaBrokers, logger)
	if err != nil {
		log.Fatalf("Failed to initialize event bus: %v", err)
	}
	bus.Handle("audit-writer", events.TopicAudit, events.AuditConsumer(repo.Audit(), logger))
	bus.Handle("view-invalidator", events.TopicIdentity, events.IdentityConsumer(cacheManager, logger))

	busCtx, stopBus := context.WithCancel(context.Background())
	go func() {
		if err := bus.Run(busCtx); err != nil {
			logger.Error("Event bus stopped", "error", err)
		}
	}()
	<-bus.Running()

	// Security primitives
	tokens, err := session.NewTokenService(cfg.Session.Secret, cfg.Session.Issuer)
	if err != nil {
		log.Fatalf("Failed to initialize session tokens: %v", err)
	}
	cookies := session.NewCookieManager(tokens, cfg.IsProduction())
	hasher := security.NewPasswordHasher()
	cipher, err := security.NewFieldCipher(cfg.FieldEncryption)
	if err != nil {
		log.Fatalf("Failed to initialize field encryption: %v", err)
	}

	// Optional external collaborators
	var store storage.ObjectStore
	if cfg.Storage.Endpoint != "" {
		if store, err = storage.NewObjectStore(cfg.Storage, logger); err != nil {
			logger.Warn("Object storage unavailable", "error", err)
			store = nil
		}
	}
	deps := &services.Dependencies{
		Repo:      repo,
		Cache:     cacheManager,
		Hasher:    hasher,
		Cipher:    cipher,
		Store:     store,
		Recorder:  events.NewRecorder(bus.Publisher, logger),
		Metrics:   metrics.New(),
		Validator: validator.New(),
		Languages: cfg.Languages,
		Logger:    slogLogger,
	}
	if client, err := ai.NewClient(cfg.AI); err == nil {
		deps.Translator = client
		deps.Speech = client
	} else if !errors.Is(err, ai.ErrNotConfigured) {
		log.Fatalf("Failed to initialize AI client: %v", err)
	}

	if err := pkg.SeedAdmin(context.Background(), repo.User(), hasher, cfg.SeedAdmin, logger); err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}

	// Initialize services
	serviceManager := services.NewServiceManager(deps)
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Initialize handlers
	handlerManager, err := handlers.NewHandlerManager(serviceManager, cookies, cfg, deps.Metrics, logger)
	if err != nil {
		log.Fatalf("Failed to initialize handlers: %v", err)
	}

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, cfg, logger)
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Stop audio jobs before the stores they write to go away
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	// Drain the event bus, then close the database and redis
	stopBus()
	if err := bus.Close(); err != nil {
		logger.Warn("Failed to close event bus", "error", err)
	}
	if err := repoManager.Shutdown(ctx); err != nil {
		logger.Warn("Failed to close repositories", "error", err)
	}

	logger.Info("Server exited")
}
