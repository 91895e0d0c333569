package container

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/kindred-app/kindred-backend/internal/config"
	httpdelivery "github.com/kindred-app/kindred-backend/internal/delivery/http"
	"github.com/kindred-app/kindred-backend/internal/delivery/http/handler"
	"github.com/kindred-app/kindred-backend/internal/delivery/http/middleware"
	"github.com/kindred-app/kindred-backend/internal/infrastructure/database"
	"github.com/kindred-app/kindred-backend/internal/infrastructure/fanout"
	"github.com/kindred-app/kindred-backend/internal/infrastructure/gemini"
	"github.com/kindred-app/kindred-backend/internal/infrastructure/redislock"
	"github.com/kindred-app/kindred-backend/internal/infrastructure/server"
	"github.com/kindred-app/kindred-backend/internal/logger"
	"github.com/kindred-app/kindred-backend/internal/repository/postgres"
	"github.com/kindred-app/kindred-backend/internal/usecase/batch"
	"github.com/kindred-app/kindred-backend/internal/usecase/enrich"
	"github.com/kindred-app/kindred-backend/internal/usecase/lifecycle"
	"github.com/kindred-app/kindred-backend/internal/usecase/notify"
)

// batchLockKey guards the sweep across all instances.
const batchLockKey = "matchbatch:run-lock"

// Container holds all application dependencies
type Container struct {
	Config   *config.Config
	DB       *sqlx.DB
	Redis    *redis.Client
	Server   *server.Server
	Gemini   *gemini.GeminiClient
	Engine   *lifecycle.Engine
	Resolver *batch.Resolver
	Emitter  *notify.Emitter
	Enricher *enrich.Enricher
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// AI enrichment is optional: without a key the app runs, matches just
	// stay unadorned.
	var geminiClient *gemini.GeminiClient
	if cfg.GeminiAPIKey != "" {
		geminiClient, err = gemini.NewGeminiClient(cfg.GeminiAPIKey)
		if err != nil {
			logger.L().Warn("gemini client unavailable, continuing without enrichment", "error", err)
			geminiClient = nil
		}
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	matchRepo := postgres.NewMatchRepository(db)

	// Notification pipeline
	redisFanout := fanout.NewRedisFanout(redisClient)
	emitter := notify.NewEmitter(redisFanout, cfg.Matching.RetractionGrace, matchRepo.GetByID)

	// Enrichment
	var enricher *enrich.Enricher
	if geminiClient != nil {
		enricher = enrich.NewEnricher(geminiClient, matchRepo)
	}

	// Use cases
	var lifecycleEnricher lifecycle.Enricher
	if enricher != nil {
		lifecycleEnricher = enricher
	}
	engine := lifecycle.NewEngine(matchRepo, emitter, lifecycleEnricher)

	lock := redislock.New(redisClient, batchLockKey)
	resolver := batch.NewResolver(userRepo, matchRepo, lock, batch.Config{
		DailyLimit:     cfg.Matching.DailyLimit,
		ScoreThreshold: cfg.Matching.ScoreThreshold,
		RunLockTTL:     cfg.Matching.RunLockTTL,
	})

	// Handlers
	matchHandler := handler.NewMatchHandler(engine)
	notificationHandler := handler.NewNotificationHandler(redisFanout)
	adminHandler := handler.NewAdminHandler(resolver)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.AccessSecret)

	router := httpdelivery.NewRouter(
		matchHandler,
		notificationHandler,
		adminHandler,
		authMiddleware,
		cfg.AdminToken,
	)
	ginRouter := router.Setup()

	srv := server.NewServer(&cfg.Server, ginRouter)

	return &Container{
		Config:   cfg,
		DB:       db,
		Redis:    redisClient,
		Server:   srv,
		Gemini:   geminiClient,
		Engine:   engine,
		Resolver: resolver,
		Emitter:  emitter,
		Enricher: enricher,
	}, nil
}

// Close closes all connections
func (c *Container) Close() error {
	if c.Emitter != nil {
		c.Emitter.Close()
	}
	if c.Enricher != nil {
		c.Enricher.Wait()
	}
	if c.Gemini != nil {
		c.Gemini.Close()
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.L().Warn("error closing redis", "error", err)
		}
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	return nil
}
