// Command matchbatch runs one matching sweep and exits. Intended as a cron
// target; the Redis run lock keeps it from overlapping an in-flight sweep
// triggered elsewhere.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/kindred-app/kindred-backend/internal/config"
	"github.com/kindred-app/kindred-backend/internal/domain"
	"github.com/kindred-app/kindred-backend/internal/infrastructure/database"
	"github.com/kindred-app/kindred-backend/internal/infrastructure/redislock"
	"github.com/kindred-app/kindred-backend/internal/logger"
	"github.com/kindred-app/kindred-backend/internal/repository/postgres"
	"github.com/kindred-app/kindred-backend/internal/usecase/batch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.InitFromConfig(cfg)

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		logger.L().Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.L().Error("failed to initialize redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	resolver := batch.NewResolver(
		postgres.NewUserRepository(db),
		postgres.NewMatchRepository(db),
		redislock.New(redisClient, "matchbatch:run-lock"),
		batch.Config{
			DailyLimit:     cfg.Matching.DailyLimit,
			ScoreThreshold: cfg.Matching.ScoreThreshold,
			RunLockTTL:     cfg.Matching.RunLockTTL,
		},
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Matching.RunLockTTL)
	defer cancel()

	summary, err := resolver.Run(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrBatchRunning) {
			logger.L().Info("sweep already in progress, nothing to do")
			return
		}
		logger.L().Error("sweep failed", "error", err)
		os.Exit(1)
	}

	logger.L().Info("sweep complete",
		"users_processed", summary.UsersProcessed,
		"records_created", summary.RecordsCreated,
		"mutual", summary.MutualMatches,
		"one_way", summary.OneWayMatches,
		"duration", summary.Duration.Round(time.Millisecond))
}
