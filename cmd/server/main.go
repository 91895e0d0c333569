package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kindred-app/kindred-backend/internal/config"
	"github.com/kindred-app/kindred-backend/internal/infrastructure/container"
	"github.com/kindred-app/kindred-backend/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L().Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.InitFromConfig(cfg)

	app, err := container.NewContainer(cfg)
	if err != nil {
		logger.L().Error("failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.L().Error("error closing application", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Server.Start(); err != nil {
			logger.L().Error("server error", "error", err)
			quit <- syscall.SIGTERM
		}
	}()

	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.Server.Shutdown(ctx); err != nil {
		logger.L().Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.L().Info("server exited properly")
}
