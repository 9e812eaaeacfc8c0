package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pageza/homefoods/backend/config"
	"github.com/pageza/homefoods/backend/internal/cache"
	"github.com/pageza/homefoods/backend/internal/database"
	"github.com/pageza/homefoods/backend/internal/server"
	"github.com/pageza/homefoods/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		config.NewLogger(config.Default(), os.Stderr).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg, os.Stderr)

	ctx := context.Background()
	st, err := database.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close(ctx)

	if err := st.Migrate(ctx); err != nil {
		logger.Error("failed to migrate store", "error", err)
		os.Exit(1)
	}

	var (
		redisClient *redis.Client
		foodCache   cache.Cache = cache.Noop{}
	)
	if cfg.RedisEnabled() {
		redisClient, err = database.NewRedisClient(cfg, logger)
		if err != nil {
			// Continue without caching or rate limiting if Redis is not available
			logger.Warn("redis unavailable, continuing without cache and rate limiting", "error", err)
		} else {
			defer redisClient.Close()
			foodCache = cache.NewRedis(redisClient, time.Duration(cfg.CacheTTL))
		}
	}

	foods := service.NewFoodService(st, foodCache, logger)
	auth := service.NewAuthService(cfg.JWTSecret, 0)
	srv := server.New(cfg, foods, auth, redisClient, logger)

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	// Channel to listen for an interrupt or terminate signal from the OS
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("received signal", "signal", sig.String())
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
