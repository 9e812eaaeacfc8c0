package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/pageza/homefoods/backend/config"
	"github.com/pageza/homefoods/backend/internal/api"
	"github.com/pageza/homefoods/backend/internal/middleware"
	"github.com/pageza/homefoods/backend/internal/service"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	logger *slog.Logger
}

// New wires the API. Writes require an admin token when auth is non-nil and
// a JWT secret is configured; they are rate limited when redisClient is
// non-nil and cfg.RateLimit is positive.
func New(cfg *config.Config, foods *service.FoodService, auth *service.AuthService, redisClient *redis.Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	var opts api.Options
	if auth != nil && cfg.JWTSecret != "" {
		opts.Auth = auth
	} else {
		logger.Warn("JWT secret not configured, write routes are unauthenticated")
	}
	if redisClient != nil && cfg.RateLimit > 0 {
		opts.Limiter = middleware.NewWriteRateLimiter(redisClient, cfg.RateLimit, logger)
	}
	api.RegisterRoutes(router, foods, opts, logger)

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
