// Package api exposes the menu over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/homefoods/backend/internal/middleware"
	"github.com/pageza/homefoods/backend/internal/service"
	"github.com/pageza/homefoods/backend/internal/types"
)

// Options select the middleware guarding write routes.
type Options struct {
	// Auth requires an admin bearer token on writes when set.
	Auth middleware.TokenValidator
	// Limiter rate limits writes per client when set.
	Limiter *middleware.RateLimiter
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, svc *service.FoodService, opts Options, logger *slog.Logger) {
	health := HealthCheck(svc)
	router.GET("/health", health)
	router.GET("/api/health", health)

	var write []gin.HandlerFunc
	if opts.Limiter != nil {
		write = append(write, opts.Limiter.RateLimitMiddleware())
	}
	if opts.Auth != nil {
		write = append(write, middleware.AuthMiddleware(opts.Auth), middleware.RequireRole(types.RoleAdmin))
	}

	v1 := router.Group("/api/v1")
	NewFoodHandler(svc, logger).RegisterRoutes(v1, write...)
}

// HealthCheck reports whether the store answers.
func HealthCheck(svc *service.FoodService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Ping(c.Request.Context()); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "store unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}
