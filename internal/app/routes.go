package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/prasit-dev/pharmadmin/internal/middleware"
	"github.com/prasit-dev/pharmadmin/internal/pkg"
)

// RouteDeps holds all dependencies needed to register routes.
type RouteDeps struct {
	// Public modules register without authentication (login, register).
	Public []Module
	// Protected modules sit behind the bearer-token middleware when
	// Tokens is set. A nil Tokens leaves them open, for deployments
	// that run with auth disabled.
	Protected []Module
	Tokens    *pkg.TokenManager
	DB        *gorm.DB
}

// RegisterRoutes registers all application routes on the given gin.Engine.
func RegisterRoutes(r *gin.Engine, deps *RouteDeps) error {
	if r == nil {
		return errors.New("router is nil")
	}
	if deps == nil {
		return errors.New("route dependencies are nil")
	}
	if len(deps.Protected) == 0 {
		return errors.New("at least one module is required")
	}

	// Health check
	r.GET("/health", healthHandler(deps.DB))

	api := r.Group("/api/v1")
	for i, m := range deps.Public {
		if m == nil {
			return fmt.Errorf("public module at index %d is nil", i)
		}
		m.RegisterRoutes(api)
	}

	secured := r.Group("/api/v1")
	if deps.Tokens != nil {
		secured.Use(middleware.Auth(deps.Tokens))
	}
	for i, m := range deps.Protected {
		if m == nil {
			return fmt.Errorf("protected module at index %d is nil", i)
		}
		m.RegisterRoutes(secured)
	}

	r.NoRoute(noRouteHandler())

	return nil
}

// healthHandler returns a handler that pings the database and reports status.
func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "ok"
		status := "ok"
		code := http.StatusOK

		if db == nil {
			dbStatus = "error"
			status = "degraded"
			code = http.StatusServiceUnavailable
			c.JSON(code, gin.H{
				"status": status,
				"components": gin.H{
					"database": dbStatus,
				},
			})
			return
		}

		sqlDB, err := db.DB()
		if err != nil {
			dbStatus = "error"
			status = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
			if err != nil {
				dbStatus = "error"
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}

		c.JSON(code, gin.H{
			"status": status,
			"components": gin.H{
				"database": dbStatus,
			},
		})
	}
}

// noRouteHandler returns a handler that responds 404 with the standard
// JSON envelope.
func noRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, pkg.Response{
			Success: false,
			Message: "not found",
		})
	}
}
