package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health is used by load balancers and monitoring. It answers 503 when the
// database does not respond.
func Health(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		now := time.Now().UTC().Format(time.RFC3339)
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{
					"message":   "Database unavailable",
					"timestamp": now,
					"status":    "unhealthy",
				})
			}
		}
		return c.JSON(http.StatusOK, echo.Map{
			"message":   "Goa Resort API is running",
			"timestamp": now,
			"status":    "healthy",
		})
	}
}

// Welcome lists the API entry points.
func Welcome(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Welcome to Goa Resort API",
		"version": "1.0.0",
		"endpoints": echo.Map{
			"users":     "/api/users",
			"enquiries": "/api/enquiries",
			"health":    "/health",
		},
	})
}
