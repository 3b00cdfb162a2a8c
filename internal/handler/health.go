package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the process is running.  It returns a
// plain text "ok" message with an HTTP 200 status code.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Pinger is anything whose backing service can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports the state of the reservation store, the work-order
// database and Redis.  Redis is optional: a nil client reports "disabled"
// and does not degrade the status.
type HealthHandler struct {
	Store Pinger
	DB    *gorm.DB
	Redis *redis.Client
	Now   func() time.Time
}

// Check handles GET /api/health.
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	healthy := true
	services := echo.Map{}

	services["store"] = "connected"
	if h.Store == nil || h.Store.Ping(ctx) != nil {
		services["store"] = "disconnected"
		healthy = false
	}

	services["database"] = "connected"
	if err := pingGorm(ctx, h.DB); err != nil {
		services["database"] = "disconnected"
		healthy = false
	}

	switch {
	case h.Redis == nil:
		services["redis"] = "disabled"
	case h.Redis.Ping(ctx).Err() != nil:
		services["redis"] = "disconnected"
		healthy = false
	default:
		services["redis"] = "connected"
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	return c.JSON(code, echo.Map{
		"success":   healthy,
		"status":    status,
		"timestamp": now().UTC().Format(time.RFC3339),
		"services":  services,
	})
}

func pingGorm(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return gorm.ErrInvalidDB
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
