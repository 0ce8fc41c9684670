package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthCheck pings one dependency
type HealthCheck func(ctx context.Context) error

// Health reports process and dependency health
type Health struct {
	environment string
	checks      map[string]HealthCheck
	startedAt   time.Time
}

// NewHealthHandler creates a health handler; checks may be empty
func NewHealthHandler(environment string, checks map[string]HealthCheck) *Health {
	return &Health{
		environment: environment,
		checks:      checks,
		startedAt:   time.Now(),
	}
}

// Check handles GET /health
// @Summary      Health check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}  "A dependency is unavailable"
// @Router       /health [get]
func (h *Health) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	code := http.StatusOK
	deps := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			deps[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	return c.JSON(code, map[string]interface{}{
		"status":       status,
		"service":      "atc-shift-analyzer",
		"environment":  h.environment,
		"uptime":       time.Since(h.startedAt).Round(time.Second).String(),
		"dependencies": deps,
	})
}
