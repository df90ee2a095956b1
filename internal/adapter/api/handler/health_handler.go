package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"campusmart/pkg/response"
)

// DependencyCheck pings one backing service.
type DependencyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// ConnectionStats is satisfied by the websocket manager.
type ConnectionStats interface {
	Stats() (connections, users int)
}

type HealthHandler struct {
	checks  []DependencyCheck
	sockets ConnectionStats
	timeout time.Duration
}

var healthHandler *HealthHandler

func NewHealthHandler(sockets ConnectionStats, checks ...DependencyCheck) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		sockets: sockets,
		timeout: 3 * time.Second,
	}
}

func SetupHealthHandler(sockets ConnectionStats, checks ...DependencyCheck) {
	healthHandler = NewHealthHandler(sockets, checks...)
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	data := map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if h.sockets != nil {
		connections, users := h.sockets.Stats()
		data["connections"] = connections
		data["online_users"] = users
	}
	return response.Success(c, data)
}

// CheckDependencies pings every dependency and answers 503 if any is down.
func (h *HealthHandler) CheckDependencies(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	healthy := true
	results := make(map[string]string, len(h.checks))
	for _, dep := range h.checks {
		if err := dep.Check(ctx); err != nil {
			healthy = false
			results[dep.Name] = "down: " + err.Error()
			continue
		}
		results[dep.Name] = "up"
	}

	if !healthy {
		return c.JSON(http.StatusServiceUnavailable, response.Response{
			Success:   false,
			Data:      results,
			Error:     &response.ErrorInfo{Code: "DEPENDENCY_DOWN", Message: "One or more dependencies are unavailable"},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
	return response.Success(c, results)
}
