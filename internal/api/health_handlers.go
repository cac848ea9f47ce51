package api

import (
	"context"
	"net/http"
	"time"

	"github.com/anisearchapp/anisearch-bot/internal/http/response"
)

// pingTimeout bounds the database check so a wedged store cannot hang probes.
const pingTimeout = 2 * time.Second

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status"`
	Uptime     string                     `json:"uptime"`
	Components map[string]ComponentHealth `json:"components"`
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	components := map[string]ComponentHealth{
		"database": s.checkDatabase(r.Context()),
	}

	overall := "healthy"
	status := http.StatusOK
	if components["database"].Status != "healthy" {
		overall = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	response.JSON(w, status, HealthResponse{
		Status:     overall,
		Uptime:     time.Since(s.started).Truncate(time.Second).String(),
		Components: components,
	}, s.logger)
}

// checkDatabase verifies the user store is reachable.
func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{
			Status:  "unhealthy",
			Message: "database not configured",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	start := time.Now()
	err := s.store.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		s.logger.Warn("health check: database ping failed",
			"request_id", getRequestID(ctx),
			"error", err,
		)
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "database ping failed",
		}
	}

	return ComponentHealth{
		Status:  "healthy",
		Latency: latency.String(),
	}
}
