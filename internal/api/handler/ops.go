// Package handler provides HTTP handlers for the nutrilog API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/nutrilog/nutrilog/internal/api/models"
	"github.com/nutrilog/nutrilog/internal/api/response"
)

// readinessTimeout bounds each dependency check.
const readinessTimeout = 2 * time.Second

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	checks    map[string]Pinger
}

// NewOpsHandler creates a new OpsHandler. checks maps a dependency name to
// the Pinger consulted by the readiness endpoint.
func NewOpsHandler(version, buildTime string, checks map[string]Pinger) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		checks:    checks,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(time.Now()),
		Version:   h.version,
		BuildTime: h.buildTime,
	})
}

// ReadinessCheck handles GET /v1/ops/ready. It returns 503 when any
// dependency fails its ping.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ready := models.Readiness{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Checks: make([]models.DependencyCheck, 0, len(h.checks)),
	}

	for name, pinger := range h.checks {
		check := models.DependencyCheck{Name: name, Status: models.HealthStatusOK}

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		if err := pinger.Ping(ctx); err != nil {
			check.Status = models.HealthStatusFail
			check.Detail = err.Error()
			ready.Status = models.HealthStatusFail
		}
		cancel()

		ready.Checks = append(ready.Checks, check)
	}

	status := http.StatusOK
	if ready.Status != models.HealthStatusOK {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, r, status, ready)
}
