package handler

import (
	"context"
	"net/http"

	"github.com/mcoot/rpsarena/internal/api/response"
	"github.com/mcoot/rpsarena/internal/model"
)

// Sweeper runs a staleness sweep on demand
type Sweeper interface {
	Sweep(ctx context.Context) (*model.SweepReport, error)
}

// Pinger reports whether backing stores are reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// MaintenanceHandler handles operator and health endpoints
type MaintenanceHandler struct {
	sweeper Sweeper
	pinger  Pinger
}

// NewMaintenanceHandler creates a new maintenance handler. pinger may be nil.
func NewMaintenanceHandler(sweeper Sweeper, pinger Pinger) *MaintenanceHandler {
	return &MaintenanceHandler{sweeper: sweeper, pinger: pinger}
}

// Sweep handles POST /api/v1/maintenance/sweep
func (h *MaintenanceHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.SweepReportFromModel(report))
}

// Health handles GET /api/v1/health
func (h *MaintenanceHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			response.JSON(w, http.StatusServiceUnavailable, response.Health{Status: "unavailable", Error: err.Error()})
			return
		}
	}
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
