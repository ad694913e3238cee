package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	backendclient "github.com/jonathansantilli/freemad/internal/backend"
	"github.com/jonathansantilli/freemad/internal/domain"
	"github.com/jonathansantilli/freemad/internal/session"
	"github.com/jonathansantilli/freemad/internal/store"
)

// StartLiveRunRequest is the request to start a live debate run.
type StartLiveRunRequest struct {
	Requirement string `json:"requirement"`
	MaxRounds   int    `json:"max_rounds,omitempty"`
	ConfigPath  string `json:"config_path,omitempty"`
}

// StartLiveRun asks the backend for a new run and begins tracking it.
// POST /api/live-runs
func (h *Handler) StartLiveRun(c echo.Context) error {
	ctx := c.Request().Context()

	var req StartLiveRunRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if req.Requirement == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "requirement is required"})
	}
	if req.MaxRounds < 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "max_rounds must be positive"})
	}

	if !h.limiter.Allow(c.RealIP()) {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many run starts, slow down"})
	}

	input := map[string]interface{}{
		"requirement": req.Requirement,
		"max_rounds":  req.MaxRounds,
	}
	if req.ConfigPath != "" {
		input["config_path"] = req.ConfigPath
	}
	decision, err := h.policy.Evaluate(ctx, input)
	if err != nil {
		log.Printf("ERROR: policy evaluation failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "policy evaluation failed"})
	}
	if decision != "allow" {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "run start denied by policy"})
	}

	runID, err := h.backend.StartRun(ctx, &backendclient.StartRunRequest{
		Requirement: req.Requirement,
		MaxRounds:   req.MaxRounds,
		ConfigPath:  req.ConfigPath,
	})
	if err != nil {
		log.Printf("ERROR: backend refused run start: %v", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "debate engine unavailable"})
	}

	source, err := h.backend.Subscribe(ctx, runID)
	if err != nil {
		log.Printf("ERROR: failed to subscribe to run %s: %v", runID, err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "debate engine unavailable"})
	}

	if err := h.store.CreateRun(ctx, &store.Run{
		RunID:       runID,
		Requirement: req.Requirement,
		Status:      domain.RunStatusRunning,
		StartedAt:   time.Now(),
	}); err != nil {
		log.Printf("ERROR: failed to record run %s: %v", runID, err)
	}

	ctrl := session.NewController(runID, source, h.store, h.hub)
	// Controllers outlive the HTTP request that created them.
	h.manager.Track(context.Background(), ctrl)

	return c.JSON(http.StatusOK, map[string]string{"run_id": runID})
}

// GetLiveRun returns the current reconstructed view of a live run.
// GET /api/live-runs/:run_id
func (h *Handler) GetLiveRun(c echo.Context) error {
	runID := c.Param("run_id")

	ctrl := h.manager.Get(runID)
	if ctrl == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "live run not found"})
	}
	return c.JSON(http.StatusOK, ctrl.View())
}
