// Package http provides HTTP and WebSocket handlers for the dashboard.
package http

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/jonathansantilli/freemad/internal/config"
	"github.com/jonathansantilli/freemad/internal/hub"
	"github.com/jonathansantilli/freemad/internal/policy"
	"github.com/jonathansantilli/freemad/internal/session"
	"github.com/jonathansantilli/freemad/internal/store"
	"github.com/jonathansantilli/freemad/internal/transcripts"

	backendclient "github.com/jonathansantilli/freemad/internal/backend"
)

// Backend starts debate runs and subscribes to their event streams.
type Backend interface {
	StartRun(ctx context.Context, req *backendclient.StartRunRequest) (string, error)
	Subscribe(ctx context.Context, runID string) (session.EventSource, error)
}

// Handler handles HTTP requests.
type Handler struct {
	cfg         *config.Config
	transcripts *transcripts.Store
	store       *store.Store
	backend     Backend
	manager     *session.Manager
	policy      *policy.Engine
	hub         *hub.Hub
	limiter     *rateLimiter
	upgrader    websocket.Upgrader
}

// NewHandler creates a new handler.
func NewHandler(
	cfg *config.Config,
	ts *transcripts.Store,
	st *store.Store,
	be Backend,
	mgr *session.Manager,
	pol *policy.Engine,
	h *hub.Hub,
) *Handler {
	return &Handler{
		cfg:         cfg,
		transcripts: ts,
		store:       st,
		backend:     be,
		manager:     mgr,
		policy:      pol,
		hub:         h,
		limiter:     newRateLimiter(cfg.RateLimitPerMinute),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The dashboard is served from arbitrary origins in dev.
				return true
			},
		},
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Run history (persisted transcripts)
	e.GET("/api/runs", h.ListRuns)
	e.GET("/api/runs/:file", h.GetRun)
	e.DELETE("/api/runs/:file", h.DeleteRun)

	// Live runs
	e.POST("/api/live-runs", h.StartLiveRun)
	e.GET("/api/live-runs/:run_id", h.GetLiveRun)
	e.GET("/ws/live-runs/:run_id", h.WatchLiveRun)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":          "healthy",
		"transcripts_dir": h.transcripts.Dir(),
		"connections":     h.hub.GetConnectionCount(),
	})
}
