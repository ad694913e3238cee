package http

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/jonathansantilli/freemad/internal/hub"
)

// WatchLiveRun upgrades to a websocket and streams a run's events.
// Journaled events are replayed first so late joiners see the whole
// run; live events follow through the hub.
// GET /ws/live-runs/:run_id
func (h *Handler) WatchLiveRun(c echo.Context) error {
	runID := c.Param("run_id")

	if h.manager.Get(runID) == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "live run not found"})
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		return err
	}

	conn := h.hub.NewConnection(ws, runID)
	ws.SetReadLimit(h.cfg.MaxMessageSize)

	// Register before snapshotting the journal. Events are journaled
	// before they are broadcast, so anything the snapshot misses is
	// fanned out to the already-registered connection: a watcher may
	// see a frame twice, never a gap.
	h.hub.Register(conn)

	events, err := h.store.ListEvents(c.Request().Context(), runID)
	if err != nil {
		log.Printf("ERROR: failed to load journal for run %s: %v", runID, err)
	}
	for _, ev := range events {
		if len(ev.Payload) == 0 {
			continue
		}
		frame := append([]byte(`{"event":`), ev.Payload...)
		frame = append(frame, '}')
		if err := h.hub.SendToConnection(conn, frame); err != nil {
			log.Printf("WARN: watcher %s fell behind during replay", conn.ID)
			break
		}
	}

	go h.writePump(conn)
	go h.readPump(conn)

	return nil
}

// readPump drains the connection so pings and close frames are
// processed. Watchers never send application messages.
func (h *Handler) readPump(conn *hub.Connection) {
	defer func() {
		h.hub.Unregister(conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
		return nil
	})

	for {
		if _, _, err := conn.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump writes queued messages and keepalive pings.
func (h *Handler) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Failed to write message: %v", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
