// Package hub provides connection management for websocket watchers.
package hub

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connection represents a single watcher connection, bound to one run.
type Connection struct {
	ID    string
	RunID string
	Conn  *websocket.Conn
	Send  chan []byte
	mu    sync.Mutex

	sendMu     sync.Mutex
	sendClosed bool
}

// push queues data for the write pump. Safe against a concurrently
// closed send channel: replay pushes race run-close fanout.
func (c *Connection) push(data []byte) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return ErrConnectionClosed
	}
	select {
	case c.Send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// closeSend closes the send channel exactly once.
func (c *Connection) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.sendClosed {
		c.sendClosed = true
		close(c.Send)
	}
}

// Hub manages all watcher connections, indexed by run.
type Hub struct {
	// Connections indexed by connection ID
	connections map[string]*Connection

	// Runs maps run_id to set of connection IDs
	runs map[string]map[string]bool

	register   chan *Connection
	unregister chan *Connection

	// Broadcast channel for sending to all watchers of a run
	broadcast chan *RunMessage

	mu sync.RWMutex
}

// RunMessage is used to broadcast a message to a run's watchers.
type RunMessage struct {
	RunID string
	Data  []byte
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		runs:        make(map[string]map[string]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *RunMessage, 256),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn.ID] = conn
			if conn.RunID != "" {
				if h.runs[conn.RunID] == nil {
					h.runs[conn.RunID] = make(map[string]bool)
				}
				h.runs[conn.RunID][conn.ID] = true
			}
			h.mu.Unlock()
			log.Printf("Watcher registered: %s (run: %s)", conn.ID, conn.RunID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn.ID]; ok {
				delete(h.connections, conn.ID)
				if conn.RunID != "" && h.runs[conn.RunID] != nil {
					delete(h.runs[conn.RunID], conn.ID)
					if len(h.runs[conn.RunID]) == 0 {
						delete(h.runs, conn.RunID)
					}
				}
				conn.closeSend()
			}
			h.mu.Unlock()
			log.Printf("Watcher unregistered: %s", conn.ID)

		case msg := <-h.broadcast:
			// A nil payload closes the run's watchers. Routed through
			// the broadcast channel so it orders after the terminal
			// event's fanout.
			if msg.Data == nil {
				h.mu.Lock()
				for connID := range h.runs[msg.RunID] {
					if conn, exists := h.connections[connID]; exists {
						delete(h.connections, connID)
						conn.closeSend()
					}
				}
				delete(h.runs, msg.RunID)
				h.mu.Unlock()
				log.Printf("Run %s closed, watchers disconnected", msg.RunID)
				continue
			}

			h.mu.RLock()
			if connIDs, ok := h.runs[msg.RunID]; ok {
				for connID := range connIDs {
					if conn, exists := h.connections[connID]; exists {
						if err := conn.push(msg.Data); err == ErrBufferFull {
							// Buffer full, close the connection
							log.Printf("Watcher %s buffer full, closing", connID)
							go h.Unregister(conn)
						}
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// NewConnection creates a new connection bound to a run.
func (h *Hub) NewConnection(ws *websocket.Conn, runID string) *Connection {
	return &Connection{
		ID:    "conn_" + uuid.New().String()[:8],
		RunID: runID,
		Conn:  ws,
		Send:  make(chan []byte, 256),
	}
}

// Register registers a connection with the hub.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister unregisters a connection from the hub.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Broadcast sends a message to all watchers of a run.
func (h *Hub) Broadcast(runID string, data []byte) {
	h.broadcast <- &RunMessage{RunID: runID, Data: data}
}

// CloseRun disconnects all watchers of a run after any queued
// broadcasts for it have been delivered.
func (h *Hub) CloseRun(runID string) {
	h.broadcast <- &RunMessage{RunID: runID}
}

// SendToConnection sends a message to a specific connection.
func (h *Hub) SendToConnection(conn *Connection, data []byte) error {
	return conn.push(data)
}

// GetConnectionCount returns the number of active connections.
func (h *Hub) GetConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// WriteMessage writes a message to the connection with proper locking.
func (c *Connection) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// SetWriteDeadline sets the write deadline for the connection.
func (c *Connection) SetWriteDeadline(t time.Time) error {
	return c.Conn.SetWriteDeadline(t)
}

// SetReadDeadline sets the read deadline for the connection.
func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.Conn.SetReadDeadline(t)
}

// Close closes the underlying connection.
func (c *Connection) Close() error {
	return c.Conn.Close()
}

// ErrBufferFull is returned when the send buffer is full.
var ErrBufferFull = &BufferFullError{}

// ErrConnectionClosed is returned when sending to a connection whose
// send channel has already been closed.
var ErrConnectionClosed = errors.New("connection closed")

// BufferFullError represents a buffer full error.
type BufferFullError struct{}

func (e *BufferFullError) Error() string {
	return "send buffer full"
}
