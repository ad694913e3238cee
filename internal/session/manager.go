package session

import (
	"context"
	"sync"
)

// Manager tracks the controllers of all live runs currently being
// watched.
type Manager struct {
	mu          sync.RWMutex
	controllers map[string]*Controller
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		controllers: make(map[string]*Controller),
	}
}

// Track registers a controller and starts its event loop. When the
// loop ends the controller stays registered so late watchers can still
// read the final snapshot.
func (m *Manager) Track(ctx context.Context, c *Controller) {
	m.mu.Lock()
	m.controllers[c.RunID()] = c
	m.mu.Unlock()
	c.Start(ctx)
}

// Get returns the controller for a run, or nil when unknown.
func (m *Manager) Get(runID string) *Controller {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.controllers[runID]
}

// Remove drops a controller from tracking and closes it.
func (m *Manager) Remove(runID string) {
	m.mu.Lock()
	c := m.controllers[runID]
	delete(m.controllers, runID)
	m.mu.Unlock()
	if c != nil {
		c.Close()
	}
}

// CloseAll shuts down every tracked controller.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	controllers := make([]*Controller, 0, len(m.controllers))
	for _, c := range m.controllers {
		controllers = append(controllers, c)
	}
	m.controllers = make(map[string]*Controller)
	m.mu.Unlock()

	for _, c := range controllers {
		c.Close()
	}
}
