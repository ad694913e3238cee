// Package session owns the lifecycle of live runs being watched: one
// controller per run folds inbound events into the run snapshot,
// recomputes derived views, journals events, and fans envelopes out to
// watchers.
package session

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathansantilli/freemad/internal/domain"
	"github.com/jonathansantilli/freemad/internal/engine"
	"github.com/jonathansantilli/freemad/internal/store"
	"github.com/jonathansantilli/freemad/internal/transcript"
)

// EventSource delivers one run's event envelopes in arrival order.
// The channel closes when the stream ends; Err reports why, if the
// close was not a normal end of stream.
type EventSource interface {
	Events() <-chan *domain.Envelope
	Err() error
	Close() error
}

// Journal records accepted events. Satisfied by *store.Store.
type Journal interface {
	AppendEvent(ctx context.Context, event *store.Event) error
	FinishRun(ctx context.Context, runID string, status domain.RunStatus, errMsg string) error
}

// Broadcaster fans raw envelopes out to watchers. Satisfied by *hub.Hub.
type Broadcaster interface {
	Broadcast(runID string, data []byte)
	CloseRun(runID string)
}

// View is the read-only projection of a live run: an immutable
// snapshot copy plus the derived score map, winner, and transcript.
type View struct {
	Snapshot *domain.RunSnapshot      `json:"snapshot"`
	Scores   map[string]float64       `json:"scores"`
	Winner   string                   `json:"winner,omitempty"`
	Entries  []domain.TranscriptEntry `json:"entries"`
}

// Controller owns exactly one run's snapshot. It is the only writer;
// readers get copies via View.
type Controller struct {
	runID       string
	source      EventSource
	journal     Journal
	broadcaster Broadcaster

	mu      sync.RWMutex
	snap    *domain.RunSnapshot
	scores  map[string]float64
	entries []domain.TranscriptEntry

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewController creates a controller for a run. journal and
// broadcaster may be nil (used by the CLI watcher and in tests).
func NewController(runID string, source EventSource, journal Journal, broadcaster Broadcaster) *Controller {
	return &Controller{
		runID:       runID,
		source:      source,
		journal:     journal,
		broadcaster: broadcaster,
		snap:        domain.NewSnapshot(runID),
		scores:      make(map[string]float64),
		done:        make(chan struct{}),
	}
}

// Start consumes the event source until a terminal event, source
// close, or cancellation.
func (c *Controller) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	go c.loop(ctx)
}

func (c *Controller) loop(ctx context.Context) {
	defer close(c.done)
	defer c.source.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-c.source.Events():
			if !ok {
				// Transport failure: surface as a terminal run error
				// without touching the last-known-good state.
				if err := c.source.Err(); err != nil {
					c.failTransport(ctx, err)
				}
				return
			}
			if terminal := c.apply(ctx, env); terminal {
				return
			}
		}
	}
}

// apply folds one envelope and refreshes the derived views. Returns
// true when the event was terminal for the run.
func (c *Controller) apply(ctx context.Context, env *domain.Envelope) bool {
	if env == nil || env.Event == nil {
		return false
	}
	ev := env.Event
	if ev.RunID != "" && ev.RunID != c.runID {
		return false
	}

	c.mu.Lock()
	next := engine.Apply(c.snap, ev)
	changed := next != c.snap
	c.snap = next
	if changed {
		c.scores = engine.AggregateScores(next)
	}
	if entry := transcript.FromEvent(ev); entry != nil {
		c.entries = append(c.entries, *entry)
	}
	c.mu.Unlock()

	// Journal by vocabulary, not by effect: run_started changes no
	// state but late joiners still need it replayed.
	if c.journal != nil && ev.Kind.Recognized() {
		c.journalEvent(ctx, ev)
	}
	if c.broadcaster != nil {
		if data, err := json.Marshal(env); err == nil {
			c.broadcaster.Broadcast(c.runID, data)
		}
	}

	if ev.Kind.Terminal() {
		c.finishRun(ctx, ev)
		if c.broadcaster != nil {
			c.broadcaster.CloseRun(c.runID)
		}
		return true
	}
	return false
}

func (c *Controller) journalEvent(ctx context.Context, ev *domain.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("ERROR: failed to marshal event for journal: %v", err)
		return
	}
	ts := ev.TsMs
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}
	record := &store.Event{
		EventID: "evt_" + uuid.New().String()[:8],
		RunID:   c.runID,
		Ts:      ts,
		Kind:    string(ev.Kind),
		Payload: payload,
	}
	if err := c.journal.AppendEvent(ctx, record); err != nil {
		log.Printf("ERROR: failed to journal event for run %s: %v", c.runID, err)
	}
}

func (c *Controller) finishRun(ctx context.Context, ev *domain.Event) {
	if c.journal == nil {
		return
	}
	status := domain.RunStatusDone
	if ev.Kind != domain.EventRunCompleted {
		status = domain.RunStatusFailed
	}
	if err := c.journal.FinishRun(ctx, c.runID, status, ev.Error); err != nil {
		log.Printf("ERROR: failed to mark run %s finished: %v", c.runID, err)
	}
}

// failTransport marks the snapshot terminal after a broken event
// channel. The snapshot keeps its last-known-good state.
func (c *Controller) failTransport(ctx context.Context, cause error) {
	log.Printf("WARN: event stream for run %s broke: %v", c.runID, cause)

	c.mu.Lock()
	if !c.snap.Completed {
		next := c.snap.Clone()
		next.Completed = true
		next.Error = "event stream interrupted: " + cause.Error()
		c.snap = next
	}
	c.mu.Unlock()

	if c.journal != nil {
		if err := c.journal.FinishRun(ctx, c.runID, domain.RunStatusFailed, cause.Error()); err != nil {
			log.Printf("ERROR: failed to mark run %s failed: %v", c.runID, err)
		}
	}
	if c.broadcaster != nil {
		c.broadcaster.CloseRun(c.runID)
	}
}

// View returns the current read-only projection. The snapshot is a
// deep copy; the working copy is never exposed.
func (c *Controller) View() *View {
	c.mu.RLock()
	defer c.mu.RUnlock()

	scores := make(map[string]float64, len(c.scores))
	for k, v := range c.scores {
		scores[k] = v
	}
	snap := c.snap.Clone()
	return &View{
		Snapshot: snap,
		Scores:   scores,
		Winner:   engine.Winner(snap, scores),
		Entries:  append([]domain.TranscriptEntry(nil), c.entries...),
	}
}

// RunID returns the run this controller owns.
func (c *Controller) RunID() string {
	return c.runID
}

// Done is closed once the controller has stopped consuming events.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Close stops event consumption and releases the subscription.
// A snapshot already rendered is never retroactively altered.
func (c *Controller) Close() {
	c.once.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
		c.source.Close()
	})
}
