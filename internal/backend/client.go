// Package backend provides a client for the debate engine: an HTTP
// call to start a run and a websocket subscription to its event
// stream.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jonathansantilli/freemad/internal/domain"
)

// Client talks to the debate engine.
type Client struct {
	baseURL    string
	httpClient *http.Client
	dialer     *websocket.Dialer
}

// NewClient creates a new backend client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		dialer: websocket.DefaultDialer,
	}
}

// StartRunRequest is the payload for starting a debate run.
type StartRunRequest struct {
	Requirement string `json:"requirement"`
	MaxRounds   int    `json:"max_rounds,omitempty"`
	ConfigPath  string `json:"config_path,omitempty"`
}

// StartRunResponse is the backend's reply to a start request.
type StartRunResponse struct {
	RunID string `json:"run_id"`
}

// ErrorResponse represents an error response from the backend.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StartRun calls POST /runs on the backend and returns the new run id.
func (c *Client) StartRun(ctx context.Context, req *StartRunRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal start request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/runs", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		var errResp ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return "", fmt.Errorf("backend error: %s", errResp.Error)
		}
		return "", fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var startResp StartRunResponse
	if err := json.NewDecoder(resp.Body).Decode(&startResp); err != nil {
		return "", fmt.Errorf("failed to decode start response: %w", err)
	}
	if startResp.RunID == "" {
		return "", fmt.Errorf("backend returned empty run_id")
	}
	return startResp.RunID, nil
}

// Subscribe opens the run's websocket event stream. The returned
// subscription delivers envelopes until the stream ends or Close is
// called.
func (c *Client) Subscribe(ctx context.Context, runID string) (*Subscription, error) {
	wsURL, err := c.streamURL(runID)
	if err != nil {
		return nil, err
	}

	conn, _, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial event stream: %w", err)
	}

	sub := &Subscription{
		conn:   conn,
		events: make(chan *domain.Envelope, 64),
		done:   make(chan struct{}),
	}
	go sub.readLoop()
	return sub, nil
}

// streamURL converts the HTTP base URL into the run's ws endpoint.
func (c *Client) streamURL(runID string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid backend URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/runs/" + runID + "/events"
	return u.String(), nil
}

// Subscription is one run's live event stream.
type Subscription struct {
	conn   *websocket.Conn
	events chan *domain.Envelope
	err    error
	done   chan struct{}
	closed atomic.Bool
}

// Events returns the envelope channel. It closes when the stream ends.
func (s *Subscription) Events() <-chan *domain.Envelope {
	return s.events
}

// Err reports why the channel closed, or nil for a clean close.
func (s *Subscription) Err() error {
	<-s.done
	return s.err
}

// Close tears down the websocket connection. Marked before the
// connection drops so the read loop never reports the resulting close
// error as a transport failure.
func (s *Subscription) Close() error {
	s.closed.Store(true)
	return s.conn.Close()
}

func (s *Subscription) readLoop() {
	defer close(s.events)
	defer close(s.done)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.err = err
			}
			return
		}

		var env domain.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			// Skip malformed frames, the stream itself is still healthy.
			continue
		}
		s.events <- &env
	}
}
