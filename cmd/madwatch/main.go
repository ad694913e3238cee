// Package main provides a terminal watcher for live debate runs.
// It starts a run (or attaches to one) through the dashboard server
// and folds the event stream into a readable transcript.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/jonathansantilli/freemad/internal/domain"
	"github.com/jonathansantilli/freemad/internal/engine"
	"github.com/jonathansantilli/freemad/internal/transcript"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "dashboard server address")
	requirement := flag.String("requirement", "", "requirement to start a new run with")
	rounds := flag.Int("rounds", 0, "max debate rounds (0 for backend default)")
	runID := flag.String("run", "", "attach to an existing run instead of starting one")
	flag.Parse()

	log.SetFlags(log.Ltime)

	if *requirement == "" && *runID == "" {
		log.Fatal("either -requirement or -run is required")
	}

	id := *runID
	if id == "" {
		var err error
		id, err = startRun(*server, *requirement, *rounds)
		if err != nil {
			log.Fatalf("Failed to start run: %v", err)
		}
		fmt.Printf("Run started: %s\n", id)
	}

	wsURL, err := watchURL(*server, id)
	if err != nil {
		log.Fatalf("Bad server address: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	fmt.Printf("Watching run %s (Ctrl+C to stop)\n\n", id)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	snap := domain.NewSnapshot(id)

	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("Read error: %v", err)
				}
				return
			}

			var env domain.Envelope
			if err := json.Unmarshal(data, &env); err != nil || env.Event == nil {
				continue
			}

			snap = engine.Apply(snap, env.Event)
			if entry := transcript.FromEvent(env.Event); entry != nil {
				printEntry(entry)
			}
			if env.Event.Kind.Terminal() {
				printFinal(snap)
				return
			}
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		fmt.Println("\nInterrupted")
	}
}

// startRun asks the dashboard server for a new run.
func startRun(server, requirement string, rounds int) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"requirement": requirement,
		"max_rounds":  rounds,
	})
	if err != nil {
		return "", err
	}

	resp, err := http.Post(strings.TrimSuffix(server, "/")+"/api/live-runs", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var reply struct {
		RunID string `json:"run_id"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server returned %d: %s", resp.StatusCode, reply.Error)
	}
	return reply.RunID, nil
}

// watchURL converts the server address into the run's ws endpoint.
func watchURL(server, runID string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/live-runs/" + runID
	return u.String(), nil
}

func printEntry(entry *domain.TranscriptEntry) {
	who := entry.AgentID
	if who == "" {
		who = "system"
	}
	fmt.Printf("[r%d] %-16s %-15s %s\n", entry.Round, who, entry.Kind, entry.Content)
}

func printFinal(snap *domain.RunSnapshot) {
	scores := engine.AggregateScores(snap)
	winner := engine.Winner(snap, scores)

	fmt.Println("\nFinal scores:")
	agents := make([]string, 0, len(scores))
	for a := range scores {
		agents = append(agents, a)
	}
	sort.Strings(agents)
	for _, a := range agents {
		marker := " "
		if a == winner {
			marker = "*"
		}
		fmt.Printf("  %s %-16s %.2f\n", marker, a, scores[a])
	}

	if snap.FinalAnswerID != "" {
		fmt.Printf("\nFinal answer: %s\n", snap.FinalAnswerID)
	}
	if snap.Error != "" {
		fmt.Printf("Run failed: %s\n", snap.Error)
	}
}
