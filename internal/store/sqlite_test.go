package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jonathansantilli/freemad/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := &Run{
		RunID:       "r1",
		Requirement: "sort a list",
		Status:      domain.RunStatusRunning,
		StartedAt:   time.Now(),
	}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	got, err := s.GetRun(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got == nil || got.Requirement != "sort a list" || got.Status != domain.RunStatusRunning {
		t.Fatalf("unexpected run: %+v", got)
	}
	if got.EndedAt != nil {
		t.Fatalf("running run should have no end time")
	}

	if err := s.FinishRun(ctx, "r1", domain.RunStatusFailed, "backend gone"); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	got, err = s.GetRun(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Status != domain.RunStatusFailed || got.Error != "backend gone" {
		t.Fatalf("unexpected finished run: %+v", got)
	}
	if got.EndedAt == nil {
		t.Fatalf("finished run should have an end time")
	}
}

func TestGetRunUnknown(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetRun(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown run, got %+v", got)
	}
}

func TestEventJournalOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, &Run{RunID: "r1", Requirement: "q", Status: domain.RunStatusRunning, StartedAt: time.Now()}); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	// Two events share a timestamp; insertion order must hold.
	events := []*Event{
		{EventID: "evt_1", RunID: "r1", Ts: 100, Kind: "run_started"},
		{EventID: "evt_2", RunID: "r1", Ts: 200, Kind: "agent_generate_started", Payload: json.RawMessage(`{"agent_id":"X"}`)},
		{EventID: "evt_3", RunID: "r1", Ts: 200, Kind: "agent_generate_started", Payload: json.RawMessage(`{"agent_id":"Y"}`)},
	}
	for _, ev := range events {
		if err := s.AppendEvent(ctx, ev); err != nil {
			t.Fatalf("AppendEvent failed: %v", err)
		}
	}

	got, err := s.ListEvents(ctx, "r1")
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	for i, want := range []string{"evt_1", "evt_2", "evt_3"} {
		if got[i].EventID != want {
			t.Fatalf("event %d: expected %s, got %s", i, want, got[i].EventID)
		}
	}
	if string(got[1].Payload) != `{"agent_id":"X"}` {
		t.Fatalf("unexpected payload: %s", got[1].Payload)
	}
}

func TestListEventsScopedByRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AppendEvent(ctx, &Event{EventID: "evt_a", RunID: "r1", Ts: 1, Kind: "run_started"}); err != nil {
		t.Fatalf("AppendEvent failed: %v", err)
	}
	if err := s.AppendEvent(ctx, &Event{EventID: "evt_b", RunID: "r2", Ts: 2, Kind: "run_started"}); err != nil {
		t.Fatalf("AppendEvent failed: %v", err)
	}

	got, err := s.ListEvents(ctx, "r1")
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(got) != 1 || got[0].EventID != "evt_a" {
		t.Fatalf("expected only r1 events, got %+v", got)
	}
}
