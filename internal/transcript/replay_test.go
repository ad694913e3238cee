package transcript

import (
	"fmt"
	"testing"

	"github.com/jonathansantilli/freemad/internal/domain"
)

func sampleRecord() *domain.TranscriptRecord {
	conf := 0.9
	return &domain.TranscriptRecord{
		FinalSolution: "use a queue",
		FinalAnswerID: "a2",
		Transcript: []domain.RoundRecord{
			{
				Round: 1,
				Type:  domain.RoundGeneration,
				Agents: map[string]domain.RoundAgentRecord{
					"X": {Response: domain.AgentResponse{Solution: "use a stack", AnswerID: "a1", Decision: "KEEP"}},
					"Y": {Response: domain.AgentResponse{Solution: "use a queue", AnswerID: "a2", Decision: "KEEP"}},
				},
			},
			{
				Round: 2,
				Type:  domain.RoundCritique,
				Agents: map[string]domain.RoundAgentRecord{
					"X": {
						Response:       domain.AgentResponse{Reasoning: "queue handles order better", AnswerID: "a2", Decision: "REVISE", Changed: true},
						PeersSeenCount: 1,
					},
					"Y": {
						Response:       domain.AgentResponse{Reasoning: "still the best option", AnswerID: "a2", Decision: "KEEP"},
						PeersSeenCount: 1,
					},
				},
			},
		},
		Scores: map[string]float64{"a2": 7},
		Validation: map[string]map[string]domain.ValidationResult{
			"a2": {
				"syntax": {Passed: true, Confidence: &conf},
			},
		},
	}
}

func TestFromRecordEntries(t *testing.T) {
	bundle := FromRecord(sampleRecord())

	if len(bundle.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(bundle.Entries))
	}

	// Round-major, agents sorted within each round.
	order := []struct {
		agent string
		round int
		kind  domain.EntryKind
	}{
		{"X", 1, domain.EntryGeneration},
		{"Y", 1, domain.EntryGeneration},
		{"X", 2, domain.EntryAntiConform},
		{"Y", 2, domain.EntryConformity},
	}
	for i, want := range order {
		e := bundle.Entries[i]
		if e.AgentID != want.agent || e.Round != want.round || e.Kind != want.kind {
			t.Fatalf("entry %d: got %s/r%d/%s, want %s/r%d/%s",
				i, e.AgentID, e.Round, e.Kind, want.agent, want.round, want.kind)
		}
	}
}

func TestFromRecordHoldersAndScores(t *testing.T) {
	bundle := FromRecord(sampleRecord())

	holders := bundle.AnswerHolders["a2"]
	if len(holders) != 2 || holders[0] != "X" || holders[1] != "Y" {
		t.Fatalf("both agents should hold a2: %v", holders)
	}
	if bundle.ScoresByAgent["X"] != 7 || bundle.ScoresByAgent["Y"] != 7 {
		t.Fatalf("expected X=7 Y=7, got %+v", bundle.ScoresByAgent)
	}
}

func TestFromRecordValidationFollowsLatestAnswer(t *testing.T) {
	bundle := FromRecord(sampleRecord())

	for _, agent := range []string{"X", "Y"} {
		checks := bundle.ValidationByAgent[agent]
		if len(checks) != 1 || checks[0].Name != "syntax" || !checks[0].Passed {
			t.Fatalf("%s: unexpected validation checks: %+v", agent, checks)
		}
		if checks[0].Errors == nil || checks[0].Warnings == nil {
			t.Fatalf("%s: error/warning lists must be non-nil", agent)
		}
	}
}

func TestFromRecordLatestAnswerOverwrites(t *testing.T) {
	// A critique round that records no answer id clears the agent's
	// latest-answer mapping, so the agent drops out of the holder and
	// score indexes.
	rec := sampleRecord()
	rec.Transcript = append(rec.Transcript, domain.RoundRecord{
		Round: 3,
		Type:  domain.RoundCritique,
		Agents: map[string]domain.RoundAgentRecord{
			"X": {Response: domain.AgentResponse{Reasoning: "no further comment", Decision: "KEEP"}},
		},
	})

	bundle := FromRecord(rec)
	holders := bundle.AnswerHolders["a2"]
	if len(holders) != 1 || holders[0] != "Y" {
		t.Fatalf("X should have dropped off a2: %v", holders)
	}
	if bundle.ScoresByAgent["X"] != 0 {
		t.Fatalf("X without a latest answer should score 0, got %v", bundle.ScoresByAgent["X"])
	}
}

func TestFromRecordCritiques(t *testing.T) {
	bundle := FromRecord(sampleRecord())

	crits := bundle.CritiquesByAgent["X"]
	if len(crits) != 1 {
		t.Fatalf("expected one critique for X, got %d", len(crits))
	}
	c := crits[0]
	if c.Round != 2 || c.Decision != "REVISE" || !c.Changed || c.PeersSeenCount != 1 {
		t.Fatalf("unexpected critique: %+v", c)
	}
	if len(bundle.CritiquesByAgent["Y"]) != 1 {
		t.Fatalf("expected one critique for Y")
	}
}

func TestFromRecordEmptyAndNil(t *testing.T) {
	bundle := FromRecord(nil)
	if bundle == nil || len(bundle.Entries) != 0 {
		t.Fatalf("nil record should produce an empty bundle")
	}

	bundle = FromRecord(&domain.TranscriptRecord{})
	if len(bundle.Entries) != 0 || len(bundle.ScoresByAgent) != 0 {
		t.Fatalf("empty record should produce an empty bundle: %+v", bundle)
	}
}

// The replay classification must agree with the live one on matching
// (agent, round) actions, so a run reads the same from history as it
// did live.
func TestLiveAndReplayClassificationAgree(t *testing.T) {
	rec := sampleRecord()
	bundle := FromRecord(rec)

	liveEvents := []*domain.Event{
		{Kind: domain.EventAgentGenerateFinished, TsMs: 1, AgentID: "X", RoundIndex: intp(1), Decision: decp(domain.DecisionKeep)},
		{Kind: domain.EventAgentGenerateFinished, TsMs: 2, AgentID: "Y", RoundIndex: intp(1), Decision: decp(domain.DecisionKeep)},
		{Kind: domain.EventAgentCritiqueFinished, TsMs: 3, AgentID: "X", RoundIndex: intp(2), Decision: decp(domain.DecisionRevise), Changed: boolp(true)},
		{Kind: domain.EventAgentCritiqueFinished, TsMs: 4, AgentID: "Y", RoundIndex: intp(2), Decision: decp(domain.DecisionKeep), Changed: boolp(false)},
	}

	liveKinds := make(map[string]domain.EntryKind)
	for _, ev := range liveEvents {
		entry := FromEvent(ev)
		if entry == nil {
			t.Fatalf("live event produced no entry: %+v", ev)
		}
		liveKinds[key(entry.AgentID, entry.Round)] = entry.Kind
	}

	for _, entry := range bundle.Entries {
		want, ok := liveKinds[key(entry.AgentID, entry.Round)]
		if !ok {
			t.Fatalf("replay entry with no live counterpart: %+v", entry)
		}
		if entry.Kind != want {
			t.Fatalf("classification mismatch for %s r%d: replay=%s live=%s",
				entry.AgentID, entry.Round, entry.Kind, want)
		}
	}
}

func key(agentID string, round int) string {
	return fmt.Sprintf("%s/%d", agentID, round)
}
