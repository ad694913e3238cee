package transcript

import (
	"fmt"
	"time"

	"github.com/jonathansantilli/freemad/internal/domain"
)

// FromEvent maps a live event to a transcript entry, or nil when the
// event produces no narrative. Events missing their correlating fields
// (no agent id, no round context) are silently dropped, never an error.
func FromEvent(ev *domain.Event) *domain.TranscriptEntry {
	if ev == nil {
		return nil
	}

	if ev.Kind == domain.EventRunStarted {
		return &domain.TranscriptEntry{
			ID:      fmt.Sprintf("%d-prep", ts(ev)),
			AgentID: "system",
			Round:   0,
			Kind:    domain.EntryGeneration,
			Content: "Agents are preparing to debate the question.",
		}
	}

	if ev.AgentID == "" || ev.RoundIndex == nil {
		return nil
	}
	round := *ev.RoundIndex

	switch ev.Kind {
	case domain.EventAgentGenerateStarted:
		return &domain.TranscriptEntry{
			ID:      fmt.Sprintf("%d-%s-gen-start", ts(ev), ev.AgentID),
			AgentID: ev.AgentID,
			Round:   round,
			Kind:    domain.EntryGeneration,
			Content: "Started generating an answer for the question.",
		}

	case domain.EventAgentGenerateFinished:
		return &domain.TranscriptEntry{
			ID:      fmt.Sprintf("%d-%s-gen", ts(ev), ev.AgentID),
			AgentID: ev.AgentID,
			Round:   round,
			Kind:    domain.EntryGeneration,
			Content: fmt.Sprintf("Completed initial answer (decision: %s).", decisionOf(ev)),
		}

	case domain.EventAgentCritiqueStarted:
		// Provisional until critique_finished reveals the decision.
		return &domain.TranscriptEntry{
			ID:      fmt.Sprintf("%d-%s-crit-start", ts(ev), ev.AgentID),
			AgentID: ev.AgentID,
			Round:   round,
			Kind:    domain.EntryAntiConform,
			Content: "Started critiquing peers' answers.",
		}

	case domain.EventAgentCritiqueFinished:
		changed := ev.Changed != nil && *ev.Changed
		decision := decisionOf(ev)
		content := fmt.Sprintf("Finished critique round (decision: %s).", decision)
		impact := 0.0
		if changed {
			content = fmt.Sprintf("Finished critique round (decision: %s, changed opinion).", decision)
			impact = 1
		}
		return &domain.TranscriptEntry{
			ID:          fmt.Sprintf("%d-%s-crit", ts(ev), ev.AgentID),
			AgentID:     ev.AgentID,
			Round:       round,
			Kind:        classify(domain.RoundCritique, changed, decision),
			Content:     content,
			ScoreImpact: impact,
		}
	}

	return nil
}

func ts(ev *domain.Event) int64 {
	if ev.TsMs != 0 {
		return ev.TsMs
	}
	return time.Now().UnixMilli()
}

func decisionOf(ev *domain.Event) string {
	if ev.Decision != nil {
		return string(*ev.Decision)
	}
	return string(domain.DecisionUnset)
}
