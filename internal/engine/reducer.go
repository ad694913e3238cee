// Package engine maintains run snapshots by folding events and derives
// per-agent scores from answer scores and holder sets.
package engine

import "github.com/jonathansantilli/freemad/internal/domain"

// Apply folds one event into a snapshot and returns the resulting
// snapshot. It is pure: the input snapshot is never mutated, and events
// that change nothing (foreign run, unknown kind, missing agent id)
// return the input snapshot unchanged. It never fails: any event shape
// folds to either a new snapshot or the old one.
func Apply(s *domain.RunSnapshot, ev *domain.Event) *domain.RunSnapshot {
	if s == nil || ev == nil {
		return s
	}
	if ev.RunID != "" && ev.RunID != s.RunID {
		return s
	}

	switch ev.Kind {
	case domain.EventRoundStarted:
		next := s.Clone()
		next.RoundIndex = ev.RoundIndex
		next.RoundType = ev.RoundType
		return next

	case domain.EventAgentGenerateStarted:
		if ev.AgentID == "" {
			return s
		}
		next := s.Clone()
		updateAgent(next, ev.AgentID, agentUpdate{status: domain.AgentGenerating})
		return next

	case domain.EventAgentGenerateFinished:
		if ev.AgentID == "" {
			return s
		}
		next := s.Clone()
		updateAgent(next, ev.AgentID, agentUpdate{
			status:   domain.AgentWaiting,
			answerID: ev.AnswerID,
			decision: ev.Decision,
		})
		return next

	case domain.EventAgentCritiqueStarted:
		if ev.AgentID == "" {
			return s
		}
		next := s.Clone()
		updateAgent(next, ev.AgentID, agentUpdate{status: domain.AgentCritiquing})
		return next

	case domain.EventAgentCritiqueFinished:
		if ev.AgentID == "" {
			return s
		}
		next := s.Clone()
		updateAgent(next, ev.AgentID, agentUpdate{
			status:   domain.AgentWaiting,
			answerID: ev.AnswerID,
			decision: ev.Decision,
			changed:  ev.Changed != nil && *ev.Changed,
		})
		return next

	case domain.EventScoresUpdated:
		// Scores and holders are always published as a complete
		// snapshot; replace both wholesale, never merge.
		next := s.Clone()
		next.Scores = make(map[string]float64, len(ev.Scores))
		for k, v := range ev.Scores {
			next.Scores[k] = v
		}
		next.Holders = make(map[string][]string, len(ev.Holders))
		for k, v := range ev.Holders {
			next.Holders[k] = append([]string(nil), v...)
		}
		return next

	case domain.EventFinalAnswerSelected:
		next := s.Clone()
		next.FinalAnswerID = ev.FinalAnswerID
		next.WinningAgents = append([]string(nil), ev.WinningAgents...)
		return next

	case domain.EventRunCompleted, domain.EventRunFailed, domain.EventRunBudgetExceeded:
		next := s.Clone()
		next.Completed = true
		if ev.Error != "" {
			next.Error = ev.Error
		}
		return next
	}

	return s
}

// agentUpdate is a partial update: nil pointer fields preserve the
// agent's prior value rather than overwriting it.
type agentUpdate struct {
	status   domain.AgentStatus
	answerID *string
	decision *domain.Decision
	changed  bool
}

func updateAgent(s *domain.RunSnapshot, agentID string, up agentUpdate) {
	a, ok := s.Agents[agentID]
	if !ok {
		a = &domain.AgentState{AgentID: agentID, Status: domain.AgentWaiting}
		s.Agents[agentID] = a
		s.AgentOrder = append(s.AgentOrder, agentID)
	}
	if up.status != "" {
		a.Status = up.status
	}
	if up.answerID != nil {
		a.CurrentAnswerID = *up.answerID
	}
	if up.decision != nil {
		a.LastDecision = *up.decision
	}
	if up.changed {
		a.ChangesCount++
	}
}
