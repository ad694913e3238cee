package engine

import "github.com/jonathansantilli/freemad/internal/domain"

// AggregateScores derives a per-agent scalar score from the snapshot's
// answer scores and holder sets. An agent may hold several scored
// answers across rounds; its displayed score is the maximum. Agents
// with no scored answer default to 0. Holder entries without a
// matching score contribute nothing.
//
// This is a full recomputation on every call, never incremental, so it
// cannot drift from the wholesale-replaced score payloads.
func AggregateScores(s *domain.RunSnapshot) map[string]float64 {
	perAgent := make(map[string]float64, len(s.Agents))

	for answerID, score := range s.Scores {
		for _, agentID := range s.Holders[answerID] {
			prev, ok := perAgent[agentID]
			if !ok || score > prev {
				perAgent[agentID] = score
			}
		}
	}

	for _, agentID := range s.AgentOrder {
		if _, ok := perAgent[agentID]; !ok {
			perAgent[agentID] = 0
		}
	}

	return perAgent
}

// Winner determines the run's winning agent. An explicit selection
// always wins; otherwise the agent with the highest aggregated score,
// with ties broken by discovery order (first event that mentioned the
// agent), not by identifier sort. Returns "" when no agents are known.
func Winner(s *domain.RunSnapshot, scores map[string]float64) string {
	if len(s.WinningAgents) > 0 {
		return s.WinningAgents[0]
	}
	best := ""
	bestScore := 0.0
	for _, agentID := range s.AgentOrder {
		score := scores[agentID]
		if best == "" || score > bestScore {
			best = agentID
			bestScore = score
		}
	}
	return best
}
