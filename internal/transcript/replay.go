package transcript

import (
	"fmt"
	"sort"

	"github.com/jonathansantilli/freemad/internal/domain"
)

// FromRecord reconstructs the full view of a persisted run in one
// pass: transcript entries (round-major, agents sorted within a round
// for determinism), per-agent solution summaries, critique histories,
// answer-holder and validation indexes, and per-agent scores.
//
// Parse gaps are defaulted: a round entry with no usable solution or
// reasoning text is omitted from the transcript rather than erroring.
func FromRecord(rec *domain.TranscriptRecord) *domain.ReplayBundle {
	bundle := &domain.ReplayBundle{
		SolutionsByAgent:  make(map[string]domain.SolutionSummary),
		CritiquesByAgent:  make(map[string][]domain.CritiqueEntry),
		ValidationByAgent: make(map[string][]domain.ValidationCheck),
		AnswerHolders:     make(map[string][]string),
		ScoresByAgent:     make(map[string]float64),
	}
	if rec == nil {
		return bundle
	}

	bundle.WinningAgents = append([]string(nil), rec.WinningAgents...)
	bundle.FinalSolution = rec.FinalSolution

	// Each agent's most recent answer id across rounds, including
	// rounds that recorded no answer id. The validation and holder
	// indexes below key off this latest-answer tracking.
	latestAnswer := make(map[string]string)
	agentIDs := make(map[string]bool)

	for _, round := range rec.Transcript {
		for _, agentID := range sortedAgents(round.Agents) {
			agRec := round.Agents[agentID]
			resp := agRec.Response
			agentIDs[agentID] = true
			latestAnswer[agentID] = resp.AnswerID

			solution := resp.Solution
			reasoning := resp.Reasoning
			if reasoning == "" {
				reasoning = solution
			}

			if solution != "" || reasoning != "" {
				bundle.SolutionsByAgent[agentID] = domain.SolutionSummary{
					Solution:  solution,
					Reasoning: reasoning,
				}
				bundle.Entries = append(bundle.Entries, domain.TranscriptEntry{
					ID:      fmt.Sprintf("t-%d-%s-%d", round.Round, agentID, len(bundle.Entries)),
					AgentID: agentID,
					Round:   round.Round,
					Kind:    classify(round.Type, resp.Changed, resp.Decision),
					Content: entryContent(round.Type, agRec),
				})
			}

			if round.Type == domain.RoundCritique {
				bundle.CritiquesByAgent[agentID] = append(bundle.CritiquesByAgent[agentID], domain.CritiqueEntry{
					Round:              round.Round,
					Decision:           resp.Decision,
					Changed:            resp.Changed,
					Reasoning:          reasoning,
					TargetAnswerID:     resp.AnswerID,
					PeersAssignedCount: agRec.PeersAssignedCount,
					PeersSeenCount:     agRec.PeersSeenCount,
				})
			}
		}
	}

	for agentID, answerID := range latestAnswer {
		if answerID == "" {
			continue
		}
		bundle.AnswerHolders[answerID] = append(bundle.AnswerHolders[answerID], agentID)
		if score, ok := rec.Scores[answerID]; ok {
			bundle.ScoresByAgent[agentID] = score
		}
		if validators, ok := rec.Validation[answerID]; ok {
			bundle.ValidationByAgent[agentID] = checksOf(validators)
		}
	}
	for answerID := range bundle.AnswerHolders {
		sort.Strings(bundle.AnswerHolders[answerID])
	}
	for agentID := range agentIDs {
		if _, ok := bundle.ScoresByAgent[agentID]; !ok {
			bundle.ScoresByAgent[agentID] = 0
		}
	}

	return bundle
}

func entryContent(roundType domain.RoundType, agRec domain.RoundAgentRecord) string {
	resp := agRec.Response
	reasoning := resp.Reasoning
	if reasoning == "" {
		reasoning = resp.Solution
	}
	if roundType == domain.RoundGeneration {
		body := resp.Solution
		if body == "" {
			body = reasoning
		}
		return "Provided an initial answer to the question.\n\n" + body
	}
	peerInfo := ""
	if agRec.PeersSeenCount > 0 {
		peerInfo = fmt.Sprintf(" after reviewing %d peer answer(s)", agRec.PeersSeenCount)
	}
	return fmt.Sprintf("Submitted a critique%s.\n\n%s", peerInfo, reasoning)
}

func checksOf(validators map[string]domain.ValidationResult) []domain.ValidationCheck {
	names := make([]string, 0, len(validators))
	for name := range validators {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make([]domain.ValidationCheck, 0, len(names))
	for _, name := range names {
		v := validators[name]
		errs := v.Errors
		if errs == nil {
			errs = []string{}
		}
		warns := v.Warnings
		if warns == nil {
			warns = []string{}
		}
		checks = append(checks, domain.ValidationCheck{
			Name:       name,
			Passed:     v.Passed,
			Confidence: v.Confidence,
			Errors:     errs,
			Warnings:   warns,
			Metrics:    v.Metrics,
		})
	}
	return checks
}

func sortedAgents(agents map[string]domain.RoundAgentRecord) []string {
	ids := make([]string, 0, len(agents))
	for id := range agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
