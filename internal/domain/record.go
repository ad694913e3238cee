package domain

import "encoding/json"

// EntryKind classifies a transcript entry.
type EntryKind string

const (
	EntryGeneration  EntryKind = "generation"
	EntryConformity  EntryKind = "conformity"
	EntryAntiConform EntryKind = "anti-conformity"
)

// TranscriptEntry is a derived, human-readable narrative item describing
// one agent action in one round. Append-only on the live path; fully
// regenerated on the replay path.
type TranscriptEntry struct {
	ID          string    `json:"id"`
	AgentID     string    `json:"agent_id"`
	Round       int       `json:"round"`
	Kind        EntryKind `json:"kind"`
	Content     string    `json:"content"`
	ScoreImpact float64   `json:"score_impact"`
}

// AgentResponse is one agent's recorded output for one round of a
// persisted transcript.
type AgentResponse struct {
	Solution  string `json:"solution,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Changed   bool   `json:"changed,omitempty"`
	AnswerID  string `json:"answer_id,omitempty"`
}

// RoundAgentRecord wraps an agent's response with critique metadata.
type RoundAgentRecord struct {
	Response           AgentResponse `json:"response"`
	PeersAssignedCount int           `json:"peers_assigned_count,omitempty"`
	PeersSeenCount     int           `json:"peers_seen_count,omitempty"`
}

// RoundRecord is one round of a persisted transcript.
type RoundRecord struct {
	Round  int                         `json:"round"`
	Type   RoundType                   `json:"type"`
	Agents map[string]RoundAgentRecord `json:"agents"`
}

// ValidationResult is one validator's verdict on one answer.
type ValidationResult struct {
	Passed     bool                       `json:"passed"`
	Confidence *float64                   `json:"confidence,omitempty"`
	Errors     []string                   `json:"errors,omitempty"`
	Warnings   []string                   `json:"warnings,omitempty"`
	Metrics    map[string]json.RawMessage `json:"metrics,omitempty"`
}

// ValidationCheck is a named validation result, as presented per agent.
type ValidationCheck struct {
	Name       string                     `json:"name"`
	Passed     bool                       `json:"passed"`
	Confidence *float64                   `json:"confidence,omitempty"`
	Errors     []string                   `json:"errors"`
	Warnings   []string                   `json:"warnings"`
	Metrics    map[string]json.RawMessage `json:"metrics,omitempty"`
}

// SelectionStep is one step of the winner-selection explanation chain.
type SelectionStep struct {
	Step    string   `json:"step"`
	Winners []string `json:"winners"`
	Value   *float64 `json:"value,omitempty"`
}

// SelectionExplanation mirrors the backend tie-break chain:
// score, then validator confidence, then lexicographic answer id.
type SelectionExplanation struct {
	Reason string          `json:"reason,omitempty"`
	Chain  []SelectionStep `json:"chain,omitempty"`
}

// TranscriptRecord is a persisted run transcript as written by the
// debate backend. Missing fields are defaulted, never fatal.
type TranscriptRecord struct {
	FinalSolution       string                                 `json:"final_solution,omitempty"`
	FinalAnswerID       string                                 `json:"final_answer_id,omitempty"`
	WinningAgents       []string                               `json:"winning_agents,omitempty"`
	Transcript          []RoundRecord                          `json:"transcript,omitempty"`
	Validation          map[string]map[string]ValidationResult `json:"validation,omitempty"`
	Scores              map[string]float64                     `json:"scores,omitempty"`
	ValidatorConfidence map[string]float64                     `json:"validator_confidence,omitempty"`
	Metrics             map[string]json.RawMessage             `json:"metrics,omitempty"`
}

// SolutionSummary is an agent's latest solution and reasoning text.
type SolutionSummary struct {
	Solution  string `json:"solution"`
	Reasoning string `json:"reasoning"`
}

// CritiqueEntry captures one agent's critique in one round.
type CritiqueEntry struct {
	Round              int    `json:"round"`
	Decision           string `json:"decision"`
	Changed            bool   `json:"changed"`
	Reasoning          string `json:"reasoning"`
	TargetAnswerID     string `json:"target_answer_id,omitempty"`
	PeersAssignedCount int    `json:"peers_assigned_count"`
	PeersSeenCount     int    `json:"peers_seen_count"`
}

// ReplayBundle is the full reconstruction of a persisted run, shaped to
// be structurally compatible with the live view.
type ReplayBundle struct {
	Entries           []TranscriptEntry            `json:"entries"`
	SolutionsByAgent  map[string]SolutionSummary   `json:"solutions_by_agent"`
	CritiquesByAgent  map[string][]CritiqueEntry   `json:"critiques_by_agent"`
	ValidationByAgent map[string][]ValidationCheck `json:"validation_by_agent"`
	AnswerHolders     map[string][]string          `json:"answer_holders"`
	ScoresByAgent     map[string]float64           `json:"scores_by_agent"`
	WinningAgents     []string                     `json:"winning_agents"`
	FinalSolution     string                       `json:"final_solution,omitempty"`
}
