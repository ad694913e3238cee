// Package domain defines the core domain models for the dashboard service.
package domain

// EventKind identifies the type of a run event.
type EventKind string

const (
	EventRunStarted            EventKind = "run_started"
	EventRunCompleted          EventKind = "run_completed"
	EventRunFailed             EventKind = "run_failed"
	EventRunBudgetExceeded     EventKind = "run_budget_exceeded"
	EventRoundStarted          EventKind = "round_started"
	EventRoundCompleted        EventKind = "round_completed"
	EventAgentGenerateStarted  EventKind = "agent_generate_started"
	EventAgentGenerateFinished EventKind = "agent_generate_finished"
	EventAgentCritiqueStarted  EventKind = "agent_critique_started"
	EventAgentCritiqueFinished EventKind = "agent_critique_finished"
	EventScoresUpdated         EventKind = "scores_updated"
	EventFinalAnswerSelected   EventKind = "final_answer_selected"
)

// Terminal reports whether the kind ends a run.
func (k EventKind) Terminal() bool {
	switch k {
	case EventRunCompleted, EventRunFailed, EventRunBudgetExceeded:
		return true
	}
	return false
}

// Recognized reports whether the kind is part of the event vocabulary.
// Anything else (including the backend's heartbeat fillers) is a no-op
// for the reducer and is not journaled.
func (k EventKind) Recognized() bool {
	switch k {
	case EventRunStarted, EventRunCompleted, EventRunFailed, EventRunBudgetExceeded,
		EventRoundStarted, EventRoundCompleted,
		EventAgentGenerateStarted, EventAgentGenerateFinished,
		EventAgentCritiqueStarted, EventAgentCritiqueFinished,
		EventScoresUpdated, EventFinalAnswerSelected:
		return true
	}
	return false
}

// Decision is an agent's stance on an answer after critique.
type Decision string

const (
	DecisionKeep   Decision = "KEEP"
	DecisionReject Decision = "REJECT"
	DecisionRevise Decision = "REVISE"
	DecisionUnset  Decision = "UNSET"
)

// RoundType identifies the phase of a debate round.
type RoundType string

const (
	RoundGeneration RoundType = "generation"
	RoundCritique   RoundType = "critique"
	RoundValidation RoundType = "validation"
)

// Event is a single run event as delivered by the debate backend.
//
// Fields irrelevant to a kind are simply absent; pointer fields
// distinguish "not supplied" from a zero value so the reducer can
// merge agent updates without clobbering prior state.
type Event struct {
	Kind           EventKind           `json:"kind,omitempty"`
	RunID          string              `json:"run_id,omitempty"`
	TsMs           int64               `json:"ts_ms,omitempty"`
	RoundIndex     *int                `json:"round_index,omitempty"`
	RoundType      RoundType           `json:"round_type,omitempty"`
	AgentID        string              `json:"agent_id,omitempty"`
	AnswerID       *string             `json:"answer_id,omitempty"`
	Decision       *Decision           `json:"decision,omitempty"`
	Changed        *bool               `json:"changed,omitempty"`
	Scores         map[string]float64  `json:"scores,omitempty"`
	Holders        map[string][]string `json:"holders,omitempty"`
	WinningAgents  []string            `json:"winning_agents,omitempty"`
	FinalAnswerID  string              `json:"final_answer_id,omitempty"`
	SelectionChain []SelectionStep     `json:"selection_chain,omitempty"`
	Error          string              `json:"error,omitempty"`
}

// Envelope wraps an event on the wire. Envelopes without an event
// field are ignored by consumers.
type Envelope struct {
	Event *Event `json:"event,omitempty"`
}

// RunStatus tracks a live run in the journal.
type RunStatus string

const (
	RunStatusRunning RunStatus = "RUNNING"
	RunStatusDone    RunStatus = "DONE"
	RunStatusFailed  RunStatus = "FAILED"
)
