package domain

// AgentStatus is the observable state of one agent within a run.
type AgentStatus string

const (
	AgentWaiting    AgentStatus = "waiting"
	AgentGenerating AgentStatus = "generating"
	AgentCritiquing AgentStatus = "critiquing"
	AgentDone       AgentStatus = "done"
	AgentError      AgentStatus = "error"
)

// AgentState is the per-agent slice of a run snapshot. Agents are
// discovered lazily as events mention new identifiers; there is no
// pre-declared roster.
type AgentState struct {
	AgentID         string      `json:"agent_id"`
	Status          AgentStatus `json:"status"`
	CurrentAnswerID string      `json:"current_answer_id,omitempty"`
	ChangesCount    int         `json:"changes_count"`
	LastDecision    Decision    `json:"last_decision,omitempty"`
}

// RunSnapshot is the authoritative state of one run, maintained by
// folding events through engine.Apply. AgentOrder records discovery
// order, which is the tie-break order for winner determination.
type RunSnapshot struct {
	RunID         string                 `json:"run_id"`
	RoundIndex    *int                   `json:"round_index,omitempty"`
	RoundType     RoundType              `json:"round_type,omitempty"`
	Agents        map[string]*AgentState `json:"agents"`
	AgentOrder    []string               `json:"agent_order"`
	Scores        map[string]float64     `json:"scores"`
	Holders       map[string][]string    `json:"holders"`
	FinalAnswerID string                 `json:"final_answer_id,omitempty"`
	WinningAgents []string               `json:"winning_agents,omitempty"`
	Completed     bool                   `json:"completed"`
	Error         string                 `json:"error,omitempty"`
}

// NewSnapshot returns the initial snapshot for a run.
func NewSnapshot(runID string) *RunSnapshot {
	return &RunSnapshot{
		RunID:   runID,
		Agents:  make(map[string]*AgentState),
		Scores:  make(map[string]float64),
		Holders: make(map[string][]string),
	}
}

// Clone returns a deep copy so readers never observe the working copy.
func (s *RunSnapshot) Clone() *RunSnapshot {
	if s == nil {
		return nil
	}
	out := *s
	if s.RoundIndex != nil {
		idx := *s.RoundIndex
		out.RoundIndex = &idx
	}
	out.Agents = make(map[string]*AgentState, len(s.Agents))
	for id, a := range s.Agents {
		cp := *a
		out.Agents[id] = &cp
	}
	out.AgentOrder = append([]string(nil), s.AgentOrder...)
	out.Scores = make(map[string]float64, len(s.Scores))
	for k, v := range s.Scores {
		out.Scores[k] = v
	}
	out.Holders = make(map[string][]string, len(s.Holders))
	for k, v := range s.Holders {
		out.Holders[k] = append([]string(nil), v...)
	}
	out.WinningAgents = append([]string(nil), s.WinningAgents...)
	return &out
}
