package transcripts

import (
	"sort"

	"github.com/jonathansantilli/freemad/internal/domain"
)

// ExplainSelection reconstructs the winner tie-break chain for a
// persisted run: max score, then max validator confidence among the
// tied answers, then lexicographically smallest answer id.
func ExplainSelection(rec *domain.TranscriptRecord) *domain.SelectionExplanation {
	if len(rec.Scores) == 0 {
		return &domain.SelectionExplanation{Reason: "no_scores"}
	}

	maxScore := 0.0
	first := true
	for _, v := range rec.Scores {
		if first || v > maxScore {
			maxScore = v
			first = false
		}
	}
	top := make([]string, 0, len(rec.Scores))
	for k, v := range rec.Scores {
		if v == maxScore {
			top = append(top, k)
		}
	}
	sort.Strings(top)

	score := maxScore
	chain := []domain.SelectionStep{
		{Step: "max_normalized_score", Winners: top, Value: &score},
	}
	if len(top) == 1 {
		return &domain.SelectionExplanation{Chain: chain}
	}

	maxConf := 0.0
	first = true
	for _, k := range top {
		if c := rec.ValidatorConfidence[k]; first || c > maxConf {
			maxConf = c
			first = false
		}
	}
	top2 := make([]string, 0, len(top))
	for _, k := range top {
		if rec.ValidatorConfidence[k] == maxConf {
			top2 = append(top2, k)
		}
	}
	conf := maxConf
	chain = append(chain, domain.SelectionStep{
		Step: "max_validator_confidence", Winners: top2, Value: &conf,
	})
	if len(top2) == 1 {
		return &domain.SelectionExplanation{Chain: chain}
	}

	sort.Strings(top2)
	chain = append(chain, domain.SelectionStep{
		Step: "lexicographic_answer_id", Winners: top2[:1],
	})
	return &domain.SelectionExplanation{Chain: chain}
}
