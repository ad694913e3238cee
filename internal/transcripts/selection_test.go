package transcripts

import (
	"testing"

	"github.com/jonathansantilli/freemad/internal/domain"
)

func TestExplainSelectionNoScores(t *testing.T) {
	exp := ExplainSelection(&domain.TranscriptRecord{})
	if exp.Reason != "no_scores" || len(exp.Chain) != 0 {
		t.Fatalf("unexpected explanation: %+v", exp)
	}
}

func TestExplainSelectionClearWinner(t *testing.T) {
	exp := ExplainSelection(&domain.TranscriptRecord{
		Scores: map[string]float64{"a1": 3, "a2": 7},
	})
	if len(exp.Chain) != 1 {
		t.Fatalf("expected single-step chain, got %+v", exp.Chain)
	}
	step := exp.Chain[0]
	if step.Step != "max_normalized_score" {
		t.Fatalf("unexpected step: %s", step.Step)
	}
	if len(step.Winners) != 1 || step.Winners[0] != "a2" {
		t.Fatalf("unexpected winners: %v", step.Winners)
	}
	if step.Value == nil || *step.Value != 7 {
		t.Fatalf("unexpected value: %v", step.Value)
	}
}

func TestExplainSelectionConfidenceTieBreak(t *testing.T) {
	exp := ExplainSelection(&domain.TranscriptRecord{
		Scores:              map[string]float64{"a1": 7, "a2": 7},
		ValidatorConfidence: map[string]float64{"a1": 0.6, "a2": 0.9},
	})
	if len(exp.Chain) != 2 {
		t.Fatalf("expected two-step chain, got %+v", exp.Chain)
	}
	second := exp.Chain[1]
	if second.Step != "max_validator_confidence" {
		t.Fatalf("unexpected step: %s", second.Step)
	}
	if len(second.Winners) != 1 || second.Winners[0] != "a2" {
		t.Fatalf("unexpected winners: %v", second.Winners)
	}
}

func TestExplainSelectionNegativeConfidence(t *testing.T) {
	exp := ExplainSelection(&domain.TranscriptRecord{
		Scores:              map[string]float64{"a1": 7, "a2": 7},
		ValidatorConfidence: map[string]float64{"a1": -0.5, "a2": -0.2},
	})
	if len(exp.Chain) != 2 {
		t.Fatalf("expected two-step chain, got %+v", exp.Chain)
	}
	second := exp.Chain[1]
	if len(second.Winners) != 1 || second.Winners[0] != "a2" {
		t.Fatalf("unexpected winners: %v", second.Winners)
	}
	if second.Value == nil || *second.Value != -0.2 {
		t.Fatalf("unexpected value: %v", second.Value)
	}
}

func TestExplainSelectionLexicographicFallback(t *testing.T) {
	exp := ExplainSelection(&domain.TranscriptRecord{
		Scores: map[string]float64{"a2": 7, "a1": 7},
	})
	if len(exp.Chain) != 3 {
		t.Fatalf("expected full chain, got %+v", exp.Chain)
	}
	last := exp.Chain[2]
	if last.Step != "lexicographic_answer_id" {
		t.Fatalf("unexpected step: %s", last.Step)
	}
	if len(last.Winners) != 1 || last.Winners[0] != "a1" {
		t.Fatalf("expected lexicographically smallest id, got %v", last.Winners)
	}
}
