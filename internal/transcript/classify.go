// Package transcript synthesizes human-readable debate entries, either
// incrementally from live events or in one pass from a persisted run
// record. Both producers share one classification rule so a run reads
// the same whether watched live or reviewed from history.
package transcript

import "github.com/jonathansantilli/freemad/internal/domain"

// classify applies the three-way entry classification shared by the
// live and replay producers: generation rounds are always generation;
// a critique is anti-conformity when the agent changed its position or
// rejected/revised the answer, conformity otherwise.
func classify(roundType domain.RoundType, changed bool, decision string) domain.EntryKind {
	if roundType == domain.RoundGeneration {
		return domain.EntryGeneration
	}
	if changed || decision == string(domain.DecisionReject) || decision == string(domain.DecisionRevise) {
		return domain.EntryAntiConform
	}
	return domain.EntryConformity
}
