package engine

import (
	"fmt"

	"github.com/7610venki/vehicle-data-mapper/internal/model"
)

// runFuzzyLayer matches records by exact make plus fuzzy base model. The
// best achievable same-make similarity is always recorded for diagnostics,
// whether or not it clears the acceptance threshold. When no reference row
// shares the record's make, a fuzzy make lookup recovers from typos before
// giving up.
func (m *Mapper) runFuzzyLayer(r *run) {
	for i := range r.results {
		res := &r.results[i]
		src := &res.Source
		if _, ok := r.remaining[src.ID]; !ok {
			continue
		}
		if src.NormalizedMake == "" || src.NormalizedBaseModel == "" {
			continue
		}

		best := r.index.TopNCandidates(src, 1)
		res.ActualFuzzyScore = 0
		if len(best) > 0 {
			res.ActualFuzzyScore = best[0].Score
		}
		res.HasActualFuzzyScore = true

		candidates := best
		correctedMake := ""
		if len(r.index.SameMake(src.NormalizedMake)) == 0 {
			recovered, _ := r.index.FuzzyMakeLookup(src.NormalizedMake)
			if recovered == "" {
				continue
			}
			correctedMake = recovered
			candidates = r.index.TopNCandidatesForMake(src.NormalizedBaseModel, recovered, 1)
		}

		if len(candidates) == 0 || candidates[0].Score < m.cfg.FuzzyThreshold {
			continue
		}

		top := candidates[0]
		reason := "Matched by exact make and fuzzy base model."
		if correctedMake != "" {
			reason = fmt.Sprintf("Matched by corrected make %q and fuzzy base model.", correctedMake)
		}
		r.accept(res, top.Record, model.StatusMatchedFuzzy, roundScore(top.Score), true, reason)
	}
}

// roundScore trims similarity scores to two decimals for reporting.
func roundScore(s float64) float64 {
	return float64(int(s*100+0.5)) / 100
}
