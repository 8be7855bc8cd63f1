package engine

import (
	"github.com/7610venki/vehicle-data-mapper/internal/model"
)

// runKnowledgeLayer matches records against previously confirmed mappings.
// A key with several historical candidates is resolved by fuzzy-ranking the
// candidates' full normalized models against the record's full model.
func (m *Mapper) runKnowledgeLayer(r *run, knowledge map[string][]model.KnowledgeEntry) {
	for i := range r.results {
		res := &r.results[i]
		src := &res.Source
		if _, ok := r.remaining[src.ID]; !ok {
			continue
		}
		if src.NormalizedMake == "" || src.NormalizedBaseModel == "" {
			continue
		}

		entries := knowledge[model.KnowledgeKey(src.NormalizedMake, src.NormalizedBaseModel)]
		if len(entries) == 0 {
			continue
		}

		var candidates []*model.ReferenceRecord
		for _, entry := range entries {
			if ref := r.index.ByNormalizedBase(entry.Make, entry.Model); ref != nil {
				candidates = append(candidates, ref)
			}
		}
		if len(candidates) == 0 {
			continue
		}

		best := candidates[0]
		reason := "Matched from historical knowledge base."
		if len(candidates) > 1 {
			bestScore := -1.0
			for _, c := range candidates {
				if score := m.cfg.Similarity(src.NormalizedModel, c.NormalizedModel); score > bestScore {
					best, bestScore = c, score
				}
			}
			reason = "Best fuzzy match from multiple historical options."
		}

		r.accept(res, best, model.StatusMatchedKnowledge, 1.0, true, reason)
	}
}
