package engine

import (
	"fmt"

	"github.com/7610venki/vehicle-data-mapper/internal/model"
	"github.com/7610venki/vehicle-data-mapper/internal/rule"
)

// runRuleLayer applies learned rules. A record matching more than one rule
// is never guessed at: it keeps a diagnostic reason and falls through to
// the next layer.
func (m *Mapper) runRuleLayer(r *run, rules []model.LearnedRule) {
	for i := range r.results {
		res := &r.results[i]
		src := &res.Source
		if _, ok := r.remaining[src.ID]; !ok {
			continue
		}
		if src.NormalizedMake == "" || src.NormalizedModel == "" {
			continue
		}

		matched := rule.FindMatches(rules, src)
		switch len(matched) {
		case 0:
			continue
		case 1:
			action := matched[0].Action
			ref := r.index.ByIdentity(action.SetMake, action.SetModel)
			if ref == nil {
				// The rule points at a reference row absent from this
				// run's dataset.
				res.Reason = fmt.Sprintf("Rule action %q/%q not present in reference data.", action.SetMake, action.SetModel)
				continue
			}
			r.accept(res, ref, model.StatusMatchedRule, 1.0, true, "Matched by learned rule.")
		default:
			res.Reason = fmt.Sprintf("Skipped rule layer: %d rules matched ambiguously.", len(matched))
		}
	}
}
