package rule

import (
	"fmt"
	"unicode/utf8"

	"github.com/7610venki/vehicle-data-mapper/internal/match"
	"github.com/7610venki/vehicle-data-mapper/internal/model"
	"github.com/7610venki/vehicle-data-mapper/internal/normalize"
)

// Default safety limits for proposed rules.
const (
	DefaultMinConditionLength = 2
	DefaultModelSimilarity    = 0.7
)

// Validator rejects proposed rules that are too broad or that conflate
// genuinely different models.
type Validator struct {
	similarity         match.Similarity
	minConditionLength int
	modelSimilarity    float64
}

// NewValidator creates a validator with the default limits.
func NewValidator() *Validator {
	return &Validator{
		similarity:         match.Levenshtein,
		minConditionLength: DefaultMinConditionLength,
		modelSimilarity:    DefaultModelSimilarity,
	}
}

// WithSimilarity swaps the similarity metric.
func (v *Validator) WithSimilarity(s match.Similarity) *Validator {
	v.similarity = s
	return v
}

// Validate checks a proposed rule against the safety limits and, where an
// originating example can be associated with the rule, against the model
// similarity floor. Returns nil when the rule is safe to persist.
func (v *Validator) Validate(r model.LearnedRule, examples []model.RuleExample) error {
	if err := r.Validate(); err != nil {
		return err
	}

	for i, c := range r.Conditions {
		if utf8.RuneCountInString(c.Value) < v.minConditionLength {
			return fmt.Errorf("condition %d: value %q shorter than %d characters", i, c.Value, v.minConditionLength)
		}
	}

	actionModel := normalize.Normalize(r.Action.SetModel)
	actionMake := normalize.Normalize(r.Action.SetMake)
	for _, ex := range examples {
		if normalize.Normalize(ex.MatchedMake) != actionMake ||
			normalize.Normalize(ex.MatchedModel) != actionModel {
			continue
		}
		sim := v.similarity(actionModel, normalize.Normalize(ex.SourceModel))
		if sim < v.modelSimilarity {
			return fmt.Errorf("action model %q too dissimilar to example source model %q (%.2f < %.2f)",
				r.Action.SetModel, ex.SourceModel, sim, v.modelSimilarity)
		}
	}

	return nil
}
