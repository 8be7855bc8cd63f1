// Package rule evaluates and validates learned mapping rules.
package rule

import (
	"strings"

	"github.com/7610venki/vehicle-data-mapper/internal/model"
)

// Matches reports whether every condition of r holds against the record's
// normalized make and model text.
func Matches(r model.LearnedRule, src *model.SourceRecord) bool {
	if len(r.Conditions) == 0 {
		return false
	}
	for _, c := range r.Conditions {
		var field string
		switch c.Field {
		case model.FieldMake:
			field = src.NormalizedMake
		case model.FieldModel:
			field = src.NormalizedModel
		default:
			return false
		}

		switch c.Operator {
		case model.OperatorContains:
			if !strings.Contains(field, c.Value) {
				return false
			}
		case model.OperatorEquals:
			if field != c.Value {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// FindMatches returns every rule whose conditions all hold for src. The
// caller decides what to do when more than one rule matches.
func FindMatches(rules []model.LearnedRule, src *model.SourceRecord) []model.LearnedRule {
	var matched []model.LearnedRule
	for _, r := range rules {
		if Matches(r, src) {
			matched = append(matched, r)
		}
	}
	return matched
}
