package llm

import "github.com/7610venki/vehicle-data-mapper/internal/model"

func toSemanticResults(items []semanticItem) []SemanticResult {
	results := make([]SemanticResult, 0, len(items))
	for _, item := range items {
		r := SemanticResult{
			RecordID: item.RecordID,
			Reason:   item.Reason,
		}
		if item.MatchedIndex != nil {
			r.MatchedIndex = *item.MatchedIndex
		}
		if item.Confidence != nil {
			r.Confidence = *item.Confidence
			r.HasConfidence = true
		}
		results = append(results, r)
	}
	return results
}

func toMatchAnswers(items []matchItem, sources []model.Source) []MatchAnswer {
	answers := make([]MatchAnswer, 0, len(items))
	for _, item := range items {
		a := MatchAnswer{
			RecordID:     item.RecordID,
			MatchedMake:  item.MatchedMake,
			MatchedModel: item.MatchedModel,
			Reason:       item.Reason,
			Sources:      sources,
		}
		if item.Confidence != nil {
			a.Confidence = *item.Confidence
			a.HasConfidence = true
		}
		answers = append(answers, a)
	}
	return answers
}
