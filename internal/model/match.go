package model

import "fmt"

// MatchStatus indicates how (or whether) a source record was matched.
type MatchStatus string

// Match status constants. PROCESSING_* are transient markers used while a
// batch is in flight; every record ends a run in one of the other states.
const (
	StatusNotProcessed       MatchStatus = "NOT_PROCESSED"
	StatusMatchedKnowledge   MatchStatus = "MATCHED_KNOWLEDGE"
	StatusMatchedRule        MatchStatus = "MATCHED_RULE"
	StatusMatchedFuzzy       MatchStatus = "MATCHED_FUZZY"
	StatusMatchedSemanticLLM MatchStatus = "MATCHED_SEMANTIC_LLM"
	StatusMatchedAI          MatchStatus = "MATCHED_AI"
	StatusProcessingSemantic MatchStatus = "PROCESSING_SEMANTIC_LLM"
	StatusProcessingAI       MatchStatus = "PROCESSING_AI"
	StatusErrorAI            MatchStatus = "ERROR_AI"
	StatusNoMatch            MatchStatus = "NO_MATCH"
)

// IsTerminal reports whether the status is a valid end-of-run state.
func (s MatchStatus) IsTerminal() bool {
	switch s {
	case StatusMatchedKnowledge, StatusMatchedRule, StatusMatchedFuzzy,
		StatusMatchedSemanticLLM, StatusMatchedAI, StatusErrorAI, StatusNoMatch:
		return true
	}
	return false
}

// Source is a citation returned by a web-grounded provider.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// MatchResult is the mutable projection built over a SourceRecord during a
// run. Confidence semantics depend on the layer that set it: deterministic
// layers report 1.0, the fuzzy layer reports the achieved similarity, the AI
// layers report the provider's own score.
type MatchResult struct {
	Source              SourceRecord      `json:"source"`
	MatchedCodes        map[string]string `json:"matchedCodes,omitempty"`
	Status              MatchStatus       `json:"status"`
	MatchedMake         string            `json:"matchedMake,omitempty"`
	MatchedModel        string            `json:"matchedModel,omitempty"`
	Reason              string            `json:"reason,omitempty"`
	CandidateModels     []string          `json:"candidateModels,omitempty"` // base models shown to the semantic layer
	ExternalSources     []Source          `json:"externalSources,omitempty"`
	Confidence          float64           `json:"confidence"`
	ActualFuzzyScore    float64           `json:"actualFuzzyScore"` // best same-make similarity, set whenever the fuzzy layer ran
	HasConfidence       bool              `json:"hasConfidence"`
	HasActualFuzzyScore bool              `json:"hasActualFuzzyScore"`
}

// Validate checks structural invariants on a finished result.
func (r *MatchResult) Validate() error {
	if !r.Status.IsTerminal() {
		return fmt.Errorf("non-terminal match status: %s", r.Status)
	}
	if r.HasConfidence && (r.Confidence < 0 || r.Confidence > 1) {
		return fmt.Errorf("confidence out of range: %f", r.Confidence)
	}
	return nil
}
