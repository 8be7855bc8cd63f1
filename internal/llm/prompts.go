package llm

import (
	"fmt"
	"strings"

	"github.com/7610venki/vehicle-data-mapper/internal/model"
)

// Wire shapes the providers are instructed to return. Confidence and index
// fields are pointers so "unknown" survives decoding.
type semanticItem struct {
	RecordID     string   `json:"recordId"`
	Reason       string   `json:"reason"`
	MatchedIndex *int     `json:"matchedIndex"`
	Confidence   *float64 `json:"confidence"`
}

type matchItem struct {
	RecordID     string   `json:"recordId"`
	MatchedMake  string   `json:"matchedMake"`
	MatchedModel string   `json:"matchedModel"`
	Reason       string   `json:"reason"`
	Confidence   *float64 `json:"confidence"`
}

func buildSemanticPrompt(tasks []SemanticTask) string {
	var b strings.Builder
	b.WriteString("You are a vehicle identification expert. For each record below, decide which candidate (if any) denotes the SAME vehicle model as the source make/model. Trim levels, body styles, and drivetrain suffixes do not make two models different. Genuinely different models (e.g. Corolla vs Camry, 300ZX vs 350Z) must never be matched.\n\n")

	for _, t := range tasks {
		fmt.Fprintf(&b, "Record %s: make=%q model=%q\nCandidates:\n", t.RecordID, t.Make, t.Model)
		for i, c := range t.Candidates {
			fmt.Fprintf(&b, "  %d. make=%q model=%q\n", i+1, c.Make, c.Model)
		}
		b.WriteString("\n")
	}

	b.WriteString(`Respond with ONLY a JSON array, one object per record:
[{"recordId": "<id>", "matchedIndex": <1-based candidate number or null if none match>, "confidence": <0.0-1.0>, "reason": "<short explanation>"}]`)
	return b.String()
}

func buildMatchPrompt(tasks []MatchTask, refs []ReferenceItem, webSearch bool) string {
	var b strings.Builder
	b.WriteString("You are a vehicle identification expert. Match each source record below to the single best entry in the reference list, or report no match. ")
	if webSearch {
		b.WriteString("Use web search to resolve unfamiliar trade names, regional model names, and rebadged vehicles. ")
	}
	b.WriteString("Never match genuinely different models.\n\nReference list:\n")

	for _, r := range refs {
		fmt.Fprintf(&b, "  - make=%q model=%q\n", r.Make, r.Model)
	}

	b.WriteString("\nRecords:\n")
	for _, t := range tasks {
		fmt.Fprintf(&b, "  Record %s: make=%q model=%q\n", t.RecordID, t.Make, t.Model)
	}

	b.WriteString(`
Respond with ONLY a JSON array, one object per record. matchedMake and matchedModel must be copied verbatim from the reference list, or empty strings when nothing matches:
[{"recordId": "<id>", "matchedMake": "<make>", "matchedModel": "<model>", "confidence": <0.0-1.0>, "reason": "<short explanation>"}]`)
	return b.String()
}

func buildRulesPrompt(examples []model.RuleExample) string {
	var b strings.Builder
	b.WriteString("You are building mapping rules for a vehicle record-matching system. Below are confirmed source-to-reference matches. Propose generalized conditional rules that would reproduce these matches on similar future records. Only propose a rule when a clear generalizable pattern exists; prefer fewer, safer rules over many broad ones.\n\nConfirmed matches:\n")

	for _, ex := range examples {
		fmt.Fprintf(&b, "  source make=%q model=%q  ->  reference make=%q model=%q\n",
			ex.SourceMake, ex.SourceModel, ex.MatchedMake, ex.MatchedModel)
	}

	b.WriteString(`
Each rule has conjunctive conditions over the lowercased source fields ("make" or "model", operator "contains" or "equals") and an action naming the reference make/model verbatim. Respond with ONLY a JSON array:
[{"conditions": [{"field": "model", "operator": "contains", "value": "land cruiser"}], "actions": {"setMake": "TOYOTA", "setModel": "LAND CRUISER"}}]`)
	return b.String()
}
