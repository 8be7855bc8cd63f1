package engine

import (
	"context"

	"github.com/7610venki/vehicle-data-mapper/internal/llm"
	"github.com/7610venki/vehicle-data-mapper/internal/model"
)

// MockProvider is a configurable llm.Provider for tests.
type MockProvider struct {
	SemanticFunc      func(ctx context.Context, tasks []llm.SemanticTask) ([]llm.SemanticResult, error)
	MatchFunc         func(ctx context.Context, tasks []llm.MatchTask, refs []llm.ReferenceItem) ([]llm.MatchAnswer, error)
	RulesFunc         func(ctx context.Context, examples []model.RuleExample) ([]model.LearnedRule, error)
	SemanticCalls     int
	MatchCalls        int
	RuleCalls         int
	WebSearchCapable  bool
	LastSemanticTasks []llm.SemanticTask
	LastMatchTasks    []llm.MatchTask
	LastReferences    []llm.ReferenceItem
}

// NewMockProvider returns a provider that rejects every record until its
// function fields are configured.
func NewMockProvider() *MockProvider {
	return &MockProvider{WebSearchCapable: true}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) SupportsWebSearch() bool { return m.WebSearchCapable }

func (m *MockProvider) SemanticCompareBatch(ctx context.Context, tasks []llm.SemanticTask) ([]llm.SemanticResult, error) {
	m.SemanticCalls++
	m.LastSemanticTasks = tasks
	if m.SemanticFunc != nil {
		return m.SemanticFunc(ctx, tasks)
	}

	results := make([]llm.SemanticResult, 0, len(tasks))
	for _, t := range tasks {
		results = append(results, llm.SemanticResult{RecordID: t.RecordID, Reason: "mock rejection"})
	}
	return results, nil
}

func (m *MockProvider) FindBestMatchBatch(ctx context.Context, tasks []llm.MatchTask, refs []llm.ReferenceItem) ([]llm.MatchAnswer, error) {
	m.MatchCalls++
	m.LastMatchTasks = tasks
	m.LastReferences = refs
	if m.MatchFunc != nil {
		return m.MatchFunc(ctx, tasks, refs)
	}

	answers := make([]llm.MatchAnswer, 0, len(tasks))
	for _, t := range tasks {
		answers = append(answers, llm.MatchAnswer{RecordID: t.RecordID, Reason: "mock no match"})
	}
	return answers, nil
}

func (m *MockProvider) GenerateRules(ctx context.Context, examples []model.RuleExample) ([]model.LearnedRule, error) {
	m.RuleCalls++
	if m.RulesFunc != nil {
		return m.RulesFunc(ctx, examples)
	}
	return nil, nil
}
