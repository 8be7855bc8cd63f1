// Package llm provides reasoning provider clients for semantic and
// web-grounded vehicle matching.
package llm

import (
	"context"
	"time"

	"github.com/7610venki/vehicle-data-mapper/internal/model"
)

// Provider defines the interface for reasoning providers.
type Provider interface {
	// Name identifies the provider in logs and reasons.
	Name() string

	// SupportsWebSearch reports whether FindBestMatchBatch can ground its
	// answers in external search results.
	SupportsWebSearch() bool

	// SemanticCompareBatch asks the provider to pick, for each task, the
	// best candidate from that task's shortlist, or none.
	SemanticCompareBatch(ctx context.Context, tasks []SemanticTask) ([]SemanticResult, error)

	// FindBestMatchBatch asks the provider to match each task against the
	// full reference list, using external knowledge where supported.
	FindBestMatchBatch(ctx context.Context, tasks []MatchTask, refs []ReferenceItem) ([]MatchAnswer, error)

	// GenerateRules asks the provider to propose generalized mapping rules
	// from confirmed match examples.
	GenerateRules(ctx context.Context, examples []model.RuleExample) ([]model.LearnedRule, error)
}

// CandidateOption is one shortlist entry presented to the provider.
type CandidateOption struct {
	Make  string
	Model string
}

// SemanticTask asks the provider to compare one source record against a
// ranked candidate shortlist.
type SemanticTask struct {
	RecordID   string
	Make       string
	Model      string
	Candidates []CandidateOption
}

// SemanticResult is the provider's verdict for one semantic task.
// MatchedIndex is 1-based into the task's candidate list; 0 means the
// provider declined to match.
type SemanticResult struct {
	RecordID      string
	Reason        string
	MatchedIndex  int
	Confidence    float64
	HasConfidence bool
}

// MatchTask asks the provider to identify one source record against the
// reference list.
type MatchTask struct {
	RecordID string
	Make     string
	Model    string
}

// ReferenceItem is a reference row as presented in a match prompt.
type ReferenceItem struct {
	Make  string
	Model string
}

// MatchAnswer is the provider's verdict for one match task. Unsupported
// marks answers from providers without web-search capability.
type MatchAnswer struct {
	RecordID      string
	MatchedMake   string
	MatchedModel  string
	Reason        string
	Sources       []model.Source
	Confidence    float64
	HasConfidence bool
	Unsupported   bool
}

// Config holds provider configuration.
type Config struct {
	Provider          string
	APIKey            string
	Model             string
	Temperature       float64
	MaxTokens         int
	RequestsPerMinute int
	Timeout           time.Duration
}
