package engine

import (
	"time"

	"github.com/7610venki/vehicle-data-mapper/internal/match"
	"github.com/7610venki/vehicle-data-mapper/internal/service"
)

// Config holds configuration options for the mapping engine.
type Config struct {
	Similarity            match.Similarity
	FuzzyThreshold        float64
	MakeRecoveryThreshold float64
	AcceptConfidence      float64
	LearningThreshold     float64
	FuzzyLearningMargin   float64
	TopNCandidates        int
	SemanticBatchSize     int
	WebSearchBatchSize    int
	MaxReferenceInPrompt  int
	BatchDelay            time.Duration
	Retry                 service.RetryOptions
	UseKnowledgeLayer     bool
	UseRuleLayer          bool
	UseFuzzyLayer         bool
	UseAILayer            bool
}

// DefaultConfig returns the default engine configuration. The fuzzy
// learning margin is added to the learning threshold for fuzzy matches,
// whose confidence is noisier than provider-reported scores.
func DefaultConfig() Config {
	return Config{
		Similarity:            match.Levenshtein,
		FuzzyThreshold:        0.8,
		MakeRecoveryThreshold: match.DefaultMakeThreshold,
		AcceptConfidence:      0.5,
		LearningThreshold:     0.95,
		FuzzyLearningMargin:   0.04,
		TopNCandidates:        5,
		SemanticBatchSize:     15,
		WebSearchBatchSize:    20,
		MaxReferenceInPrompt:  100,
		BatchDelay:            time.Second,
		Retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
		UseKnowledgeLayer: true,
		UseRuleLayer:      true,
		UseFuzzyLayer:     true,
		UseAILayer:        true,
	}
}

// normalized fills zero values so a partially specified Config behaves.
func (c Config) normalized() Config {
	if c.Similarity == nil {
		c.Similarity = match.Levenshtein
	}
	if c.FuzzyThreshold <= 0 {
		c.FuzzyThreshold = 0.8
	}
	if c.MakeRecoveryThreshold <= 0 {
		c.MakeRecoveryThreshold = match.DefaultMakeThreshold
	}
	if c.AcceptConfidence <= 0 {
		c.AcceptConfidence = 0.5
	}
	if c.LearningThreshold <= 0 {
		c.LearningThreshold = 0.95
	}
	if c.FuzzyLearningMargin <= 0 {
		c.FuzzyLearningMargin = 0.04
	}
	if c.TopNCandidates <= 0 {
		c.TopNCandidates = 5
	}
	if c.SemanticBatchSize <= 0 {
		c.SemanticBatchSize = 15
	}
	if c.WebSearchBatchSize <= 0 {
		c.WebSearchBatchSize = 20
	}
	if c.MaxReferenceInPrompt <= 0 {
		c.MaxReferenceInPrompt = 100
	}
	return c
}
