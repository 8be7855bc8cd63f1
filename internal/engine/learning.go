package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/7610venki/vehicle-data-mapper/internal/model"
	"github.com/7610venki/vehicle-data-mapper/internal/normalize"
	"github.com/7610venki/vehicle-data-mapper/internal/rule"
	"github.com/7610venki/vehicle-data-mapper/internal/service"
)

// LearnOptions selects which learning targets a run feeds.
type LearnOptions struct {
	Knowledge bool
	Rules     bool
}

// LearningReport summarizes one learning pass. Errors collects the
// failures of individual steps; a failed step never invalidates the run's
// match results.
type LearningReport struct {
	Errors            []error
	HighConfidence    int
	KnowledgeInserted int
	RulesProposed     int
	RulesAccepted     int
}

// Learn mines a finished run's high-confidence matches into new knowledge
// entries and proposed rules. It is best-effort throughout.
func (m *Mapper) Learn(ctx context.Context, results []model.MatchResult, store service.Storage, opts LearnOptions) *LearningReport {
	report := &LearningReport{}

	confident := m.highConfidenceMatches(results)
	report.HighConfidence = len(confident)
	if len(confident) == 0 {
		return report
	}

	if opts.Knowledge {
		m.learnKnowledge(ctx, confident, store, report)
	}
	if opts.Rules && m.provider != nil {
		m.learnRules(ctx, confident, store, report)
	}

	return report
}

// highConfidenceMatches filters a run's results to the matches trusted
// enough to learn from. Fuzzy matches need a stricter threshold since
// their confidence is noisier than provider-reported scores.
func (m *Mapper) highConfidenceMatches(results []model.MatchResult) []*model.MatchResult {
	var confident []*model.MatchResult
	for i := range results {
		r := &results[i]
		if r.Source.NormalizedMake == "" || r.Source.NormalizedBaseModel == "" ||
			r.MatchedMake == "" || r.MatchedModel == "" || !r.HasConfidence {
			continue
		}

		threshold := 0.0
		switch r.Status {
		case model.StatusMatchedAI, model.StatusMatchedSemanticLLM:
			threshold = m.cfg.LearningThreshold
		case model.StatusMatchedFuzzy:
			threshold = m.cfg.LearningThreshold + m.cfg.FuzzyLearningMargin
		default:
			continue
		}

		if r.Confidence >= threshold {
			confident = append(confident, r)
		}
	}
	return confident
}

func (m *Mapper) learnKnowledge(ctx context.Context, confident []*model.MatchResult, store service.Storage, report *LearningReport) {
	knowledge := make(map[string][]model.KnowledgeEntry)
	for _, r := range confident {
		key := model.KnowledgeKey(r.Source.NormalizedMake, r.Source.NormalizedBaseModel)
		entry := model.KnowledgeEntry{
			Make:  normalize.Normalize(r.MatchedMake),
			Model: normalize.ExtractBaseModel(r.MatchedModel),
		}

		duplicate := false
		for _, existing := range knowledge[key] {
			if existing == entry {
				duplicate = true
				break
			}
		}
		if !duplicate {
			knowledge[key] = append(knowledge[key], entry)
		}
	}

	inserted, err := store.BulkUpsertKnowledge(ctx, knowledge, nil)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("knowledge learning: %w", err))
		return
	}
	report.KnowledgeInserted = inserted
	slog.Info("Learned knowledge entries", "inserted", inserted, "keys", len(knowledge))
}

func (m *Mapper) learnRules(ctx context.Context, confident []*model.MatchResult, store service.Storage, report *LearningReport) {
	examples := make([]model.RuleExample, 0, len(confident))
	for _, r := range confident {
		examples = append(examples, model.RuleExample{
			SourceMake:   r.Source.NormalizedMake,
			SourceModel:  r.Source.NormalizedModel,
			MatchedMake:  r.MatchedMake,
			MatchedModel: r.MatchedModel,
		})
	}

	proposed, err := m.provider.GenerateRules(ctx, examples)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("rule generation: %w", err))
		return
	}
	report.RulesProposed = len(proposed)

	validator := rule.NewValidator().WithSimilarity(m.cfg.Similarity)
	var accepted []model.LearnedRule
	for _, proposal := range proposed {
		if err := validator.Validate(proposal, examples); err != nil {
			slog.Debug("Rejected proposed rule", "error", err)
			continue
		}
		accepted = append(accepted, proposal)
	}
	if len(accepted) == 0 {
		return
	}

	inserted, err := store.UpsertRules(ctx, accepted)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Errorf("rule persistence: %w", err))
		return
	}
	report.RulesAccepted = inserted
	slog.Info("Learned rules", "proposed", len(proposed), "accepted", inserted)
}
