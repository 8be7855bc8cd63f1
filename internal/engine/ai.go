package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/7610venki/vehicle-data-mapper/internal/common"
	"github.com/7610venki/vehicle-data-mapper/internal/llm"
	"github.com/7610venki/vehicle-data-mapper/internal/model"
)

// semanticWork pairs a provider task with the shortlist it was built from,
// so a returned index can be resolved back to a reference record.
type semanticWork struct {
	result     *model.MatchResult
	task       llm.SemanticTask
	candidates []*model.ReferenceRecord
}

// runAILayer routes every remaining record either to the constrained
// semantic strategy (when a fuzzy shortlist exists) or to the open-ended
// web-search strategy. A semantic rejection is not a verdict: the record
// gets a second chance on the web-search queue. The web-search strategy is
// terminal for every record that enters it.
func (m *Mapper) runAILayer(ctx context.Context, r *run) error {
	var semantic []semanticWork
	var webQueue []*model.MatchResult

	for i := range r.results {
		res := &r.results[i]
		src := &res.Source
		if _, ok := r.remaining[src.ID]; !ok {
			continue
		}
		if src.NormalizedMake == "" || src.NormalizedModel == "" {
			continue
		}

		shortlist := r.index.TopNCandidates(src, m.cfg.TopNCandidates)
		if len(shortlist) == 0 {
			webQueue = append(webQueue, res)
			continue
		}

		candidates := make([]*model.ReferenceRecord, 0, len(shortlist))
		options := make([]llm.CandidateOption, 0, len(shortlist))
		names := make([]string, 0, len(shortlist))
		for _, c := range shortlist {
			candidates = append(candidates, c.Record)
			options = append(options, llm.CandidateOption{Make: c.Record.Make, Model: c.Record.Model})
			names = append(names, c.Record.Model)
		}
		res.CandidateModels = names

		semantic = append(semantic, semanticWork{
			result: res,
			task: llm.SemanticTask{
				RecordID:   src.ID,
				Make:       src.Make,
				Model:      src.Model,
				Candidates: options,
			},
			candidates: candidates,
		})
	}

	escalated, err := m.runSemanticBatches(ctx, r, semantic)
	if err != nil {
		return err
	}
	webQueue = append(webQueue, escalated...)

	return m.runWebSearchBatches(ctx, r, webQueue)
}

// runSemanticBatches sends semantic tasks in batches and returns the
// records the provider rejected, for escalation.
func (m *Mapper) runSemanticBatches(ctx context.Context, r *run, work []semanticWork) ([]*model.MatchResult, error) {
	var escalated []*model.MatchResult

	for start := 0; start < len(work); start += m.cfg.SemanticBatchSize {
		if start > 0 {
			if err := m.pause(ctx); err != nil {
				return nil, err
			}
		}

		end := start + m.cfg.SemanticBatchSize
		if end > len(work) {
			end = len(work)
		}
		batch := work[start:end]

		tasks := make([]llm.SemanticTask, 0, len(batch))
		for _, w := range batch {
			w.result.Status = model.StatusProcessingSemantic
			w.result.Reason = "AI semantic processing..."
			tasks = append(tasks, w.task)
		}

		var results []llm.SemanticResult
		err := common.WithRetry(ctx, func() error {
			var callErr error
			results, callErr = m.provider.SemanticCompareBatch(ctx, tasks)
			return callErr
		}, m.cfg.Retry)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Error("Semantic batch failed", "records", len(batch), "error", err)
			for _, w := range batch {
				w.result.Reason = fmt.Sprintf("Semantic AI call failed: %v", err)
				r.finalize(w.result, model.StatusErrorAI)
			}
			continue
		}

		byID := make(map[string]llm.SemanticResult, len(results))
		for _, res := range results {
			byID[res.RecordID] = res
		}

		for _, w := range batch {
			verdict, ok := byID[w.task.RecordID]
			if !ok {
				w.result.Reason = "Semantic AI returned no result for this record."
				r.finalize(w.result, model.StatusErrorAI)
				continue
			}

			if verdict.Reason != "" {
				w.result.Reason = verdict.Reason
			}

			switch {
			case verdict.MatchedIndex == 0,
				verdict.HasConfidence && verdict.Confidence < m.cfg.AcceptConfidence:
				// Rejection escalates to the web-search strategy.
				escalated = append(escalated, w.result)
			case verdict.MatchedIndex < 0 || verdict.MatchedIndex > len(w.candidates):
				w.result.Reason = fmt.Sprintf("Semantic AI chose candidate %d of %d. %s",
					verdict.MatchedIndex, len(w.candidates), verdict.Reason)
				r.finalize(w.result, model.StatusErrorAI)
			default:
				ref := w.candidates[verdict.MatchedIndex-1]
				r.accept(w.result, ref, model.StatusMatchedSemanticLLM,
					roundScore(verdict.Confidence), verdict.HasConfidence, w.result.Reason)
			}
		}
	}

	return escalated, nil
}

// runWebSearchBatches resolves the open-ended queue. Every record exits
// this strategy with a terminal status.
func (m *Mapper) runWebSearchBatches(ctx context.Context, r *run, queue []*model.MatchResult) error {
	for start := 0; start < len(queue); start += m.cfg.WebSearchBatchSize {
		if start > 0 {
			if err := m.pause(ctx); err != nil {
				return err
			}
		}

		end := start + m.cfg.WebSearchBatchSize
		if end > len(queue) {
			end = len(queue)
		}
		batch := queue[start:end]

		tasks := make([]llm.MatchTask, 0, len(batch))
		for _, res := range batch {
			res.Status = model.StatusProcessingAI
			res.Reason = "AI web search processing..."
			tasks = append(tasks, llm.MatchTask{
				RecordID: res.Source.ID,
				Make:     res.Source.Make,
				Model:    res.Source.Model,
			})
		}

		refs := m.referenceForPrompt(r, batch)

		var answers []llm.MatchAnswer
		err := common.WithRetry(ctx, func() error {
			var callErr error
			answers, callErr = m.provider.FindBestMatchBatch(ctx, tasks, refs)
			return callErr
		}, m.cfg.Retry)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("Web search batch failed", "records", len(batch), "error", err)
			for _, res := range batch {
				res.Reason = fmt.Sprintf("AI web search call failed: %v", err)
				r.finalize(res, model.StatusErrorAI)
			}
			continue
		}

		byID := make(map[string]llm.MatchAnswer, len(answers))
		for _, a := range answers {
			byID[a.RecordID] = a
		}

		for _, res := range batch {
			answer, ok := byID[res.Source.ID]
			if !ok {
				res.Reason = "AI web search returned no result for this record."
				r.finalize(res, model.StatusErrorAI)
				continue
			}

			if answer.Reason != "" {
				res.Reason = answer.Reason
			}
			res.ExternalSources = answer.Sources

			accepted := answer.MatchedMake != "" && answer.MatchedModel != "" &&
				(!answer.HasConfidence || answer.Confidence >= m.cfg.AcceptConfidence)
			if !accepted || answer.Unsupported {
				r.finalize(res, model.StatusNoMatch)
				continue
			}

			if ref := r.index.ByIdentity(answer.MatchedMake, answer.MatchedModel); ref != nil {
				r.accept(res, ref, model.StatusMatchedAI,
					roundScore(answer.Confidence), answer.HasConfidence, res.Reason)
				continue
			}

			// The provider answered with an identity not present verbatim
			// in the reference data. Keep its answer but without codes.
			res.MatchedMake = answer.MatchedMake
			res.MatchedModel = answer.MatchedModel
			res.Confidence = roundScore(answer.Confidence)
			res.HasConfidence = answer.HasConfidence
			r.finalize(res, model.StatusMatchedAI)
		}
	}

	return nil
}

// referenceForPrompt builds a bounded reference list for one batch,
// preferring rows whose make appears in the batch.
func (m *Mapper) referenceForPrompt(r *run, batch []*model.MatchResult) []llm.ReferenceItem {
	makes := make(map[string]bool, len(batch))
	for _, res := range batch {
		if res.Source.NormalizedMake != "" {
			makes[res.Source.NormalizedMake] = true
		}
	}

	var relevant []*model.ReferenceRecord
	for mk := range makes {
		relevant = append(relevant, r.index.SameMake(mk)...)
	}
	if len(relevant) == 0 {
		relevant = r.index.Records()
	}

	if len(relevant) > m.cfg.MaxReferenceInPrompt {
		relevant = relevant[:m.cfg.MaxReferenceInPrompt]
	}

	items := make([]llm.ReferenceItem, 0, len(relevant))
	for _, ref := range relevant {
		items = append(items, llm.ReferenceItem{Make: ref.Make, Model: ref.Model})
	}
	return items
}
