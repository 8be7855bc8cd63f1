// Package engine implements the multi-layer record mapping engine.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/7610venki/vehicle-data-mapper/internal/llm"
	"github.com/7610venki/vehicle-data-mapper/internal/match"
	"github.com/7610venki/vehicle-data-mapper/internal/model"
	"github.com/7610venki/vehicle-data-mapper/internal/normalize"
)

// ProgressFunc is called once per record when its status becomes terminal
// for the run. It must not block indefinitely.
type ProgressFunc func(result *model.MatchResult, processed, total int)

// Request carries one mapping run's inputs. Knowledge and Rules are
// snapshots taken at run start; the engine never writes to them.
type Request struct {
	Knowledge        map[string][]model.KnowledgeEntry
	SourceRows       []model.Row
	ReferenceRows    []model.Row
	Rules            []model.LearnedRule
	SourceColumns    model.SourceColumns
	ReferenceColumns model.ReferenceColumns
}

// Mapper runs the matching cascade over a source dataset.
type Mapper struct {
	provider llm.Provider
	cfg      Config
}

// NewMapper creates a mapping engine. provider may be nil, which disables
// the AI escalation layer.
func NewMapper(cfg Config, provider llm.Provider) *Mapper {
	return &Mapper{
		cfg:      cfg.normalized(),
		provider: provider,
	}
}

// run is the working state for one MapData call, owned by a single
// goroutine for the run's duration.
type run struct {
	index      *match.Index
	remaining  map[string]*model.MatchResult
	onProgress ProgressFunc
	results    []model.MatchResult
	processed  int
	total      int
}

// finalize records a terminal status for the result and reports progress.
func (r *run) finalize(res *model.MatchResult, status model.MatchStatus) {
	res.Status = status
	delete(r.remaining, res.Source.ID)
	r.processed++
	if r.onProgress != nil {
		r.onProgress(res, r.processed-1, r.total)
	}
}

// accept fills a match from a reference record and finalizes.
func (r *run) accept(res *model.MatchResult, ref *model.ReferenceRecord, status model.MatchStatus, confidence float64, hasConfidence bool, reason string) {
	res.MatchedMake = ref.Make
	res.MatchedModel = ref.Model
	res.MatchedCodes = ref.Codes
	res.Confidence = confidence
	res.HasConfidence = hasConfidence
	res.Reason = reason
	r.finalize(res, status)
}

// MapData classifies every source row through the enabled layer cascade and
// returns one MatchResult per input row, in input order. Every result
// carries a terminal status.
func (m *Mapper) MapData(ctx context.Context, req Request, onProgress ProgressFunc) ([]model.MatchResult, error) {
	if len(req.ReferenceRows) == 0 {
		return nil, fmt.Errorf("reference dataset is empty")
	}

	refs := m.prepareReference(req.ReferenceRows, req.ReferenceColumns)
	r := &run{
		index: match.NewIndex(refs,
			match.WithSimilarity(m.cfg.Similarity),
			match.WithMakeThreshold(m.cfg.MakeRecoveryThreshold)),
		remaining:  make(map[string]*model.MatchResult, len(req.SourceRows)),
		onProgress: onProgress,
		results:    m.prepareSource(req.SourceRows, req.SourceColumns),
		total:      len(req.SourceRows),
	}
	for i := range r.results {
		r.remaining[r.results[i].Source.ID] = &r.results[i]
	}

	slog.Info("Starting mapping run",
		"source_records", len(r.results),
		"reference_records", len(refs),
		"knowledge_keys", len(req.Knowledge),
		"rules", len(req.Rules))

	// Records missing make or model data cannot be matched by any layer.
	for i := range r.results {
		res := &r.results[i]
		if strings.TrimSpace(res.Source.Make) == "" || strings.TrimSpace(res.Source.Model) == "" {
			res.Reason = "Record is missing make or model data."
			r.finalize(res, model.StatusNoMatch)
		}
	}

	if m.cfg.UseKnowledgeLayer && len(req.Knowledge) > 0 {
		m.runKnowledgeLayer(r, req.Knowledge)
	}
	if m.cfg.UseRuleLayer && len(req.Rules) > 0 && len(r.remaining) > 0 {
		m.runRuleLayer(r, req.Rules)
	}
	if m.cfg.UseFuzzyLayer && len(r.remaining) > 0 {
		m.runFuzzyLayer(r)
	}
	if m.cfg.UseAILayer && m.provider != nil && len(r.remaining) > 0 {
		if err := m.runAILayer(ctx, r); err != nil {
			return nil, err
		}
	}

	m.finalizeRemaining(r)

	slog.Info("Mapping run complete", "records", r.total)
	return r.results, nil
}

func (m *Mapper) prepareReference(rows []model.Row, cols model.ReferenceColumns) []*model.ReferenceRecord {
	refs := make([]*model.ReferenceRecord, 0, len(rows))
	for _, row := range rows {
		normModel := normalize.Normalize(row[cols.Model])
		codes := make(map[string]string, len(cols.Codes))
		for _, c := range cols.Codes {
			codes[c] = row[c]
		}
		refs = append(refs, &model.ReferenceRecord{
			Row:                 row,
			Codes:               codes,
			ID:                  uuid.NewString(),
			Make:                row[cols.Make],
			Model:               row[cols.Model],
			NormalizedMake:      normalize.Normalize(row[cols.Make]),
			NormalizedModel:     normModel,
			NormalizedBaseModel: normalize.ExtractBaseModel(row[cols.Model]),
		})
	}
	return refs
}

func (m *Mapper) prepareSource(rows []model.Row, cols model.SourceColumns) []model.MatchResult {
	results := make([]model.MatchResult, 0, len(rows))
	for _, row := range rows {
		normModel := normalize.Normalize(row[cols.Model])
		results = append(results, model.MatchResult{
			Source: model.SourceRecord{
				Row:                 row,
				ID:                  uuid.NewString(),
				Make:                row[cols.Make],
				Model:               row[cols.Model],
				NormalizedMake:      normalize.Normalize(row[cols.Make]),
				NormalizedModel:     normModel,
				NormalizedBaseModel: normalize.ExtractBaseModel(row[cols.Model]),
			},
			Status: model.StatusNotProcessed,
		})
	}
	return results
}

// finalizeRemaining marks every record the cascade left untouched as
// NO_MATCH, noting which layers had a chance at it.
func (m *Mapper) finalizeRemaining(r *run) {
	var enabled []string
	if m.cfg.UseKnowledgeLayer {
		enabled = append(enabled, "knowledge")
	}
	if m.cfg.UseRuleLayer {
		enabled = append(enabled, "rules")
	}
	if m.cfg.UseFuzzyLayer {
		enabled = append(enabled, "fuzzy")
	}
	if m.cfg.UseAILayer && m.provider != nil {
		enabled = append(enabled, "ai")
	}
	layers := strings.Join(enabled, ", ")
	if layers == "" {
		layers = "none"
	}

	for i := range r.results {
		res := &r.results[i]
		if _, ok := r.remaining[res.Source.ID]; !ok {
			continue
		}
		if res.Reason == "" {
			res.Reason = fmt.Sprintf("No match found by enabled layers: %s.", layers)
		}
		r.finalize(res, model.StatusNoMatch)
	}
}

// pause waits the inter-batch delay, honoring cancellation.
func (m *Mapper) pause(ctx context.Context) error {
	if m.cfg.BatchDelay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.cfg.BatchDelay):
		return nil
	}
}
