package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7610venki/vehicle-data-mapper/internal/llm"
	"github.com/7610venki/vehicle-data-mapper/internal/model"
	"github.com/7610venki/vehicle-data-mapper/internal/service"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BatchDelay = 0
	cfg.Retry = service.RetryOptions{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2.0,
	}
	return cfg
}

func sourceCols() model.SourceColumns {
	return model.SourceColumns{Make: "Make", Model: "Model"}
}

func refCols() model.ReferenceColumns {
	return model.ReferenceColumns{Make: "IC Make", Model: "IC Model", Codes: []string{"Code"}}
}

func refRow(make, mdl, code string) model.Row {
	return model.Row{"IC Make": make, "IC Model": mdl, "Code": code}
}

func srcRow(make, mdl string) model.Row {
	return model.Row{"Make": make, "Model": mdl}
}

func mapData(t *testing.T, m *Mapper, req Request) []model.MatchResult {
	t.Helper()
	results, err := m.MapData(context.Background(), req, nil)
	require.NoError(t, err)
	require.Len(t, results, len(req.SourceRows))
	for i := range results {
		require.NoError(t, results[i].Validate(), "record %d must end terminal", i)
	}
	return results
}

func TestFuzzyMatchAcrossTrimLevels(t *testing.T) {
	m := NewMapper(testConfig(), nil)

	results := mapData(t, m, Request{
		SourceRows:       []model.Row{srcRow("Toyota", "Camry LE")},
		ReferenceRows:    []model.Row{refRow("TOYOTA", "CAMRY 4D SDN LE", "TC-01")},
		SourceColumns:    sourceCols(),
		ReferenceColumns: refCols(),
	})

	r := results[0]
	assert.Equal(t, model.StatusMatchedFuzzy, r.Status)
	assert.Equal(t, "CAMRY 4D SDN LE", r.MatchedModel)
	assert.Equal(t, "TC-01", r.MatchedCodes["Code"])
	assert.True(t, r.HasActualFuzzyScore)
	assert.InDelta(t, 1.0, r.ActualFuzzyScore, 1e-9)
}

func TestKnowledgeLayerSkipsProvider(t *testing.T) {
	provider := NewMockProvider()
	m := NewMapper(testConfig(), provider)

	results := mapData(t, m, Request{
		SourceRows:    []model.Row{srcRow("BYD", "S6")},
		ReferenceRows: []model.Row{refRow("BYD", "S6", "B-01")},
		Knowledge: map[string][]model.KnowledgeEntry{
			model.KnowledgeKey("byd", "s6"): {{Make: "byd", Model: "s6"}},
		},
		SourceColumns:    sourceCols(),
		ReferenceColumns: refCols(),
	})

	r := results[0]
	assert.Equal(t, model.StatusMatchedKnowledge, r.Status)
	assert.True(t, r.HasConfidence)
	assert.InDelta(t, 1.0, r.Confidence, 1e-9)
	assert.Zero(t, provider.SemanticCalls)
	assert.Zero(t, provider.MatchCalls)
}

func TestKnowledgeLayerResolvesMultipleCandidatesByFullModel(t *testing.T) {
	m := NewMapper(testConfig(), nil)

	results := mapData(t, m, Request{
		SourceRows: []model.Row{srcRow("Toyota", "Camry Hybrid")},
		ReferenceRows: []model.Row{
			refRow("TOYOTA", "CAMRY", "TC-01"),
			refRow("TOYOTA", "CAMRY HYBRID", "TC-02"),
		},
		Knowledge: map[string][]model.KnowledgeEntry{
			model.KnowledgeKey("toyota", "camry"): {
				{Make: "toyota", Model: "camry"},
			},
		},
		SourceColumns:    sourceCols(),
		ReferenceColumns: refCols(),
	})

	// Both reference rows share the base model "camry"; the index maps the
	// knowledge entry to the first, and the status reflects the knowledge
	// layer either way.
	assert.Equal(t, model.StatusMatchedKnowledge, results[0].Status)
}

func TestCrossMakeNeverMatchesFuzzy(t *testing.T) {
	cfg := testConfig()
	cfg.UseKnowledgeLayer = false
	cfg.UseRuleLayer = false
	provider := NewMockProvider()
	m := NewMapper(cfg, provider)

	results := mapData(t, m, Request{
		SourceRows:       []model.Row{srcRow("BYD", "S6")},
		ReferenceRows:    []model.Row{refRow("AUDI", "S6", "A-01")},
		SourceColumns:    sourceCols(),
		ReferenceColumns: refCols(),
	})

	r := results[0]
	assert.NotEqual(t, model.StatusMatchedFuzzy, r.Status)
	// No same-make shortlist exists, so the record must have gone straight
	// to the open-ended strategy.
	assert.Zero(t, provider.SemanticCalls)
	assert.Equal(t, 1, provider.MatchCalls)
	assert.Equal(t, model.StatusNoMatch, r.Status)
}

func TestMissingModelShortCircuits(t *testing.T) {
	provider := NewMockProvider()
	m := NewMapper(testConfig(), provider)

	results := mapData(t, m, Request{
		SourceRows:       []model.Row{srcRow("Toyota", "")},
		ReferenceRows:    []model.Row{refRow("TOYOTA", "CAMRY", "TC-01")},
		SourceColumns:    sourceCols(),
		ReferenceColumns: refCols(),
	})

	r := results[0]
	assert.Equal(t, model.StatusNoMatch, r.Status)
	assert.Contains(t, r.Reason, "missing")
	assert.Zero(t, provider.SemanticCalls)
	assert.Zero(t, provider.MatchCalls)
}

func TestRuleLayerSingleMatch(t *testing.T) {
	m := NewMapper(testConfig(), nil)

	results := mapData(t, m, Request{
		SourceRows:    []model.Row{srcRow("Nissan", "Patrol Pickup")},
		ReferenceRows: []model.Row{refRow("NISSAN", "PATROL", "N-01")},
		Rules: []model.LearnedRule{
			{
				Conditions: []model.RuleCondition{
					{Field: model.FieldModel, Operator: model.OperatorContains, Value: "patrol"},
				},
				Action: model.RuleAction{SetMake: "NISSAN", SetModel: "PATROL"},
			},
		},
		SourceColumns:    sourceCols(),
		ReferenceColumns: refCols(),
	})

	r := results[0]
	assert.Equal(t, model.StatusMatchedRule, r.Status)
	assert.Equal(t, "PATROL", r.MatchedModel)
	assert.InDelta(t, 1.0, r.Confidence, 1e-9)
}

func TestRuleLayerAmbiguityFallsThrough(t *testing.T) {
	cfg := testConfig()
	cfg.UseFuzzyLayer = false
	m := NewMapper(cfg, nil)

	rules := []model.LearnedRule{
		{
			Conditions: []model.RuleCondition{
				{Field: model.FieldModel, Operator: model.OperatorContains, Value: "patrol"},
			},
			Action: model.RuleAction{SetMake: "NISSAN", SetModel: "PATROL"},
		},
		{
			Conditions: []model.RuleCondition{
				{Field: model.FieldMake, Operator: model.OperatorEquals, Value: "nissan"},
			},
			Action: model.RuleAction{SetMake: "NISSAN", SetModel: "SUNNY"},
		},
	}

	results := mapData(t, m, Request{
		SourceRows: []model.Row{srcRow("Nissan", "Patrol")},
		ReferenceRows: []model.Row{
			refRow("NISSAN", "PATROL", "N-01"),
			refRow("NISSAN", "SUNNY", "N-02"),
		},
		Rules:            rules,
		SourceColumns:    sourceCols(),
		ReferenceColumns: refCols(),
	})

	r := results[0]
	assert.NotEqual(t, model.StatusMatchedRule, r.Status)
	assert.Equal(t, model.StatusNoMatch, r.Status)
	assert.Contains(t, r.Reason, "ambiguous")
}

func TestRuleActionMissingFromReferenceFallsThrough(t *testing.T) {
	m := NewMapper(testConfig(), nil)

	results := mapData(t, m, Request{
		SourceRows:    []model.Row{srcRow("Nissan", "Patrol")},
		ReferenceRows: []model.Row{refRow("NISSAN", "PATROL", "N-01")},
		Rules: []model.LearnedRule{
			{
				Conditions: []model.RuleCondition{
					{Field: model.FieldModel, Operator: model.OperatorContains, Value: "patrol"},
				},
				Action: model.RuleAction{SetMake: "NISSAN", SetModel: "PATROL SUPER SAFARI"},
			},
		},
		SourceColumns:    sourceCols(),
		ReferenceColumns: refCols(),
	})

	// The fuzzy layer still gets its chance.
	assert.Equal(t, model.StatusMatchedFuzzy, results[0].Status)
}

func TestFuzzyScoreRecordedBelowThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.FuzzyThreshold = 0.95
	m := NewMapper(cfg, nil)

	results := mapData(t, m, Request{
		SourceRows:       []model.Row{srcRow("Toyota", "Corolla")},
		ReferenceRows:    []model.Row{refRow("TOYOTA", "COROLA", "TC-03")},
		SourceColumns:    sourceCols(),
		ReferenceColumns: refCols(),
	})

	r := results[0]
	assert.Equal(t, model.StatusNoMatch, r.Status)
	assert.True(t, r.HasActualFuzzyScore)
	assert.Greater(t, r.ActualFuzzyScore, 0.8)
	assert.Less(t, r.ActualFuzzyScore, 0.95)
}

func TestFuzzyMakeRecovery(t *testing.T) {
	m := NewMapper(testConfig(), nil)

	results := mapData(t, m, Request{
		SourceRows:       []model.Row{srcRow("Mitsubish", "Lancer")},
		ReferenceRows:    []model.Row{refRow("MITSUBISHI", "LANCER", "ML-01")},
		SourceColumns:    sourceCols(),
		ReferenceColumns: refCols(),
	})

	r := results[0]
	assert.Equal(t, model.StatusMatchedFuzzy, r.Status)
	assert.Contains(t, r.Reason, "corrected make")
}

func TestSemanticAcceptance(t *testing.T) {
	cfg := testConfig()
	cfg.FuzzyThreshold = 0.99
	provider := NewMockProvider()
	provider.SemanticFunc = func(_ context.Context, tasks []llm.SemanticTask) ([]llm.SemanticResult, error) {
		results := make([]llm.SemanticResult, 0, len(tasks))
		for _, task := range tasks {
			results = append(results, llm.SemanticResult{
				RecordID:      task.RecordID,
				MatchedIndex:  1,
				Confidence:    0.9,
				HasConfidence: true,
				Reason:        "same model line",
			})
		}
		return results, nil
	}
	m := NewMapper(cfg, provider)

	results := mapData(t, m, Request{
		SourceRows:       []model.Row{srcRow("Toyota", "Land Cruiser Prado")},
		ReferenceRows:    []model.Row{refRow("TOYOTA", "PRADO", "TP-01")},
		SourceColumns:    sourceCols(),
		ReferenceColumns: refCols(),
	})

	r := results[0]
	assert.Equal(t, model.StatusMatchedSemanticLLM, r.Status)
	assert.Equal(t, "PRADO", r.MatchedModel)
	assert.Equal(t, "TP-01", r.MatchedCodes["Code"])
	assert.NotEmpty(t, r.CandidateModels)
}

func TestSemanticRejectionEscalatesToWebSearch(t *testing.T) {
	cfg := testConfig()
	cfg.FuzzyThreshold = 0.99
	provider := NewMockProvider()
	provider.SemanticFunc = func(_ context.Context, tasks []llm.SemanticTask) ([]llm.SemanticResult, error) {
		results := make([]llm.SemanticResult, 0, len(tasks))
		for _, task := range tasks {
			results = append(results, llm.SemanticResult{RecordID: task.RecordID, Reason: "no candidate fits"})
		}
		return results, nil
	}
	provider.MatchFunc = func(_ context.Context, tasks []llm.MatchTask, _ []llm.ReferenceItem) ([]llm.MatchAnswer, error) {
		answers := make([]llm.MatchAnswer, 0, len(tasks))
		for _, task := range tasks {
			answers = append(answers, llm.MatchAnswer{
				RecordID:      task.RecordID,
				MatchedMake:   "TOYOTA",
				MatchedModel:  "PRADO",
				Confidence:    0.85,
				HasConfidence: true,
				Reason:        "regional trade name",
				Sources:       []model.Source{{URI: "https://example.com", Title: "specs"}},
			})
		}
		return answers, nil
	}
	m := NewMapper(cfg, provider)

	results := mapData(t, m, Request{
		SourceRows:       []model.Row{srcRow("Toyota", "Land Cruiser Prado")},
		ReferenceRows:    []model.Row{refRow("TOYOTA", "PRADO", "TP-01")},
		SourceColumns:    sourceCols(),
		ReferenceColumns: refCols(),
	})

	r := results[0]
	assert.Equal(t, 1, provider.SemanticCalls)
	assert.Equal(t, 1, provider.MatchCalls)
	assert.Equal(t, model.StatusMatchedAI, r.Status)
	assert.Equal(t, "TP-01", r.MatchedCodes["Code"])
	require.Len(t, r.ExternalSources, 1)
}

func TestSemanticOutOfRangeIndexIsError(t *testing.T) {
	cfg := testConfig()
	cfg.FuzzyThreshold = 0.99
	provider := NewMockProvider()
	provider.SemanticFunc = func(_ context.Context, tasks []llm.SemanticTask) ([]llm.SemanticResult, error) {
		results := make([]llm.SemanticResult, 0, len(tasks))
		for _, task := range tasks {
			results = append(results, llm.SemanticResult{
				RecordID:      task.RecordID,
				MatchedIndex:  7,
				Confidence:    0.9,
				HasConfidence: true,
			})
		}
		return results, nil
	}
	m := NewMapper(cfg, provider)

	results := mapData(t, m, Request{
		SourceRows:       []model.Row{srcRow("Toyota", "Land Cruiser Prado")},
		ReferenceRows:    []model.Row{refRow("TOYOTA", "PRADO", "TP-01")},
		SourceColumns:    sourceCols(),
		ReferenceColumns: refCols(),
	})

	assert.Equal(t, model.StatusErrorAI, results[0].Status)
	assert.Zero(t, provider.MatchCalls)
}

func TestProviderFailureMarksBatchAsError(t *testing.T) {
	cfg := testConfig()
	cfg.UseFuzzyLayer = false
	provider := NewMockProvider()
	provider.SemanticFunc = func(_ context.Context, _ []llm.SemanticTask) ([]llm.SemanticResult, error) {
		return nil, errors.New("auth failure")
	}
	m := NewMapper(cfg, provider)

	results := mapData(t, m, Request{
		SourceRows: []model.Row{
			srcRow("Toyota", "Land Cruiser Prado"),
			srcRow("Toyota", "Camry XLE"),
		},
		ReferenceRows: []model.Row{
			refRow("TOYOTA", "PRADO", "TP-01"),
			refRow("TOYOTA", "CAMRY", "TC-01"),
		},
		SourceColumns:    sourceCols(),
		ReferenceColumns: refCols(),
	})

	for _, r := range results {
		assert.Equal(t, model.StatusErrorAI, r.Status)
		assert.Contains(t, r.Reason, "failed")
	}
}

func TestUnsupportedWebSearchEndsAsNoMatch(t *testing.T) {
	cfg := testConfig()
	cfg.UseKnowledgeLayer = false
	cfg.UseRuleLayer = false
	cfg.UseFuzzyLayer = false
	provider := NewMockProvider()
	provider.WebSearchCapable = false
	provider.MatchFunc = func(_ context.Context, tasks []llm.MatchTask, _ []llm.ReferenceItem) ([]llm.MatchAnswer, error) {
		answers := make([]llm.MatchAnswer, 0, len(tasks))
		for _, task := range tasks {
			answers = append(answers, llm.MatchAnswer{
				RecordID:    task.RecordID,
				Reason:      "web search matching not supported",
				Unsupported: true,
			})
		}
		return answers, nil
	}
	provider.SemanticFunc = func(_ context.Context, tasks []llm.SemanticTask) ([]llm.SemanticResult, error) {
		results := make([]llm.SemanticResult, 0, len(tasks))
		for _, task := range tasks {
			results = append(results, llm.SemanticResult{RecordID: task.RecordID})
		}
		return results, nil
	}
	m := NewMapper(cfg, provider)

	results := mapData(t, m, Request{
		SourceRows:       []model.Row{srcRow("BYD", "Qin Plus")},
		ReferenceRows:    []model.Row{refRow("AUDI", "S6", "A-01")},
		SourceColumns:    sourceCols(),
		ReferenceColumns: refCols(),
	})

	assert.Equal(t, model.StatusNoMatch, results[0].Status)
}

func TestProgressReportedOncePerRecord(t *testing.T) {
	m := NewMapper(testConfig(), nil)

	var calls []string
	onProgress := func(res *model.MatchResult, processed, total int) {
		calls = append(calls, res.Source.ID)
		assert.Equal(t, 3, total)
		assert.Equal(t, len(calls)-1, processed)
	}

	_, err := m.MapData(context.Background(), Request{
		SourceRows: []model.Row{
			srcRow("Toyota", "Camry"),
			srcRow("Nissan", ""),
			srcRow("Unknown", "Thing"),
		},
		ReferenceRows:    []model.Row{refRow("TOYOTA", "CAMRY", "TC-01")},
		SourceColumns:    sourceCols(),
		ReferenceColumns: refCols(),
	}, onProgress)
	require.NoError(t, err)

	require.Len(t, calls, 3)
	seen := make(map[string]bool, len(calls))
	for _, id := range calls {
		assert.False(t, seen[id], "record %s reported twice", id)
		seen[id] = true
	}
}

func TestEmptyReferenceIsError(t *testing.T) {
	m := NewMapper(testConfig(), nil)
	_, err := m.MapData(context.Background(), Request{
		SourceRows:       []model.Row{srcRow("Toyota", "Camry")},
		SourceColumns:    sourceCols(),
		ReferenceColumns: refCols(),
	}, nil)
	require.Error(t, err)
}

func TestCancellationBetweenBatches(t *testing.T) {
	cfg := testConfig()
	cfg.SemanticBatchSize = 1
	cfg.BatchDelay = time.Millisecond
	cfg.UseFuzzyLayer = false

	ctx, cancel := context.WithCancel(context.Background())
	provider := NewMockProvider()
	provider.SemanticFunc = func(_ context.Context, tasks []llm.SemanticTask) ([]llm.SemanticResult, error) {
		cancel()
		results := make([]llm.SemanticResult, 0, len(tasks))
		for _, task := range tasks {
			results = append(results, llm.SemanticResult{
				RecordID:      task.RecordID,
				MatchedIndex:  1,
				Confidence:    0.9,
				HasConfidence: true,
			})
		}
		return results, nil
	}
	m := NewMapper(cfg, provider)

	_, err := m.MapData(ctx, Request{
		SourceRows: []model.Row{
			srcRow("Toyota", "Land Cruiser Prado"),
			srcRow("Toyota", "Camry XLE"),
		},
		ReferenceRows: []model.Row{
			refRow("TOYOTA", "PRADO", "TP-01"),
			refRow("TOYOTA", "CAMRY", "TC-01"),
		},
		SourceColumns:    sourceCols(),
		ReferenceColumns: refCols(),
	}, nil)

	assert.ErrorIs(t, err, context.Canceled)
}
