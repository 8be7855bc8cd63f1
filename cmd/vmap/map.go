package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/7610venki/vehicle-data-mapper/internal/engine"
	"github.com/7610venki/vehicle-data-mapper/internal/export"
	"github.com/7610venki/vehicle-data-mapper/internal/llm"
	"github.com/7610venki/vehicle-data-mapper/internal/model"
	"github.com/7610venki/vehicle-data-mapper/internal/parser"
	"github.com/7610venki/vehicle-data-mapper/internal/service"
)

func mapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Map a source dataset against a reference dataset",
		Long: `Run the matching cascade over a source CSV file, resolving every record
against the reference CSV file. Results are written to an output CSV.

Examples:
  # Minimal run with default column names
  vmap map --source fleet.csv --reference insurer_codes.csv

  # Explicit columns and extra reference code columns
  vmap map --source fleet.csv --reference insurer_codes.csv \
    --source-make "Vehicle Make" --source-model "Vehicle Model" \
    --reference-make "IC Make" --reference-model "IC Model" \
    --codes "IC Code,Body Code" --output matched.csv

  # Offline run without the AI layer
  vmap map --source fleet.csv --reference insurer_codes.csv --no-ai`,
		RunE: runMap,
	}

	cmd.Flags().StringP("source", "s", "", "source CSV file (required)")
	cmd.Flags().StringP("reference", "r", "", "reference CSV file (required)")
	cmd.Flags().StringP("output", "o", "mapped.csv", "output CSV file")
	cmd.Flags().String("source-make", "Make", "source make column name")
	cmd.Flags().String("source-model", "Model", "source model column name")
	cmd.Flags().String("reference-make", "Make", "reference make column name")
	cmd.Flags().String("reference-model", "Model", "reference model column name")
	cmd.Flags().StringSlice("codes", nil, "reference code columns to carry into the output")
	cmd.Flags().StringSlice("extra-columns", nil, "additional source columns to carry into the output")
	cmd.Flags().Float64("threshold", 0, "fuzzy acceptance threshold (0 uses the default)")
	cmd.Flags().Bool("no-knowledge", false, "disable the knowledge layer")
	cmd.Flags().Bool("no-rules", false, "disable the rule layer")
	cmd.Flags().Bool("no-fuzzy", false, "disable the fuzzy layer")
	cmd.Flags().Bool("no-ai", false, "disable the AI escalation layer")
	cmd.Flags().Bool("learn", true, "feed high-confidence matches back into the knowledge base")
	cmd.Flags().Bool("learn-rules", false, "propose and persist new rules from high-confidence matches")
	cmd.Flags().String("session", "", "save the run under this session name")

	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("reference")

	return cmd
}

func runMap(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	sourceFile, _ := cmd.Flags().GetString("source")
	referenceFile, _ := cmd.Flags().GetString("reference")
	outputFile, _ := cmd.Flags().GetString("output")
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	noKnowledge, _ := cmd.Flags().GetBool("no-knowledge")
	noRules, _ := cmd.Flags().GetBool("no-rules")
	noFuzzy, _ := cmd.Flags().GetBool("no-fuzzy")
	noAI, _ := cmd.Flags().GetBool("no-ai")
	learn, _ := cmd.Flags().GetBool("learn")
	learnRules, _ := cmd.Flags().GetBool("learn-rules")
	sessionName, _ := cmd.Flags().GetString("session")

	srcCols, refCols, err := readColumnFlags(cmd)
	if err != nil {
		return err
	}

	srcHeaders, srcRows, err := parser.ParseFile(sourceFile)
	if err != nil {
		return fmt.Errorf("failed to parse source file: %w", err)
	}
	if err := parser.RequireColumns(srcHeaders, srcCols.Make, srcCols.Model); err != nil {
		return fmt.Errorf("source file: %w", err)
	}

	refHeaders, refRows, err := parser.ParseFile(referenceFile)
	if err != nil {
		return fmt.Errorf("failed to parse reference file: %w", err)
	}
	required := append([]string{refCols.Make, refCols.Model}, refCols.Codes...)
	if err := parser.RequireColumns(refHeaders, required...); err != nil {
		return fmt.Errorf("reference file: %w", err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	cfg := engine.DefaultConfig()
	cfg.UseKnowledgeLayer = !noKnowledge
	cfg.UseRuleLayer = !noRules
	cfg.UseFuzzyLayer = !noFuzzy
	cfg.UseAILayer = !noAI
	if threshold > 0 {
		cfg.FuzzyThreshold = threshold
	}

	var provider llm.Provider
	if cfg.UseAILayer {
		provider, err = createProvider()
		if err != nil {
			return err
		}
	}

	req := engine.Request{
		SourceRows:       srcRows,
		ReferenceRows:    refRows,
		SourceColumns:    srcCols,
		ReferenceColumns: refCols,
	}
	if cfg.UseKnowledgeLayer {
		req.Knowledge, err = store.GetKnowledge(ctx)
		if err != nil {
			return fmt.Errorf("failed to load knowledge base: %w", err)
		}
	}
	if cfg.UseRuleLayer {
		req.Rules, err = store.GetRules(ctx)
		if err != nil {
			return fmt.Errorf("failed to load rules: %w", err)
		}
	}

	bar := progressbar.NewOptions(len(srcRows),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Matching records..."),
	)

	mapper := engine.NewMapper(cfg, provider)
	results, err := mapper.MapData(ctx, req, func(_ *model.MatchResult, _, _ int) {
		_ = bar.Add(1)
	})
	if err != nil {
		return fmt.Errorf("mapping failed: %w", err)
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	if err := export.WriteCSVFile(outputFile, results, srcCols, refCols); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	logRunSummary(results, outputFile)

	if sessionName != "" {
		if err := saveSession(ctx, store, sessionName, sourceFile, referenceFile, cfg, results); err != nil {
			slog.Error("Failed to save session", "name", sessionName, "error", err)
		}
	}

	if learn || learnRules {
		report := mapper.Learn(ctx, results, store, engine.LearnOptions{
			Knowledge: learn,
			Rules:     learnRules,
		})
		for _, lerr := range report.Errors {
			slog.Warn("Learning step failed", "error", lerr)
		}
		slog.Info("Learning complete",
			"high_confidence", report.HighConfidence,
			"knowledge_inserted", report.KnowledgeInserted,
			"rules_proposed", report.RulesProposed,
			"rules_accepted", report.RulesAccepted)
	}

	return nil
}

func readColumnFlags(cmd *cobra.Command) (model.SourceColumns, model.ReferenceColumns, error) {
	sourceMake, _ := cmd.Flags().GetString("source-make")
	sourceModel, _ := cmd.Flags().GetString("source-model")
	referenceMake, _ := cmd.Flags().GetString("reference-make")
	referenceModel, _ := cmd.Flags().GetString("reference-model")
	codes, _ := cmd.Flags().GetStringSlice("codes")
	extra, _ := cmd.Flags().GetStringSlice("extra-columns")

	if sourceMake == "" || sourceModel == "" {
		return model.SourceColumns{}, model.ReferenceColumns{}, fmt.Errorf("source make and model columns must not be empty")
	}
	if referenceMake == "" || referenceModel == "" {
		return model.SourceColumns{}, model.ReferenceColumns{}, fmt.Errorf("reference make and model columns must not be empty")
	}

	srcCols := model.SourceColumns{
		Make:          sourceMake,
		Model:         sourceModel,
		OutputColumns: extra,
	}
	refCols := model.ReferenceColumns{
		Make:  referenceMake,
		Model: referenceModel,
		Codes: codes,
	}
	return srcCols, refCols, nil
}

func logRunSummary(results []model.MatchResult, outputFile string) {
	counts := make(map[model.MatchStatus]int)
	for i := range results {
		counts[results[i].Status]++
	}
	slog.Info("Mapping finished",
		"records", len(results),
		"knowledge", counts[model.StatusMatchedKnowledge],
		"rules", counts[model.StatusMatchedRule],
		"fuzzy", counts[model.StatusMatchedFuzzy],
		"semantic", counts[model.StatusMatchedSemanticLLM],
		"ai", counts[model.StatusMatchedAI],
		"errors", counts[model.StatusErrorAI],
		"no_match", counts[model.StatusNoMatch],
		"output", outputFile)
}

func saveSession(ctx context.Context, store service.Storage, name, sourceFile, referenceFile string, cfg engine.Config, results []model.MatchResult) error {
	var layers []string
	if cfg.UseKnowledgeLayer {
		layers = append(layers, "knowledge")
	}
	if cfg.UseRuleLayer {
		layers = append(layers, "rules")
	}
	if cfg.UseFuzzyLayer {
		layers = append(layers, "fuzzy")
	}
	if cfg.UseAILayer {
		layers = append(layers, "ai")
	}

	session := &model.Session{
		CreatedAt: time.Now().UTC(),
		ID:        uuid.NewString(),
		Name:      name,
		Params: model.SessionParams{
			SourceFile:     sourceFile,
			ReferenceFile:  referenceFile,
			Layers:         layers,
			FuzzyThreshold: cfg.FuzzyThreshold,
		},
		Results: results,
	}
	if err := store.SaveSession(ctx, session); err != nil {
		return err
	}
	slog.Info("Session saved", "id", session.ID, "name", name)
	return nil
}
