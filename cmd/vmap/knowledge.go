package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/7610venki/vehicle-data-mapper/internal/model"
	"github.com/7610venki/vehicle-data-mapper/internal/normalize"
	"github.com/7610venki/vehicle-data-mapper/internal/parser"
	"github.com/7610venki/vehicle-data-mapper/internal/service"
)

func knowledgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Manage the learned knowledge base",
		Long:  `View, import, and clear the historical make/model mappings learned from past runs.`,
	}

	cmd.AddCommand(knowledgeStatsCmd())
	cmd.AddCommand(knowledgeListCmd())
	cmd.AddCommand(knowledgeImportCmd())
	cmd.AddCommand(knowledgeClearCmd())

	return cmd
}

func knowledgeStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show knowledge base statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			count, err := store.CountKnowledge(ctx)
			if err != nil {
				return fmt.Errorf("failed to count knowledge entries: %w", err)
			}
			knowledge, err := store.GetKnowledge(ctx)
			if err != nil {
				return fmt.Errorf("failed to load knowledge base: %w", err)
			}

			slog.Info("Knowledge base", "entries", count, "keys", len(knowledge))
			return nil
		},
	}
}

func knowledgeListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List knowledge entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			knowledge, err := store.GetKnowledge(ctx)
			if err != nil {
				return fmt.Errorf("failed to load knowledge base: %w", err)
			}
			if len(knowledge) == 0 {
				slog.Info("No knowledge entries yet")
				return nil
			}

			keys := make([]string, 0, len(knowledge))
			for key := range knowledge {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			if limit > 0 && len(keys) > limit {
				keys = keys[:limit]
			}

			for _, key := range keys {
				for _, entry := range knowledge[key] {
					slog.Info("Entry", "source", key, "make", entry.Make, "model", entry.Model)
				}
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 50, "maximum number of source keys to show (0 for all)")

	return cmd
}

func knowledgeImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import confirmed mappings from a CSV file",
		Long: `Import confirmed make/model mappings from a CSV file. The file needs four
columns: the source make and model as they appear in raw data, and the
reference make and model they resolve to. Values are normalized on import.`,
		Args: cobra.ExactArgs(1),
		RunE: runKnowledgeImport,
	}

	cmd.Flags().String("source-make", "Source Make", "source make column name")
	cmd.Flags().String("source-model", "Source Model", "source model column name")
	cmd.Flags().String("mapped-make", "Mapped Make", "mapped make column name")
	cmd.Flags().String("mapped-model", "Mapped Model", "mapped model column name")

	return cmd
}

func runKnowledgeImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sourceMake, _ := cmd.Flags().GetString("source-make")
	sourceModel, _ := cmd.Flags().GetString("source-model")
	mappedMake, _ := cmd.Flags().GetString("mapped-make")
	mappedModel, _ := cmd.Flags().GetString("mapped-model")

	headers, rows, err := parser.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to parse import file: %w", err)
	}
	if err := parser.RequireColumns(headers, sourceMake, sourceModel, mappedMake, mappedModel); err != nil {
		return err
	}

	knowledge := make(map[string][]model.KnowledgeEntry)
	skipped := 0
	for _, row := range rows {
		srcMake := normalize.Normalize(row[sourceMake])
		srcBase := normalize.ExtractBaseModel(row[sourceModel])
		entry := model.KnowledgeEntry{
			Make:  normalize.Normalize(row[mappedMake]),
			Model: normalize.ExtractBaseModel(row[mappedModel]),
		}
		if srcMake == "" || srcBase == "" || entry.Make == "" || entry.Model == "" {
			skipped++
			continue
		}
		key := model.KnowledgeKey(srcMake, srcBase)
		knowledge[key] = append(knowledge[key], entry)
	}
	if skipped > 0 {
		slog.Warn("Skipped rows with missing make or model data", "rows", skipped)
	}
	if len(knowledge) == 0 {
		return fmt.Errorf("no importable rows found in %s", args[0])
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Importing knowledge..."),
	)
	var onProgress service.ProgressFunc = func(done, total int) {
		bar.ChangeMax(total)
		_ = bar.Set(done)
	}

	inserted, err := store.BulkUpsertKnowledge(ctx, knowledge, onProgress)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	slog.Info("Knowledge import complete", "inserted", inserted, "keys", len(knowledge))
	return nil
}

func knowledgeClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all knowledge entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			confirmed, _ := cmd.Flags().GetBool("yes")
			if !confirmed {
				return fmt.Errorf("refusing to clear the knowledge base without --yes")
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.ClearKnowledge(ctx); err != nil {
				return fmt.Errorf("failed to clear knowledge base: %w", err)
			}
			slog.Info("Knowledge base cleared")
			return nil
		},
	}

	cmd.Flags().Bool("yes", false, "confirm the deletion")

	return cmd
}
