package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/7610venki/vehicle-data-mapper/internal/model"
)

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage saved mapping sessions",
		Long:  `List, inspect, and delete saved mapping runs.`,
	}

	cmd.AddCommand(sessionsListCmd())
	cmd.AddCommand(sessionsShowCmd())
	cmd.AddCommand(sessionsDeleteCmd())

	return cmd
}

func sessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			sessions, err := store.ListSessions(ctx)
			if err != nil {
				return fmt.Errorf("failed to list sessions: %w", err)
			}
			if len(sessions) == 0 {
				slog.Info("No saved sessions yet")
				return nil
			}

			for _, s := range sessions {
				slog.Info("Session",
					"id", s.ID,
					"name", s.Name,
					"records", s.ResultCount,
					"created", s.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func sessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			session, err := store.GetSession(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load session %s: %w", args[0], err)
			}

			counts := make(map[model.MatchStatus]int)
			for i := range session.Results {
				counts[session.Results[i].Status]++
			}

			slog.Info("Session",
				"id", session.ID,
				"name", session.Name,
				"created", session.CreatedAt.Format("2006-01-02 15:04"),
				"source", session.Params.SourceFile,
				"reference", session.Params.ReferenceFile,
				"layers", session.Params.Layers,
				"fuzzy_threshold", session.Params.FuzzyThreshold)
			slog.Info("Results",
				"records", len(session.Results),
				"knowledge", counts[model.StatusMatchedKnowledge],
				"rules", counts[model.StatusMatchedRule],
				"fuzzy", counts[model.StatusMatchedFuzzy],
				"semantic", counts[model.StatusMatchedSemanticLLM],
				"ai", counts[model.StatusMatchedAI],
				"errors", counts[model.StatusErrorAI],
				"no_match", counts[model.StatusNoMatch])
			return nil
		},
	}
}

func sessionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteSession(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete session %s: %w", args[0], err)
			}
			slog.Info("Session deleted", "id", args[0])
			return nil
		},
	}
}
