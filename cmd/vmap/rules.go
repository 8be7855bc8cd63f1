package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage learned matching rules",
		Long:  `View and delete the deterministic rules learned from high-confidence matches.`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesDeleteCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all learned rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rules, err := store.GetRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to load rules: %w", err)
			}
			if len(rules) == 0 {
				slog.Info("No learned rules yet")
				return nil
			}

			for _, r := range rules {
				conditions := make([]string, 0, len(r.Conditions))
				for _, c := range r.Conditions {
					conditions = append(conditions, fmt.Sprintf("%s %s %q", c.Field, c.Operator, c.Value))
				}
				slog.Info("Rule",
					"hash", r.Hash(),
					"conditions", conditions,
					"set_make", r.Action.SetMake,
					"set_model", r.Action.SetModel)
			}
			return nil
		},
	}
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <hash>",
		Short: "Delete a learned rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteRule(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete rule %s: %w", args[0], err)
			}
			slog.Info("Rule deleted", "hash", args[0])
			return nil
		},
	}
}
