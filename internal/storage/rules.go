package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/7610venki/vehicle-data-mapper/internal/common"
	"github.com/7610venki/vehicle-data-mapper/internal/model"
)

// GetRules loads all learned rules.
func (s *SQLiteStorage) GetRules(ctx context.Context) ([]model.LearnedRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT rule_hash, rule_json
		FROM learned_rules
		ORDER BY created_at, rule_hash
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.LearnedRule
	for rows.Next() {
		var hash, raw string
		if err := rows.Scan(&hash, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}

		var rule model.LearnedRule
		if err := json.Unmarshal([]byte(raw), &rule); err != nil {
			// A rule that no longer decodes is skipped, not fatal.
			slog.Warn("Skipping undecodable rule", "hash", hash, "error", err)
			continue
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}

	return rules, nil
}

// UpsertRules stores rules deduplicated by content hash and returns the
// number of newly inserted rules.
func (s *SQLiteStorage) UpsertRules(ctx context.Context, rules []model.LearnedRule) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateRules(rules); err != nil {
		return 0, err
	}
	if len(rules) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, rule := range rules {
		raw, marshalErr := json.Marshal(rule)
		if marshalErr != nil {
			return 0, fmt.Errorf("failed to marshal rule: %w", marshalErr)
		}

		res, execErr := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO learned_rules (rule_hash, rule_json)
			VALUES (?, ?)
		`, rule.Hash(), string(raw))
		if execErr != nil {
			return 0, fmt.Errorf("failed to insert rule: %w", execErr)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit rules: %w", err)
	}
	return inserted, nil
}

// DeleteRule removes a rule by its content hash.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, hash string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(hash, "hash"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM learned_rules WHERE rule_hash = ?`, hash)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("rule %s: %w", hash, common.ErrNotFound)
	}
	return nil
}
