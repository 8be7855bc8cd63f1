package storage

import (
	"context"
	"fmt"

	"github.com/7610venki/vehicle-data-mapper/internal/model"
	"github.com/7610venki/vehicle-data-mapper/internal/service"
)

// knowledgeBatchSize bounds the rows written per transaction during a bulk
// import.
const knowledgeBatchSize = 500

type knowledgeRow struct {
	key   string
	entry model.KnowledgeEntry
}

// GetKnowledge loads the full knowledge store, keyed by source key.
func (s *SQLiteStorage) GetKnowledge(ctx context.Context) (map[string][]model.KnowledgeEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT source_key, ref_make, ref_model
		FROM knowledge_entries
		ORDER BY source_key, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	knowledge := make(map[string][]model.KnowledgeEntry)
	for rows.Next() {
		var key string
		var entry model.KnowledgeEntry
		if err := rows.Scan(&key, &entry.Make, &entry.Model); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge entry: %w", err)
		}
		knowledge[key] = append(knowledge[key], entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate knowledge entries: %w", err)
	}

	return knowledge, nil
}

// CountKnowledge returns the number of stored knowledge entries.
func (s *SQLiteStorage) CountKnowledge(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM knowledge_entries`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count knowledge entries: %w", err)
	}
	return count, nil
}

// BulkUpsertKnowledge writes entries in batches, skipping rows already
// present, and returns the number of rows actually inserted. onProgress,
// when non-nil, is called after every committed batch.
func (s *SQLiteStorage) BulkUpsertKnowledge(ctx context.Context, entries map[string][]model.KnowledgeEntry, onProgress service.ProgressFunc) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateKnowledge(entries); err != nil {
		return 0, err
	}

	var flat []knowledgeRow
	for key, candidates := range entries {
		for _, entry := range candidates {
			flat = append(flat, knowledgeRow{key: key, entry: entry})
		}
	}

	total := len(flat)
	inserted := 0

	for start := 0; start < total; start += knowledgeBatchSize {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}

		end := start + knowledgeBatchSize
		if end > total {
			end = total
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return inserted, fmt.Errorf("failed to begin transaction: %w", err)
		}

		for _, row := range flat[start:end] {
			res, execErr := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO knowledge_entries (source_key, ref_make, ref_model)
				VALUES (?, ?, ?)
			`, row.key, row.entry.Make, row.entry.Model)
			if execErr != nil {
				_ = tx.Rollback()
				return inserted, fmt.Errorf("failed to insert knowledge entry: %w", execErr)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				inserted++
			}
		}

		if err := tx.Commit(); err != nil {
			return inserted, fmt.Errorf("failed to commit knowledge batch: %w", err)
		}

		if onProgress != nil {
			onProgress(end, total)
		}
	}

	return inserted, nil
}

// ClearKnowledge removes every knowledge entry.
func (s *SQLiteStorage) ClearKnowledge(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM knowledge_entries`); err != nil {
		return fmt.Errorf("failed to clear knowledge entries: %w", err)
	}
	return nil
}
