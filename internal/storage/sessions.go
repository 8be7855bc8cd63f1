package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/7610venki/vehicle-data-mapper/internal/common"
	"github.com/7610venki/vehicle-data-mapper/internal/model"
)

// SaveSession stores a completed mapping run snapshot.
func (s *SQLiteStorage) SaveSession(ctx context.Context, session *model.Session) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSession(session); err != nil {
		return err
	}

	paramsJSON, err := json.Marshal(session.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal session params: %w", err)
	}
	resultsJSON, err := json.Marshal(session.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal session results: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO mapping_sessions (id, name, params_json, results_json, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			params_json = excluded.params_json,
			results_json = excluded.results_json
	`, session.ID, session.Name, string(paramsJSON), string(resultsJSON), session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetSession loads one session with its full result set.
func (s *SQLiteStorage) GetSession(ctx context.Context, id string) (*model.Session, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var session model.Session
	var paramsJSON, resultsJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, params_json, results_json, created_at
		FROM mapping_sessions
		WHERE id = ?
	`, id).Scan(&session.ID, &session.Name, &paramsJSON, &resultsJSON, &session.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err := json.Unmarshal([]byte(paramsJSON), &session.Params); err != nil {
		return nil, fmt.Errorf("failed to decode session params: %w", err)
	}
	if err := json.Unmarshal([]byte(resultsJSON), &session.Results); err != nil {
		return nil, fmt.Errorf("failed to decode session results: %w", err)
	}

	return &session, nil
}

// ListSessions returns summaries of all saved sessions, newest first.
func (s *SQLiteStorage) ListSessions(ctx context.Context) ([]model.SessionSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at, json_array_length(results_json)
		FROM mapping_sessions
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []model.SessionSummary
	for rows.Next() {
		var sum model.SessionSummary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.CreatedAt, &sum.ResultCount); err != nil {
			return nil, fmt.Errorf("failed to scan session summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return summaries, nil
}

// DeleteSession removes a session by ID.
func (s *SQLiteStorage) DeleteSession(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM mapping_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", id, common.ErrNotFound)
	}
	return nil
}
