// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/7610venki/vehicle-data-mapper/internal/model"
)

// ProgressFunc reports incremental progress for long-running operations.
type ProgressFunc func(done, total int)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Knowledge operations
	GetKnowledge(ctx context.Context) (map[string][]model.KnowledgeEntry, error)
	CountKnowledge(ctx context.Context) (int, error)
	BulkUpsertKnowledge(ctx context.Context, entries map[string][]model.KnowledgeEntry, onProgress ProgressFunc) (int, error)
	ClearKnowledge(ctx context.Context) error

	// Rule operations
	GetRules(ctx context.Context) ([]model.LearnedRule, error)
	UpsertRules(ctx context.Context, rules []model.LearnedRule) (int, error)
	DeleteRule(ctx context.Context, hash string) error

	// Session operations
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	ListSessions(ctx context.Context) ([]model.SessionSummary, error)
	DeleteSession(ctx context.Context, id string) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
