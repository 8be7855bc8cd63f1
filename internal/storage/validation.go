package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/7610venki/vehicle-data-mapper/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidRule  = errors.New("invalid rule")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateKnowledge validates a knowledge entry map before writing.
func validateKnowledge(entries map[string][]model.KnowledgeEntry) error {
	if entries == nil {
		return fmt.Errorf("%w: entries", ErrNilParameter)
	}
	for key, candidates := range entries {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("%w: knowledge key", ErrEmptyString)
		}
		for i, c := range candidates {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("knowledge entry %q[%d]: %w", key, i, err)
			}
		}
	}
	return nil
}

// validateRules validates rules before writing.
func validateRules(rules []model.LearnedRule) error {
	if rules == nil {
		return fmt.Errorf("%w: rules", ErrNilParameter)
	}
	for i, r := range rules {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%w at index %d: %v", ErrInvalidRule, i, err)
		}
	}
	return nil
}

// validateSession validates a session before writing.
func validateSession(session *model.Session) error {
	if session == nil {
		return fmt.Errorf("%w: session", ErrNilParameter)
	}
	if session.ID == "" {
		return fmt.Errorf("%w: session ID", ErrEmptyString)
	}
	if session.CreatedAt.IsZero() {
		return errors.New("session created_at must be set")
	}
	return nil
}
