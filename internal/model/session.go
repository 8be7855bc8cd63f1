package model

import "time"

// SessionParams captures the settings a mapping run was executed with.
type SessionParams struct {
	SourceFile     string   `json:"source_file"`
	ReferenceFile  string   `json:"reference_file"`
	Layers         []string `json:"layers"`
	FuzzyThreshold float64  `json:"fuzzy_threshold"`
}

// Session is a saved snapshot of a completed mapping run.
type Session struct {
	CreatedAt time.Time     `json:"created_at"`
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Params    SessionParams `json:"params"`
	Results   []MatchResult `json:"results"`
}

// SessionSummary is the listing view of a session, without its results.
type SessionSummary struct {
	CreatedAt   time.Time
	ID          string
	Name        string
	ResultCount int
}
