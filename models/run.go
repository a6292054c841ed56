package models

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusEmpty     RunStatus = "empty"
	RunStatusFailed    RunStatus = "failed"
)

// SearchRun is the audit record of one executed search. It never carries the
// listings themselves.
type SearchRun struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Source        string     `json:"source" db:"source"`
	Query         string     `json:"query" db:"query"`
	Path          string     `json:"path" db:"path"`
	Tier          int        `json:"tier" db:"tier"`
	ListingsFound int        `json:"listings_found" db:"listings_found"`
	ListingsNew   int        `json:"listings_new" db:"listings_new"`
	StartedAt     time.Time  `json:"started_at" db:"started_at"`
	FinishedAt    *time.Time `json:"finished_at" db:"finished_at"`
	Status        RunStatus  `json:"status" db:"status"`
}

func NewSearchRun(source, query string) *SearchRun {
	return &SearchRun{
		ID:        uuid.New(),
		Source:    source,
		Query:     query,
		StartedAt: time.Now(),
		Status:    RunStatusRunning,
	}
}

// Finish stamps the run with its outcome.
func (r *SearchRun) Finish(path string, tier, found int) {
	now := time.Now()
	r.FinishedAt = &now
	r.Path = path
	r.Tier = tier
	r.ListingsFound = found
	if found == 0 {
		r.Status = RunStatusEmpty
	} else {
		r.Status = RunStatusCompleted
	}
}

func (r *SearchRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
