package storage

import (
	"context"
	"sort"
	"sync"

	"inmo_scrooper/models"
)

// Store keeps the search audit trail and the listing IDs each saved search
// has already reported.
type Store interface {
	RecordRun(ctx context.Context, run *models.SearchRun) error
	RecentRuns(ctx context.Context, limit int) ([]models.SearchRun, error)
	// MarkSeen records ids under search and returns the ones not seen before,
	// in input order.
	MarkSeen(ctx context.Context, search string, ids []string) ([]string, error)
	Close() error
}

// Open picks Postgres when a connection string is set, SQLite otherwise.
func Open(ctx context.Context, dbURL, dbPath string) (Store, error) {
	if dbURL != "" {
		pg, err := NewPostgresStore(ctx, dbURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	if dbPath != "" {
		lite, err := NewSQLiteStore(dbPath)
		if err != nil {
			return nil, err
		}
		return lite, nil
	}
	return NewMemoryStore(), nil
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu   sync.Mutex
	runs []models.SearchRun
	seen map[string]map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]map[string]bool)}
}

func (m *MemoryStore) RecordRun(ctx context.Context, run *models.SearchRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == run.ID {
			m.runs[i] = *run
			return nil
		}
	}
	m.runs = append(m.runs, *run)
	return nil
}

func (m *MemoryStore) RecentRuns(ctx context.Context, limit int) ([]models.SearchRun, error) {
	m.mu.Lock()
	runs := make([]models.SearchRun, len(m.runs))
	copy(runs, m.runs)
	m.mu.Unlock()

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (m *MemoryStore) MarkSeen(ctx context.Context, search string, ids []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.seen[search]
	if !ok {
		set = make(map[string]bool)
		m.seen[search] = set
	}
	var fresh []string
	for _, id := range ids {
		if set[id] {
			continue
		}
		set[id] = true
		fresh = append(fresh, id)
	}
	return fresh, nil
}

func (m *MemoryStore) Close() error { return nil }
