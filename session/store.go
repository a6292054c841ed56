// Package session keeps the partially built filter of each conversation.
package session

import (
	"sync"

	"github.com/google/uuid"
	"inmo_scrooper/models"
)

// Store maps session IDs to filters. Filters are replaced whole on every
// update, so a value returned by Get is never modified afterwards.
type Store struct {
	mu      sync.RWMutex
	filters map[string]models.SearchFilter
}

func NewStore() *Store {
	return &Store{filters: make(map[string]models.SearchFilter)}
}

// NewID starts an empty session.
func (s *Store) NewID() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.filters[id] = models.SearchFilter{}
	s.mu.Unlock()
	return id
}

// Apply merges partial onto the session's filter and returns the result.
// Unknown IDs start from an empty filter.
func (s *Store) Apply(id string, partial models.SearchFilter) models.SearchFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := models.MergeFilter(s.filters[id], partial)
	s.filters[id] = merged
	return merged
}

// Set replaces the session's filter.
func (s *Store) Set(id string, f models.SearchFilter) {
	s.mu.Lock()
	s.filters[id] = f
	s.mu.Unlock()
}

func (s *Store) Get(id string) (models.SearchFilter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.filters[id]
	return f, ok
}

// Reset clears the filter but keeps the session.
func (s *Store) Reset(id string) {
	s.mu.Lock()
	s.filters[id] = models.SearchFilter{}
	s.mu.Unlock()
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.filters, id)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.filters)
}
