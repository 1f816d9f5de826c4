package handlers

import (
	"sync"
	"time"

	"github.com/wonny/retailpulse/internal/contracts"
)

// ResultStore holds the latest published run
// ⭐ SSOT: handlers read run output only through the store
type ResultStore struct {
	mu          sync.RWMutex
	latest      *contracts.RunResult
	publishedAt time.Time
}

// NewResultStore creates an empty store
func NewResultStore() *ResultStore {
	return &ResultStore{}
}

// Publish replaces the latest run. The result must not be modified afterwards.
func (s *ResultStore) Publish(r *contracts.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = r
	s.publishedAt = time.Now()
}

// Latest returns the latest run, if any
func (s *ResultStore) Latest() (*contracts.RunResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latest != nil
}

// PublishedAt returns when the latest run was published
func (s *ResultStore) PublishedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.publishedAt
}
