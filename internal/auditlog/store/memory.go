// Package store provides the audit log's row-store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"pointsd/internal/auditlog"
)

// InMemoryStore keeps audit entries in a map keyed by id. It backs unit
// tests and local development.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[int64]auditlog.Entry
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{entries: make(map[int64]auditlog.Entry)}
}

func (s *InMemoryStore) IDsAscending(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *InMemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.entries)), nil
}

func (s *InMemoryStore) OldestIDs(_ context.Context, limit int) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.sortedByTime()
	if limit < len(entries) {
		entries = entries[:limit]
	}
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids, nil
}

func (s *InMemoryStore) Insert(_ context.Context, entry auditlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = entry
	return nil
}

func (s *InMemoryStore) Upsert(_ context.Context, entry auditlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = entry
	return nil
}

func (s *InMemoryStore) DeleteByIDs(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.entries, id)
	}
	return nil
}

func (s *InMemoryStore) List(_ context.Context, limit int) ([]auditlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.sortedByTime()
	// newest first
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

// Get returns the entry at id. Tests use it to assert slot contents.
func (s *InMemoryStore) Get(_ context.Context, id int64) (auditlog.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	return entry, ok
}

// sortedByTime returns entries ordered by timestamp ascending, ties broken
// by id so results stay deterministic within a call. Callers hold the lock.
func (s *InMemoryStore) sortedByTime() []auditlog.Entry {
	entries := make([]auditlog.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries
}
