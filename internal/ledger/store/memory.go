// Package store provides the ledger's balance table implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"pointsd/internal/ledger/models"
)

// InMemoryBalanceStore keeps balances in a map keyed by user id. It backs
// unit tests and local development.
type InMemoryBalanceStore struct {
	mu       sync.RWMutex
	balances map[string]models.Balance
}

func NewMemory() *InMemoryBalanceStore {
	return &InMemoryBalanceStore{balances: make(map[string]models.Balance)}
}

func (s *InMemoryBalanceStore) Get(_ context.Context, userID string) (*models.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if record, ok := s.balances[userID]; ok {
		return &record, nil
	}
	return nil, nil
}

func (s *InMemoryBalanceStore) Create(_ context.Context, record models.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.balances[record.UserID]; exists {
		return fmt.Errorf("balance record for %q already exists", record.UserID)
	}
	s.balances[record.UserID] = record
	return nil
}

func (s *InMemoryBalanceStore) Upsert(_ context.Context, record models.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.balances[record.UserID]; ok && record.DisplayName == "" {
		record.DisplayName = existing.DisplayName
	}
	s.balances[record.UserID] = record
	return nil
}

func (s *InMemoryBalanceStore) SetBalance(_ context.Context, userID string, balance int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.balances[userID]
	if !ok {
		return fmt.Errorf("no balance record for %q", userID)
	}
	record.Balance = balance
	s.balances[userID] = record
	return nil
}

func (s *InMemoryBalanceStore) SetDisplayName(_ context.Context, userID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.balances[userID]
	if !ok {
		return fmt.Errorf("no balance record for %q", userID)
	}
	record.DisplayName = name
	s.balances[userID] = record
	return nil
}

func (s *InMemoryBalanceStore) TopN(_ context.Context, n int) ([]models.TopEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]models.TopEntry, 0, len(s.balances))
	for _, record := range s.balances {
		entries = append(entries, models.TopEntry{
			UserID:      record.UserID,
			DisplayName: record.DisplayName,
			Balance:     record.Balance,
		})
	}
	// Stable secondary order on user id keeps a single call deterministic;
	// ties are still unspecified across stores.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Balance == entries[j].Balance {
			return entries[i].UserID < entries[j].UserID
		}
		return entries[i].Balance > entries[j].Balance
	})
	if n < len(entries) {
		entries = entries[:n]
	}
	return entries, nil
}
