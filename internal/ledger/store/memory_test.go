package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"pointsd/internal/ledger/models"
)

type InMemoryBalanceStoreSuite struct {
	suite.Suite
	store *InMemoryBalanceStore
	ctx   context.Context
}

func TestInMemoryBalanceStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBalanceStoreSuite))
}

func (s *InMemoryBalanceStoreSuite) SetupTest() {
	s.store = NewMemory()
	s.ctx = context.Background()
}

func (s *InMemoryBalanceStoreSuite) TestGet_MissingReturnsNil() {
	record, err := s.store.Get(s.ctx, "nobody")
	s.Require().NoError(err)
	s.Nil(record)
}

func (s *InMemoryBalanceStoreSuite) TestCreate() {
	s.Require().NoError(s.store.Create(s.ctx, models.Balance{UserID: "alice", Balance: 10}))

	record, err := s.store.Get(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().NotNil(record)
	s.Equal(int64(10), record.Balance)

	s.Error(s.store.Create(s.ctx, models.Balance{UserID: "alice"}), "duplicate create must fail")
}

func (s *InMemoryBalanceStoreSuite) TestUpsert_KeepsDisplayNameWhenIncomingEmpty() {
	s.Require().NoError(s.store.Create(s.ctx, models.Balance{UserID: "alice", DisplayName: "Alice", Balance: 10}))

	s.Require().NoError(s.store.Upsert(s.ctx, models.Balance{UserID: "alice", Balance: 20}))

	record, err := s.store.Get(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().NotNil(record)
	s.Equal(int64(20), record.Balance)
	s.Equal("Alice", record.DisplayName)

	s.Require().NoError(s.store.Upsert(s.ctx, models.Balance{UserID: "alice", DisplayName: "Alicia", Balance: 20}))
	record, err = s.store.Get(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("Alicia", record.DisplayName)
}

func (s *InMemoryBalanceStoreSuite) TestSetBalance() {
	s.Error(s.store.SetBalance(s.ctx, "nobody", 5), "missing record must fail")

	s.Require().NoError(s.store.Create(s.ctx, models.Balance{UserID: "alice", Balance: 10}))
	s.Require().NoError(s.store.SetBalance(s.ctx, "alice", 3))

	record, err := s.store.Get(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(int64(3), record.Balance)
}

func (s *InMemoryBalanceStoreSuite) TestSetDisplayName() {
	s.Error(s.store.SetDisplayName(s.ctx, "nobody", "Nobody"), "missing record must fail")

	s.Require().NoError(s.store.Create(s.ctx, models.Balance{UserID: "alice", Balance: 10}))
	s.Require().NoError(s.store.SetDisplayName(s.ctx, "alice", "Alice"))

	record, err := s.store.Get(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("Alice", record.DisplayName)
	s.Equal(int64(10), record.Balance, "balance untouched by name update")
}

func (s *InMemoryBalanceStoreSuite) TestTopN() {
	for _, b := range []models.Balance{
		{UserID: "a", Balance: 50},
		{UserID: "b", Balance: 10},
		{UserID: "c", Balance: 50},
		{UserID: "d", Balance: 0},
	} {
		s.Require().NoError(s.store.Create(s.ctx, b))
	}

	entries, err := s.store.TopN(s.ctx, 3)
	s.Require().NoError(err)
	s.Equal([]models.TopEntry{
		{UserID: "a", Balance: 50},
		{UserID: "c", Balance: 50},
		{UserID: "b", Balance: 10},
	}, entries)

	entries, err = s.store.TopN(s.ctx, 10)
	s.Require().NoError(err)
	s.Len(entries, 4)
}
