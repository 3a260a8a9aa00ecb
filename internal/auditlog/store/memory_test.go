package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"pointsd/internal/auditlog"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	base  time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
	s.ctx = context.Background()
	s.base = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) seed(id int64, offset time.Duration) {
	s.Require().NoError(s.store.Insert(s.ctx, auditlog.Entry{
		ID: id,
		Event: auditlog.Event{
			UserID:     "user-1",
			Operation:  "add",
			StatusCode: 200,
			Timestamp:  s.base.Add(offset),
		},
	}))
}

func (s *InMemoryStoreSuite) TestIDsAscending() {
	s.seed(3, 0)
	s.seed(0, time.Second)
	s.seed(7, 2*time.Second)

	ids, err := s.store.IDsAscending(s.ctx)
	s.Require().NoError(err)
	s.Equal([]int64{0, 3, 7}, ids)
}

func (s *InMemoryStoreSuite) TestCount() {
	count, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)

	s.seed(0, 0)
	s.seed(1, time.Second)

	count, err = s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), count)
}

func (s *InMemoryStoreSuite) TestOldestIDs() {
	// Insertion order deliberately disagrees with timestamp order.
	s.seed(0, 3*time.Second)
	s.seed(1, time.Second)
	s.seed(2, 2*time.Second)

	ids, err := s.store.OldestIDs(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal([]int64{1, 2}, ids)

	ids, err = s.store.OldestIDs(s.ctx, 10)
	s.Require().NoError(err)
	s.Equal([]int64{1, 2, 0}, ids)
}

func (s *InMemoryStoreSuite) TestOldestIDs_TimestampTiesBreakOnID() {
	s.seed(2, 0)
	s.seed(0, 0)
	s.seed(1, 0)

	ids, err := s.store.OldestIDs(s.ctx, 3)
	s.Require().NoError(err)
	s.Equal([]int64{0, 1, 2}, ids)
}

func (s *InMemoryStoreSuite) TestUpsertReplacesSlot() {
	s.seed(0, 0)

	s.Require().NoError(s.store.Upsert(s.ctx, auditlog.Entry{
		ID: 0,
		Event: auditlog.Event{
			UserID:     "user-2",
			Operation:  "reduce",
			StatusCode: 304,
			Timestamp:  s.base.Add(time.Minute),
		},
	}))

	entry, ok := s.store.Get(s.ctx, 0)
	s.Require().True(ok)
	s.Equal("user-2", entry.UserID)
	s.Equal(304, entry.StatusCode)

	count, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *InMemoryStoreSuite) TestDeleteByIDs() {
	s.seed(0, 0)
	s.seed(1, time.Second)
	s.seed(2, 2*time.Second)

	s.Require().NoError(s.store.DeleteByIDs(s.ctx, []int64{0, 2, 99}))

	ids, err := s.store.IDsAscending(s.ctx)
	s.Require().NoError(err)
	s.Equal([]int64{1}, ids)
}

func (s *InMemoryStoreSuite) TestList_NewestFirst() {
	s.seed(0, 0)
	s.seed(1, time.Second)
	s.seed(2, 2*time.Second)

	entries, err := s.store.List(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(int64(2), entries[0].ID)
	s.Equal(int64(1), entries[1].ID)
}
