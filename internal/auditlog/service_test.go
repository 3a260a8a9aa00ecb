package auditlog_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"pointsd/internal/auditlog"
	"pointsd/internal/auditlog/store"
)

const testMaxLog = 5

var allOps = []string{"get", "set", "add", "reduce", "updateName", "topN"}

type ServiceSuite struct {
	suite.Suite
	store *store.InMemoryStore
	ctx   context.Context
	base  time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewMemory()
	s.ctx = context.Background()
	s.base = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func (s *ServiceSuite) newService(cfg auditlog.Config) *auditlog.Service {
	svc, err := auditlog.New(s.store, cfg)
	s.Require().NoError(err)
	return svc
}

func (s *ServiceSuite) defaultConfig() auditlog.Config {
	return auditlog.Config{
		Enabled:    true,
		MaxLog:     testMaxLog,
		Retention:  auditlog.RetainAll,
		AllowedOps: allOps,
	}
}

// event builds a successful add event with a timestamp offset in seconds,
// so chronological order in tests is explicit.
func (s *ServiceSuite) event(n int) auditlog.Event {
	return auditlog.Event{
		UserID:     fmt.Sprintf("user-%d", n),
		Operation:  "add",
		StatusCode: 200,
		Comment:    fmt.Sprintf("event %d", n),
		Timestamp:  s.base.Add(time.Duration(n) * time.Second),
	}
}

func (s *ServiceSuite) TestRecord_FillsSmallestIDsFirst() {
	svc := s.newService(s.defaultConfig())

	for i := range 3 {
		svc.Record(s.ctx, s.event(i))
	}

	ids, err := s.store.IDsAscending(s.ctx)
	s.Require().NoError(err)
	s.Equal([]int64{0, 1, 2}, ids)

	for i := range 3 {
		entry, ok := s.store.Get(s.ctx, int64(i))
		s.Require().True(ok)
		s.Equal(fmt.Sprintf("event %d", i), entry.Comment)
	}
}

func (s *ServiceSuite) TestRecord_CountNeverExceedsCapacity() {
	svc := s.newService(s.defaultConfig())

	for i := range 4 * testMaxLog {
		svc.Record(s.ctx, s.event(i))

		count, err := s.store.Count(s.ctx)
		s.Require().NoError(err)
		s.LessOrEqual(count, int64(testMaxLog))
	}

	ids, err := s.store.IDsAscending(s.ctx)
	s.Require().NoError(err)
	s.Equal([]int64{0, 1, 2, 3, 4}, ids, "ids stay dense in [0, maxLog)")
}

func (s *ServiceSuite) TestRecord_FullLogOverwritesOldest() {
	svc := s.newService(s.defaultConfig())

	for i := range testMaxLog {
		svc.Record(s.ctx, s.event(i))
	}

	// Slot 0 holds the chronologically oldest entry; the next write lands
	// there.
	svc.Record(s.ctx, s.event(100))

	entry, ok := s.store.Get(s.ctx, 0)
	s.Require().True(ok)
	s.Equal("event 100", entry.Comment)

	count, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(testMaxLog), count)

	// Slot 1 is now the oldest, so it goes next.
	svc.Record(s.ctx, s.event(101))
	entry, ok = s.store.Get(s.ctx, 1)
	s.Require().True(ok)
	s.Equal("event 101", entry.Comment)
}

func (s *ServiceSuite) TestRecord_GapFilledBeforeEvictingOldest() {
	svc := s.newService(s.defaultConfig())

	for i := range testMaxLog {
		svc.Record(s.ctx, s.event(i))
	}

	// Free a slot in the middle. The next write must reuse the freed id
	// instead of evicting slot 0.
	s.Require().NoError(s.store.DeleteByIDs(s.ctx, []int64{2}))

	svc.Record(s.ctx, s.event(200))

	entry, ok := s.store.Get(s.ctx, 2)
	s.Require().True(ok)
	s.Equal("event 200", entry.Comment)

	entry, ok = s.store.Get(s.ctx, 0)
	s.Require().True(ok)
	s.Equal("event 0", entry.Comment, "oldest entry survives a gap fill")
}

func (s *ServiceSuite) TestRecord_TrimsOvershoot() {
	svc := s.newService(s.defaultConfig())

	// Seed more rows than capacity directly, simulating a concurrent writer
	// racing the rotation.
	for i := range testMaxLog + 3 {
		s.Require().NoError(s.store.Insert(s.ctx, auditlog.Entry{ID: int64(i), Event: s.event(i)}))
	}

	svc.Record(s.ctx, s.event(300))

	count, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(testMaxLog), count)
}

func (s *ServiceSuite) TestRecord_Disabled() {
	cfg := s.defaultConfig()
	cfg.Enabled = false
	svc := s.newService(cfg)

	svc.Record(s.ctx, s.event(0))

	count, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *ServiceSuite) TestRecord_AllowListFiltersOperations() {
	cfg := s.defaultConfig()
	cfg.AllowedOps = []string{"add", "reduce"}
	svc := s.newService(cfg)

	get := s.event(0)
	get.Operation = "get"
	svc.Record(s.ctx, get)

	add := s.event(1)
	svc.Record(s.ctx, add)

	count, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), count)

	entry, ok := s.store.Get(s.ctx, 0)
	s.Require().True(ok)
	s.Equal("add", entry.Operation)
}

func (s *ServiceSuite) TestRecord_RetainOnlyFailures() {
	cfg := s.defaultConfig()
	cfg.Retention = auditlog.RetainOnlyFailures
	svc := s.newService(cfg)

	for i, code := range []int{200, 204, 304, 400, 500} {
		e := s.event(i)
		e.StatusCode = code
		svc.Record(s.ctx, e)
	}

	entries, err := s.store.List(s.ctx, testMaxLog)
	s.Require().NoError(err)
	s.Require().Len(entries, 3, "2xx outcomes are dropped, 304 and up are kept")
	for _, e := range entries {
		s.False(e.Success())
	}
}

func (s *ServiceSuite) TestRecord_RetainOnlySuccesses() {
	cfg := s.defaultConfig()
	cfg.Retention = auditlog.RetainOnlySuccesses
	svc := s.newService(cfg)

	for i, code := range []int{200, 204, 304, 400} {
		e := s.event(i)
		e.StatusCode = code
		svc.Record(s.ctx, e)
	}

	entries, err := s.store.List(s.ctx, testMaxLog)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	for _, e := range entries {
		s.True(e.Success())
	}
}

func (s *ServiceSuite) TestRecord_DefaultsPluginName() {
	svc := s.newService(s.defaultConfig())

	e := s.event(0)
	e.PluginName = ""
	svc.Record(s.ctx, e)

	entry, ok := s.store.Get(s.ctx, 0)
	s.Require().True(ok)
	s.Equal("unknown", entry.PluginName)
}

func (s *ServiceSuite) TestList_NewestFirstAndClamped() {
	svc := s.newService(s.defaultConfig())

	for i := range testMaxLog {
		svc.Record(s.ctx, s.event(i))
	}

	entries, err := svc.List(s.ctx, 3)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal("event 4", entries[0].Comment)
	s.Equal("event 3", entries[1].Comment)
	s.Equal("event 2", entries[2].Comment)

	// Zero and oversized limits clamp to capacity.
	entries, err = svc.List(s.ctx, 0)
	s.Require().NoError(err)
	s.Len(entries, testMaxLog)

	entries, err = svc.List(s.ctx, 1000)
	s.Require().NoError(err)
	s.Len(entries, testMaxLog)
}

func TestNew_RejectsBadConfig(t *testing.T) {
	st := store.NewMemory()

	_, err := auditlog.New(st, auditlog.Config{Enabled: true, MaxLog: 4, Retention: auditlog.RetainAll})
	if err == nil {
		t.Fatal("expected error for capacity below minimum")
	}

	_, err = auditlog.New(st, auditlog.Config{Enabled: true, MaxLog: 10, Retention: "sometimes"})
	if err == nil {
		t.Fatal("expected error for unknown retention mode")
	}

	_, err = auditlog.New(nil, auditlog.Config{Enabled: true, MaxLog: 10, Retention: auditlog.RetainAll})
	if err == nil {
		t.Fatal("expected error for nil store")
	}
}
