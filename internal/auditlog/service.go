package auditlog

import (
	"context"
	"fmt"
	"log/slog"

	"pointsd/internal/auditlog/metrics"
	"pointsd/pkg/requestcontext"
)

// Service applies the retention policy and the slot-rotation algorithm.
// It is the only writer of the audit table.
type Service struct {
	store   Store
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, cfg Config, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("audit store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("audit config: %w", err)
	}

	svc := &Service{
		store:  store,
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Record admits and persists one event. Store failures are logged and
// swallowed: a lost audit entry must never fail the ledger operation that
// produced it.
func (s *Service) Record(ctx context.Context, event Event) {
	if !s.admit(event) {
		s.metrics.IncFiltered()
		return
	}

	if event.PluginName == "" {
		event.PluginName = "unknown"
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}

	if err := s.write(ctx, event); err != nil {
		s.metrics.IncWriteFailures()
		s.logger.ErrorContext(ctx, "audit write failed",
			"user_id", event.UserID,
			"operation", event.Operation,
			"error", err,
		)
	}
}

// admit applies the retention policy: global switch, operation allow-list,
// then outcome filter.
func (s *Service) admit(event Event) bool {
	if !s.cfg.Enabled {
		return false
	}
	if !s.cfg.allows(event.Operation) {
		return false
	}
	switch s.cfg.Retention {
	case RetainOnlyFailures:
		return !event.Success()
	case RetainOnlySuccesses:
		return event.Success()
	default:
		return true
	}
}

// write places the event in the log, recycling ids once the table is full.
//
// Ids are meant to densely occupy [0, count). The log grows by inserting at
// the smallest unused id until it holds MaxLog rows; after that each write
// reuses a slot, preferring a hole left by an earlier out-of-order overwrite
// and falling back to the chronologically oldest entry. A final trim handles
// any overshoot, so the row count never stays above MaxLog.
//
// Each write costs several scans (ids, count, oldest, possible trim). That is
// deliberate: the store is re-read every time instead of trusting in-memory
// state, trading speed for self-healing after concurrent writers collide.
func (s *Service) write(ctx context.Context, event Event) error {
	ids, err := s.store.IDsAscending(ctx)
	if err != nil {
		return fmt.Errorf("scan ids: %w", err)
	}

	// Smallest non-negative integer not present as an id. Scanning in
	// ascending order, the first id above the running expectation marks a
	// hole; no hole means "append at the end of the dense prefix".
	var gap int64
	for _, id := range ids {
		if id > gap {
			break
		}
		gap = id + 1
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count entries: %w", err)
	}

	maxLog := int64(s.cfg.MaxLog)

	switch {
	case count == 0:
		// The store requires explicit primary keys, so the first entry gets
		// the smallest available id outright.
		if err := s.store.Insert(ctx, Entry{ID: 0, Event: event}); err != nil {
			return fmt.Errorf("insert first entry: %w", err)
		}
		s.metrics.IncRecorded("insert")
		return nil

	case count < maxLog:
		// Below capacity: fresh row at the smallest unused id, keeping the
		// id range dense while the log grows.
		if err := s.store.Insert(ctx, Entry{ID: gap, Event: event}); err != nil {
			return fmt.Errorf("insert entry %d: %w", gap, err)
		}
		s.metrics.IncRecorded("insert")
		return nil
	}

	// Full: reuse a slot. A hole below capacity is preferred over evicting
	// the oldest entry, so ids freed out of order are filled first.
	if gap < maxLog {
		if err := s.store.Upsert(ctx, Entry{ID: gap, Event: event}); err != nil {
			return fmt.Errorf("fill gap %d: %w", gap, err)
		}
		s.metrics.IncRecorded("gap_fill")
	} else {
		oldest, err := s.store.OldestIDs(ctx, 1)
		if err != nil {
			return fmt.Errorf("find oldest entry: %w", err)
		}
		if len(oldest) == 0 {
			return fmt.Errorf("log reported %d entries but none found", count)
		}
		if err := s.store.Upsert(ctx, Entry{ID: oldest[0], Event: event}); err != nil {
			return fmt.Errorf("overwrite oldest %d: %w", oldest[0], err)
		}
		s.metrics.IncRecorded("overwrite_oldest")
	}

	// Defensive trim. Normally the reuse write replaces a row and the count
	// is unchanged, but gap fills into a sparse table and concurrent writers
	// can push the count past capacity.
	count, err = s.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("recount entries: %w", err)
	}
	if count > maxLog {
		victims, err := s.store.OldestIDs(ctx, int(count-maxLog))
		if err != nil {
			return fmt.Errorf("find trim victims: %w", err)
		}
		if err := s.store.DeleteByIDs(ctx, victims); err != nil {
			return fmt.Errorf("trim %d entries: %w", len(victims), err)
		}
		s.metrics.IncTrimmed(len(victims))
	}
	return nil
}

// List returns up to limit persisted entries, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.cfg.MaxLog {
		limit = s.cfg.MaxLog
	}
	return s.store.List(ctx, limit)
}
