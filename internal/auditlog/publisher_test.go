package auditlog_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pointsd/internal/auditlog"
	"pointsd/internal/auditlog/store"
)

func newPublisherFixture(t *testing.T, buffer int) (*auditlog.Publisher, *store.InMemoryStore) {
	t.Helper()

	st := store.NewMemory()
	svc, err := auditlog.New(st, auditlog.Config{
		Enabled:    true,
		MaxLog:     10,
		Retention:  auditlog.RetainAll,
		AllowedOps: []string{"add"},
	})
	require.NoError(t, err)

	return auditlog.NewPublisher(svc, buffer, slog.Default()), st
}

func TestPublisher_DrainsInBackground(t *testing.T) {
	pub, st := newPublisherFixture(t, 16)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pub.Run(ctx) }()

	pub.Record(context.Background(), auditlog.Event{
		UserID:     "user-1",
		Operation:  "add",
		StatusCode: 200,
	})

	require.Eventually(t, func() bool {
		count, err := st.Count(context.Background())
		return err == nil && count == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublisher_FlushesOnShutdown(t *testing.T) {
	pub, st := newPublisherFixture(t, 16)

	// Enqueue before the worker ever runs, then hand it a cancelled context:
	// everything buffered must still reach the store.
	for range 5 {
		pub.Record(context.Background(), auditlog.Event{
			UserID:     "user-1",
			Operation:  "add",
			StatusCode: 200,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := pub.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	count, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestPublisher_DropsWhenBufferFull(t *testing.T) {
	pub, st := newPublisherFixture(t, 2)

	// No worker running, so the third event has nowhere to go.
	for range 3 {
		pub.Record(context.Background(), auditlog.Event{
			UserID:     "user-1",
			Operation:  "add",
			StatusCode: 200,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, pub.Run(ctx), context.Canceled)

	count, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestPublisher_StampsTimestampAtEnqueue(t *testing.T) {
	pub, st := newPublisherFixture(t, 16)

	before := time.Now()
	pub.Record(context.Background(), auditlog.Event{
		UserID:     "user-1",
		Operation:  "add",
		StatusCode: 200,
	})
	after := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, pub.Run(ctx), context.Canceled)

	entries, err := st.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Timestamp.Before(before))
	assert.False(t, entries[0].Timestamp.After(after))
}
