package auditlog

import (
	"context"
	"log/slog"

	"pointsd/pkg/requestcontext"
)

// Publisher decouples ledger calls from audit persistence. Record enqueues
// into a bounded buffer and returns immediately; a background worker drains
// the buffer into the service. When the buffer is full the event is dropped
// and counted - audit loss is an accepted failure mode, blocking the ledger
// is not.
type Publisher struct {
	service *Service
	inbox   chan Event
	logger  *slog.Logger
}

// NewPublisher wraps service with an async buffer of the given size.
func NewPublisher(service *Service, buffer int, logger *slog.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		service: service,
		inbox:   make(chan Event, buffer),
		logger:  logger,
	}
}

// Record enqueues the event without blocking.
func (p *Publisher) Record(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		// Stamp at emission time so queueing delay never reorders entries
		// relative to the operations that produced them.
		event.Timestamp = requestcontext.Now(ctx)
	}
	select {
	case p.inbox <- event:
	default:
		p.service.metrics.IncPublisherDropped()
		p.logger.Warn("audit buffer full, event dropped",
			"user_id", event.UserID,
			"operation", event.Operation,
		)
	}
}

// Run drains the buffer until ctx is cancelled, then flushes what is left.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			p.flush()
			return ctx.Err()
		case event := <-p.inbox:
			p.service.Record(context.WithoutCancel(ctx), event)
		}
	}
}

func (p *Publisher) flush() {
	for {
		select {
		case event := <-p.inbox:
			p.service.Record(context.Background(), event)
		default:
			return
		}
	}
}
