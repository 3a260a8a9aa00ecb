// Package ports defines the ledger's collaborator interfaces.
package ports

import (
	"context"

	"pointsd/internal/auditlog"
	"pointsd/internal/ledger/models"
)

// BalanceStore is the keyed balance table. Implementations must treat
// UserID as the unique key; the surrogate primary key is store-internal.
type BalanceStore interface {
	// Get returns the record for userID, or nil when absent.
	Get(ctx context.Context, userID string) (*models.Balance, error)

	// Create inserts a new record.
	Create(ctx context.Context, record models.Balance) error

	// Upsert replaces the balance for userID, creating the record if needed.
	Upsert(ctx context.Context, record models.Balance) error

	// SetBalance updates the balance of an existing record.
	SetBalance(ctx context.Context, userID string, balance int64) error

	// SetDisplayName updates the display name of an existing record.
	SetDisplayName(ctx context.Context, userID, name string) error

	// TopN returns up to n records ordered by balance descending. Order
	// among equal balances is store-dependent.
	TopN(ctx context.Context, n int) ([]models.TopEntry, error)
}

// AuditRecorder receives one event per ledger operation. Implementations
// must never let recording failures reach the ledger caller.
type AuditRecorder interface {
	Record(ctx context.Context, event auditlog.Event)
}
