package auditlog

import "context"

// Store is the narrow row-store collaborator the rotation logic runs on.
// It offers point lookups, ordered scans, counts, inserts with explicit
// keys, upserts by primary key, and deletes by id set - nothing circular.
type Store interface {
	// IDsAscending returns every entry id in ascending order.
	IDsAscending(ctx context.Context) ([]int64, error)

	// Count returns the number of persisted entries.
	Count(ctx context.Context) (int64, error)

	// OldestIDs returns up to limit ids ordered by timestamp ascending.
	OldestIDs(ctx context.Context, limit int) ([]int64, error)

	// Insert creates a new row with the entry's id.
	Insert(ctx context.Context, entry Entry) error

	// Upsert writes the entry at its id, replacing any existing row.
	Upsert(ctx context.Context, entry Entry) error

	// DeleteByIDs removes the rows with the given ids.
	DeleteByIDs(ctx context.Context, ids []int64) error

	// List returns up to limit entries, newest first.
	List(ctx context.Context, limit int) ([]Entry, error)
}
