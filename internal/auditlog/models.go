// Package auditlog maintains a fixed-capacity audit trail of ledger
// operations on top of a keyed row-store. The store has no circular-buffer
// primitive, so capacity is enforced by recycling small integer ids:
// freed slots are filled first, then the chronologically oldest entry is
// overwritten in place.
package auditlog

import "time"

// Event is one audited ledger operation, success or failure. The ledger
// emits exactly one per call; admission filtering decides persistence.
type Event struct {
	UserID        string
	Operation     string
	Amount        *int64
	PluginName    string
	Comment       string
	StatusCode    int
	PreviousValue *int64
	NewValue      *int64
	TransactionID string
	Timestamp     time.Time
}

// Success reports whether the event describes a 2xx outcome. Business
// rejections (304) and invalid input (4xx) count as failures for retention.
func (e Event) Success() bool {
	return e.StatusCode >= 200 && e.StatusCode < 300
}

// Entry is a persisted event. IDs are small non-negative integers, unique
// within the log but reused across its lifetime, and not monotonic.
type Entry struct {
	ID int64
	Event
}

// RetentionMode selects which outcomes are persisted.
type RetentionMode string

const (
	RetainAll           RetentionMode = "all"
	RetainOnlyFailures  RetentionMode = "only_failures"
	RetainOnlySuccesses RetentionMode = "only_successes"
)
