package auditlog

import "fmt"

// MinMaxLog is the smallest allowed capacity. Below this the rotation logic
// spends more time trimming than recording.
const MinMaxLog = 5

// Config is the retention policy for the audit log. It is passed in
// explicitly at construction; there is no process-wide configuration.
type Config struct {
	// Enabled gates all persistence. When false every event is dropped
	// silently.
	Enabled bool

	// MaxLog is the capacity of the log in rows. Must be >= MinMaxLog.
	MaxLog int

	// Retention selects which outcomes are kept.
	Retention RetentionMode

	// AllowedOps is the operation allow-list. Events whose operation is not
	// listed are dropped regardless of outcome.
	AllowedOps []string
}

// Validate checks the policy before the service accepts it.
func (c Config) Validate() error {
	if c.MaxLog < MinMaxLog {
		return fmt.Errorf("max log %d is below the minimum of %d", c.MaxLog, MinMaxLog)
	}
	switch c.Retention {
	case RetainAll, RetainOnlyFailures, RetainOnlySuccesses:
	default:
		return fmt.Errorf("unknown retention mode %q", c.Retention)
	}
	return nil
}

func (c Config) allows(op string) bool {
	for _, allowed := range c.AllowedOps {
		if allowed == op {
			return true
		}
	}
	return false
}
