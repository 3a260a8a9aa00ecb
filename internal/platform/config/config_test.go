package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 5*time.Minute, cfg.Redis.NameCacheTTL)
	assert.Equal(t, 0, cfg.Ledger.InitialBalance)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, 100, cfg.Audit.MaxLog)
	assert.Equal(t, "all", cfg.Audit.RetentionMode)
	assert.Equal(t, []string{"add", "reduce"}, cfg.Audit.AllowedOps)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("POINTSD_ADDR", ":9000")
	t.Setenv("POINTSD_DATABASE_URL", "postgres://localhost/pointsd")
	t.Setenv("POINTSD_INITIAL_BALANCE", "100")
	t.Setenv("POINTSD_AUDIT_ENABLED", "false")
	t.Setenv("POINTSD_AUDIT_MAX_LOG", "25")
	t.Setenv("POINTSD_AUDIT_RETENTION", "only_failures")
	t.Setenv("POINTSD_AUDIT_OPS", "add, reduce ,set")
	t.Setenv("POINTSD_NAME_CACHE_TTL", "30s")

	cfg := FromEnv()

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "postgres://localhost/pointsd", cfg.DatabaseURL)
	assert.Equal(t, 100, cfg.Ledger.InitialBalance)
	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, 25, cfg.Audit.MaxLog)
	assert.Equal(t, "only_failures", cfg.Audit.RetentionMode)
	assert.Equal(t, []string{"add", "reduce", "set"}, cfg.Audit.AllowedOps, "list entries are trimmed")
	assert.Equal(t, 30*time.Second, cfg.Redis.NameCacheTTL)
}

func TestFromEnv_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("POINTSD_AUDIT_MAX_LOG", "lots")
	t.Setenv("POINTSD_AUDIT_ENABLED", "yep")
	t.Setenv("POINTSD_NAME_CACHE_TTL", "soon")

	cfg := FromEnv()

	assert.Equal(t, 100, cfg.Audit.MaxLog)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Redis.NameCacheTTL)
}
