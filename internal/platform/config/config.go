package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr     string
	LogLevel string

	// DatabaseURL selects the Postgres backend. Empty means in-memory stores,
	// which is how the service runs in tests and local development.
	DatabaseURL string

	Redis  Redis
	Ledger Ledger
	Audit  Audit
}

// Redis configures the optional display-name cache.
type Redis struct {
	URL          string
	NameCacheTTL time.Duration
}

// Ledger configures balance behavior.
type Ledger struct {
	// InitialBalance seeds the record created when an add references an
	// unknown user.
	InitialBalance int
}

// Audit configures the bounded audit log retention policy.
type Audit struct {
	Enabled       bool
	MaxLog        int
	RetentionMode string
	AllowedOps    []string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:        envString("POINTSD_ADDR", ":8080"),
		LogLevel:    envString("POINTSD_LOG_LEVEL", "info"),
		DatabaseURL: os.Getenv("POINTSD_DATABASE_URL"),
		Redis: Redis{
			URL:          os.Getenv("POINTSD_REDIS_URL"),
			NameCacheTTL: envDuration("POINTSD_NAME_CACHE_TTL", 5*time.Minute),
		},
		Ledger: Ledger{
			InitialBalance: envInt("POINTSD_INITIAL_BALANCE", 0),
		},
		Audit: Audit{
			Enabled:       envBool("POINTSD_AUDIT_ENABLED", true),
			MaxLog:        envInt("POINTSD_AUDIT_MAX_LOG", 100),
			RetentionMode: envString("POINTSD_AUDIT_RETENTION", "all"),
			AllowedOps:    envList("POINTSD_AUDIT_OPS", []string{"add", "reduce"}),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
