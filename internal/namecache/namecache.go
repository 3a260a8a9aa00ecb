// Package namecache remembers the last display name seen per user so
// opportunistic name capture does not hit the balance table on every
// request. Entries expire; a miss only costs one redundant update.
package namecache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a best-effort lookup. Implementations swallow backend errors
// and report a miss instead; the cache is never load-bearing.
type Cache interface {
	Get(ctx context.Context, userID string) (string, bool)
	Set(ctx context.Context, userID, name string)
}

const keyPrefix = "pointsd:name:"

// RedisCache stores names in Redis with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, userID string) (string, bool) {
	val, err := c.client.Get(ctx, keyPrefix+userID).Result()
	if err != nil {
		// redis.Nil and backend trouble both read as a miss.
		return "", false
	}
	return val, true
}

func (c *RedisCache) Set(ctx context.Context, userID, name string) {
	_ = c.client.Set(ctx, keyPrefix+userID, name, c.ttl).Err()
}

// InMemoryCache is the fallback when Redis is not configured.
type InMemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	name      string
	expiresAt time.Time
}

func NewMemory(ttl time.Duration) *InMemoryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &InMemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

func (c *InMemoryCache) Get(_ context.Context, userID string) (string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.name, true
}

func (c *InMemoryCache) Set(_ context.Context, userID, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = memoryEntry{name: name, expiresAt: time.Now().Add(c.ttl)}
}
