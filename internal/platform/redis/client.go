// Package redis owns the go-redis handle so callers only deal with config.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"pointsd/internal/platform/config"
)

// Client embeds the go-redis client; Close comes from the embedded type.
type Client struct {
	*redis.Client
}

// New dials Redis from cfg and verifies the connection with a ping. A nil
// client with a nil error means no URL was configured; callers fall back to
// in-memory behavior.
func New(ctx context.Context, cfg config.Redis) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{Client: client}, nil
}
