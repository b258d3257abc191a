package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options tune the client beyond what the URL carries. Zero values keep the URL's settings.
type Options struct {
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewClient creates a Redis client from a redis:// URL and pings it.
func NewClient(ctx context.Context, redisURL string, extra Options) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	if extra.PoolSize > 0 {
		opts.PoolSize = extra.PoolSize
	}
	if extra.DialTimeout > 0 {
		opts.DialTimeout = extra.DialTimeout
	}
	if extra.ReadTimeout > 0 {
		opts.ReadTimeout = extra.ReadTimeout
	}
	if extra.WriteTimeout > 0 {
		opts.WriteTimeout = extra.WriteTimeout
	}

	client := redis.NewClient(opts)

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
