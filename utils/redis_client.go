package utils

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the shared Redis connection. URL is either a
// redis:// URL or a bare host:port.
type RedisOptions struct {
	URL          string
	PoolSize     int
	MinIdleConns int
}

const (
	redisConnectTimeout = 5 * time.Second
	redisHealthTimeout  = 2 * time.Second
)

func (o RedisOptions) clientOptions() *redis.Options {
	opts, err := redis.ParseURL(o.URL)
	if err != nil {
		opts = &redis.Options{Addr: o.URL}
	}
	if o.PoolSize > 0 {
		opts.PoolSize = o.PoolSize
	}
	if o.MinIdleConns > 0 {
		opts.MinIdleConns = o.MinIdleConns
	}
	opts.MaxRetries = 3
	return opts
}

// NewRedisClient opens the pool and fails unless Redis answers a ping.
func NewRedisClient(ctx context.Context, o RedisOptions) (*redis.Client, error) {
	opts := o.clientOptions()
	client := redis.NewClient(opts)

	if err := ping(ctx, client, redisConnectTimeout); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", opts.Addr, err)
	}

	slog.Info("Connected to Redis", "addr", opts.Addr, "pool_size", opts.PoolSize)
	return client, nil
}

// RedisHealthCheck reports whether Redis answers within two seconds.
func RedisHealthCheck(ctx context.Context, client *redis.Client) error {
	if err := ping(ctx, client, redisHealthTimeout); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

func ping(ctx context.Context, client *redis.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return client.Ping(ctx).Err()
}
