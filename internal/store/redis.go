package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions holds pool and timeout overrides applied on top of the
// connection URI. Zero values keep the go-redis defaults.
type RedisOptions struct {
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RedisHandle is a Handle backed by a go-redis client.
type RedisHandle struct {
	client *redis.Client
}

// NewRedisHandle wraps an existing client.
func NewRedisHandle(client *redis.Client) *RedisHandle {
	return &RedisHandle{client: client}
}

// Client returns the underlying client for handlers that run queries.
func (h *RedisHandle) Client() *redis.Client {
	return h.client
}

// Ping implements Handle.
func (h *RedisHandle) Ping(ctx context.Context) error {
	return h.client.Ping(ctx).Err()
}

// Close implements Handle.
func (h *RedisHandle) Close() error {
	return h.client.Close()
}

// NewRedisDialer validates uri and returns a Dialer that opens a client
// and verifies it with PING. A client whose PING fails is closed before
// the error is returned.
func NewRedisDialer(uri string, opts RedisOptions) (Dialer, error) {
	if uri == "" {
		return nil, errors.New("redis URL is required")
	}

	base, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	applyRedisOptions(base, opts)

	return func(ctx context.Context) (Handle, error) {
		clientOpts := *base
		client := redis.NewClient(&clientOpts)

		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return NewRedisHandle(client), nil
	}, nil
}

// applyRedisOptions applies pool and timeout overrides.
func applyRedisOptions(o *redis.Options, opts RedisOptions) {
	if opts.PoolSize > 0 {
		o.PoolSize = opts.PoolSize
	}
	if opts.DialTimeout > 0 {
		o.DialTimeout = opts.DialTimeout
	}
	if opts.ReadTimeout > 0 {
		o.ReadTimeout = opts.ReadTimeout
	}
	if opts.WriteTimeout > 0 {
		o.WriteTimeout = opts.WriteTimeout
	}
}
