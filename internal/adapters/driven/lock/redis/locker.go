// Package redis provides a RunLocker backed by Redis keys with a TTL.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iatoolkit/ingestd/internal/core/ports/driven"
)

// Ensure Locker implements the interface.
var _ driven.RunLocker = (*Locker)(nil)

// Config holds the Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Locker takes run locks with SET NX so one process runs a source at a time.
type Locker struct {
	client *redis.Client
}

// NewLocker connects to Redis and verifies the connection.
func NewLocker(ctx context.Context, cfg Config) (*Locker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		MaxRetries: 3,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return &Locker{client: client}, nil
}

// NewLockerFromClient wraps an existing client.
func NewLockerFromClient(client *redis.Client) *Locker {
	return &Locker{client: client}
}

// Acquire sets key if absent. The key expires after ttl so a crashed holder
// cannot block the source forever.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	return ok, nil
}

// Release deletes key.
func (l *Locker) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	return nil
}

// Close closes the client.
func (l *Locker) Close() error {
	return l.client.Close()
}
