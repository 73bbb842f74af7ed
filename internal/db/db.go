// Package db defines the key-value store contract backing the embedding cache.
package db

import (
	"context"
	"time"
)

// KVStore provides the key-value operations the cache layer consumes.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Store combines the KV contract with lifecycle operations.
type Store interface {
	KVStore
	Ping(ctx context.Context) error
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}
