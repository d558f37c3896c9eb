// Package kvstore provides a durable key to JSON-document mapping with
// prefix scans. Values are opaque JSON bytes; callers own the encoding.
package kvstore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is the narrow key-value contract the services depend on.
type Store interface {
	// Get returns the value stored under key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any existing value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// GetByPrefix returns the values of every key starting with prefix.
	// Order is unspecified.
	GetByPrefix(ctx context.Context, prefix string) ([][]byte, error)

	// MGet returns one entry per key, in order. Missing keys yield nil.
	MGet(ctx context.Context, keys []string) ([][]byte, error)
}

// Open builds a Store for one of the supported drivers. The postgres driver
// is constructed directly with NewPostgres because it shares a pool owned by
// the caller.
func Open(driver, redisURL string) (Store, error) {
	switch driver {
	case "memory", "":
		return NewMemory(), nil
	case "redis":
		return NewRedisFromURL(redisURL)
	default:
		return nil, fmt.Errorf("kvstore: unsupported driver %q", driver)
	}
}
