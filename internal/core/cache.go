// Package core holds the ports shared between the LinkScore service layer and its adapters.
package core

import (
	"context"
	"time"
)

// CacheRepository is the key/value port backed by Redis. It carries the submission
// rate-limit counters and the shared exclusion-list snapshot.
type CacheRepository interface {
	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns nil, nil for a missing or expired key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete reports whether the key existed.
	Delete(ctx context.Context, key string) (bool, error)

	Exists(ctx context.Context, key string) (bool, error)

	// Increment bumps a fixed-window counter. The window starts on the first increment
	// and later increments do not extend it.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)

	// TTL returns the remaining lifetime of a key, or zero if it has none.
	TTL(ctx context.Context, key string) (time.Duration, error)

	Health(ctx context.Context) error
}
