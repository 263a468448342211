// Package store defines the key-value persistence contract used for saved
// history. Implementations include PostgreSQL (source of truth), Redis
// (read-through cache) and in-memory (for testing and development).
package store

import "context"

// KV stores opaque string values by key.
//
// Get reports ok=false for a missing key; that is not an error. Remove of
// a missing key is a no-op.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
