package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedKV wraps a primary KV (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and invalidate the cache; reads
// check Redis first then fall back to the primary.
//
// Redis failures never fail a call: the primary stays the source of truth.
type CachedKV struct {
	primary KV
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedKV creates a cached wrapper around a primary store.
func NewCachedKV(primary KV, rdb *redis.Client, ttl time.Duration) *CachedKV {
	return &CachedKV{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

func (s *CachedKV) Get(ctx context.Context, key string) (string, bool, error) {
	// Try cache.
	v, err := s.rdb.Get(ctx, cacheKey(key)).Result()
	if err == nil {
		return v, true, nil
	}

	// Cache miss: read from primary.
	v, ok, err := s.primary.Get(ctx, key)
	if err != nil || !ok {
		return v, ok, err
	}
	s.rdb.Set(ctx, cacheKey(key), v, s.ttl)
	return v, true, nil
}

func (s *CachedKV) Set(ctx context.Context, key, value string) error {
	if err := s.primary.Set(ctx, key, value); err != nil {
		return err
	}
	// Invalidate; next read will re-populate.
	s.rdb.Del(ctx, cacheKey(key))
	return nil
}

func (s *CachedKV) Remove(ctx context.Context, key string) error {
	if err := s.primary.Remove(ctx, key); err != nil {
		return err
	}
	s.rdb.Del(ctx, cacheKey(key))
	return nil
}

// Ping reports whether Redis is reachable.
func (s *CachedKV) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func cacheKey(key string) string { return "kv:" + key }
