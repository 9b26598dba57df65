package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache keys for list endpoints
const (
	CacheKeyUsers    = "users:all"    // GET /api/users
	CacheKeyProjects = "projects:all" // GET /api/projects
)

// ListCacheTTL bounds how stale a cached list may get if an invalidation is lost
const ListCacheTTL = 60 * time.Second

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// DeleteCache deletes keys from Redis
func DeleteCache(ctx context.Context, rdb *redis.Client, keys ...string) error {
	return rdb.Del(ctx, keys...).Err() // Delete keys from Redis
}

// Cached returns the value stored under key, or calls load and caches its
// result. The boolean reports whether the value came from the cache. Cache
// failures fall through to load, the cache is never authoritative.
func Cached[T any](ctx context.Context, rdb *redis.Client, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, bool, error) {
	var value T
	if found, err := GetCache(ctx, rdb, key, &value); err == nil && found {
		return value, true, nil // Served from cache
	}
	value, err := load(ctx) // Load from the source of truth
	if err != nil {
		return value, false, err
	}
	_ = SetCache(ctx, rdb, key, value, ttl) // Best effort, the next read retries
	return value, false, nil
}
