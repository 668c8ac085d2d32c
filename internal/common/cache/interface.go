package cache

import (
	"context"
	"time"
)

// Cache defines the unified interface for cache and key-value document
// operations. This abstraction allows switching between implementations
// (Redis, local memory) without changing business logic.
type Cache interface {
	BasicOps
	ZSetOps

	// Ping verifies the cache connection is alive
	Ping(ctx context.Context) error

	// Close closes the cache connection
	Close() error
}

// BasicOps defines basic key-value operations
type BasicOps interface {
	// Get retrieves the value for the given key.
	// Returns an empty string without error when the key does not exist.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a key-value pair with optional TTL
	// If ttl is 0, the key will not expire
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Del deletes one or more keys
	Del(ctx context.Context, keys ...string) error

	// Exists checks if one or more keys exist
	// Returns the number of keys that exist
	Exists(ctx context.Context, keys ...string) (int64, error)
}

// ZSetOps defines sorted set operations (used for per-user ordered indexes)
type ZSetOps interface {
	// ZAdd adds one or more members with scores to a sorted set
	ZAdd(ctx context.Context, key string, members ...ZMember) error

	// ZRem removes one or more members from a sorted set
	ZRem(ctx context.Context, key string, members ...string) error

	// ZRevRange returns members in a sorted set by index range (descending order)
	// start and stop are zero-based indexes
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// ZCard returns the number of members in a sorted set
	ZCard(ctx context.Context, key string) (int64, error)
}

// ZMember represents a member in a sorted set with its score
type ZMember struct {
	Score  float64
	Member string
}
