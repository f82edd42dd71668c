// Package cache stores raw SPARQL responses keyed by endpoint and query so
// that repeated loads of the same view skip the network round trip.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// DefaultTTL is the default time-to-live for cached responses.
const DefaultTTL = 10 * time.Minute

// Kind selects a cache backend.
type Kind string

const (
	// KindNone disables caching.
	KindNone Kind = "none"
	// KindMemory keeps responses in process memory.
	KindMemory Kind = "memory"
	// KindSQLite persists responses in a SQLite database file.
	KindSQLite Kind = "sqlite"
	// KindBolt persists responses in a bbolt database file.
	KindBolt Kind = "bolt"
)

// Cache is a TTL key/value store for response bodies.
// Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the cached value and true when present and not expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key with the cache's TTL.
	Set(ctx context.Context, key string, value []byte) error
	// Close releases any underlying resources.
	Close() error
}

// Pruner is implemented by persistent backends that can drop expired
// entries in bulk.
type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}

// Prune removes expired entries from c when the backend supports it and
// returns how many were removed.
func Prune(ctx context.Context, c Cache) (int64, error) {
	pruner, ok := c.(Pruner)
	if !ok {
		return 0, nil
	}
	return pruner.Prune(ctx)
}

// Config selects and configures a backend.
type Config struct {
	Kind Kind
	Path string
	TTL  time.Duration
}

// Open creates the backend named by cfg.Kind. An empty kind disables
// caching.
func Open(cfg Config) (Cache, error) {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}

	switch cfg.Kind {
	case "", KindNone:
		return Nop{}, nil
	case KindMemory:
		return NewMemory(ttl), nil
	case KindSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite cache requires a path")
		}
		return NewSQLite(cfg.Path, ttl)
	case KindBolt:
		if cfg.Path == "" {
			return nil, fmt.Errorf("bolt cache requires a path")
		}
		return NewBolt(cfg.Path, ttl)
	default:
		return nil, fmt.Errorf("unknown cache kind %q", cfg.Kind)
	}
}

// Key derives a fixed-length cache key from an endpoint, an accept header
// and a query text.
func Key(endpoint, accept, query string) string {
	sum := sha256.Sum256([]byte(endpoint + "\x00" + accept + "\x00" + query))
	return hex.EncodeToString(sum[:])
}

// Nop is a cache that never stores anything.
type Nop struct{}

// Get always misses.
func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards the value.
func (Nop) Set(context.Context, string, []byte) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }
