package cache

import (
	"context"
	"time"

	"github.com/ntentasd/kolam-api/pkg/types"
)

// Cache defines the general caching for the api.
// It abstracts time-series (latest readings) and key-values (computed charts).
type Cache interface {
	// Store appends a reading to the time-ordered list under prefix
	Store(ctx context.Context, prefix string, r types.SensorReading) error

	// FetchLast retrieves the N most recent readings, newest first
	FetchLast(ctx context.Context, prefix string, n int) ([]types.SensorReading, error)

	// StoreAggregate caches a computed aggregate with a TTL
	StoreAggregate(ctx context.Context, key string, data any, ttl time.Duration) error

	// FetchAggregate retrieves an aggregate from cache, ErrCacheMiss if absent
	FetchAggregate(ctx context.Context, key string) ([]byte, error)

	// Ping checks cache connection
	Ping(ctx context.Context) error

	// Close gracefully closes any connections
	Close()
}
