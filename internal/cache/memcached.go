package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/ntentasd/kolam-api/pkg/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var _ Cache = (*Memcached)(nil)

// latestExpiration is the lifetime of a latest-readings list, in seconds.
const latestExpiration = int32(24 * 60 * 60)

// casAttempts bounds the read-modify-write loop on the latest list.
const casAttempts = 3

type Memcached struct {
	client  *memcache.Client
	metrics *CacheMetrics
}

func NewMemcached(addrs ...string) *Memcached {
	client := memcache.New(addrs...)
	client.Timeout = 100 * time.Millisecond
	cm := NewCacheMetrics(DriverMemcached)
	return &Memcached{client, cm}
}

// Store keeps the latest list as one JSON array and updates it with
// compare-and-swap, since memcached has no sorted sets.
func (m *Memcached) Store(ctx context.Context, prefix string, r types.SensorReading) error {
	start := time.Now()

	for range casAttempts {
		if err := ctx.Err(); err != nil {
			return err
		}

		item, err := m.client.Get(prefix)
		if errors.Is(err, memcache.ErrCacheMiss) {
			b, err := json.Marshal([]types.SensorReading{r})
			if err != nil {
				return fmt.Errorf("failed to marshal readings: %w", err)
			}
			err = m.client.Add(&memcache.Item{Key: prefix, Value: b, Expiration: latestExpiration})
			if errors.Is(err, memcache.ErrNotStored) {
				continue
			}
			if err == nil {
				m.metrics.RecordWrite(start)
			}
			return err
		}
		if err != nil {
			return err
		}

		var list []types.SensorReading
		if err := json.Unmarshal(item.Value, &list); err != nil {
			list = nil
		}
		list = insertNewest(list, r, MaxLatest)

		b, err := json.Marshal(list)
		if err != nil {
			return fmt.Errorf("failed to marshal readings: %w", err)
		}
		item.Value = b
		item.Expiration = latestExpiration

		err = m.client.CompareAndSwap(item)
		if errors.Is(err, memcache.ErrCASConflict) || errors.Is(err, memcache.ErrNotStored) {
			continue
		}
		if err == nil {
			m.metrics.RecordWrite(start)
		}
		return err
	}

	return fmt.Errorf("memcached store %s: too many conflicting writers", prefix)
}

func (m *Memcached) FetchLast(ctx context.Context, prefix string, n int) ([]types.SensorReading, error) {
	start := time.Now()
	item, err := m.client.Get(prefix)
	switch {
	case errors.Is(err, memcache.ErrCacheMiss):
		m.metrics.RecordMiss()
		return []types.SensorReading{}, nil
	case err != nil:
		return nil, err
	}
	m.metrics.RecordHit(start)

	var list []types.SensorReading
	if err := json.Unmarshal(item.Value, &list); err != nil {
		return nil, fmt.Errorf("failed to parse readings: %w", err)
	}
	if len(list) > n {
		list = list[:n]
	}
	return list, nil
}

func (m *Memcached) StoreAggregate(ctx context.Context, key string, data any, ttl time.Duration) error {
	_, span := otel.Tracer("kolam-cache").Start(ctx, "cache.StoreAggregate")
	defer span.End()

	span.SetAttributes(
		attribute.String("cache.driver", DriverMemcached),
		attribute.String("cache.key", key),
		attribute.Int64("cache.ttl", int64(ttl.Seconds())),
	)

	b, err := json.Marshal(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to marshal aggregate: %w", err)
	}

	start := time.Now()
	if err := m.client.Set(&memcache.Item{Key: key, Value: b, Expiration: int32(ttl.Seconds())}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to store aggregate: %w", err)
	}
	m.metrics.RecordWrite(start)
	span.SetStatus(codes.Ok, "")

	return nil
}

func (m *Memcached) FetchAggregate(ctx context.Context, key string) ([]byte, error) {
	_, span := otel.Tracer("kolam-cache").Start(ctx, "cache.FetchAggregate")
	defer span.End()

	span.SetAttributes(
		attribute.String("cache.driver", DriverMemcached),
		attribute.String("cache.key", key),
	)

	start := time.Now()
	val, err := m.client.Get(key)
	switch {
	case errors.Is(err, memcache.ErrCacheMiss):
		m.metrics.RecordMiss()
		span.SetAttributes(attribute.String("cache.result", "miss"))
		span.SetStatus(codes.Ok, "")
		return nil, ErrCacheMiss
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("cache fetch: %w", err)
	default:
		m.metrics.RecordHit(start)
		span.SetAttributes(attribute.String("cache.result", "hit"))
		span.SetStatus(codes.Ok, "")
		return val.Value, nil
	}
}

func (m *Memcached) Ping(ctx context.Context) error {
	return m.client.Ping()
}

func (m *Memcached) Close() {
	m.client.Close()
}
