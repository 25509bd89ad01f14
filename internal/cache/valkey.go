package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ntentasd/kolam-api/pkg/types"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var _ Cache = (*Valkey)(nil)

type Valkey struct {
	client  redis.UniversalClient
	metrics *CacheMetrics
}

// NewValkey connects to a cluster when given several nodes and to a single
// node otherwise.
func NewValkey(addrs []string) *Valkey {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:       addrs,
		DialTimeout: 2 * time.Second,
	})
	cm := NewCacheMetrics(DriverValkey)
	return &Valkey{client, cm}
}

func (v *Valkey) Store(ctx context.Context, prefix string, r types.SensorReading) error {
	ctx, cancel := context.WithTimeout(ctx, time.Millisecond*200)
	defer cancel()

	member, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	start := time.Now()
	pipe := v.client.TxPipeline()
	pipe.ZAdd(ctx, prefix, redis.Z{
		Score:  readingScore(r),
		Member: member,
	})
	pipe.ZRemRangeByRank(ctx, prefix, 0, -MaxLatest-1)
	pipe.Expire(ctx, prefix, 24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	v.metrics.RecordWrite(start)

	return nil
}

func (v *Valkey) FetchLast(ctx context.Context, prefix string, n int) ([]types.SensorReading, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Millisecond*100)
	defer cancel()

	start := time.Now()
	entries, err := v.client.ZRevRange(ctx, prefix, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		v.metrics.RecordMiss()
	} else {
		v.metrics.RecordHit(start)
	}

	ret := make([]types.SensorReading, 0, len(entries))

	for _, e := range entries {
		var r types.SensorReading
		if err := json.Unmarshal([]byte(e), &r); err != nil {
			return nil, fmt.Errorf("failed to parse reading: %w", err)
		}
		ret = append(ret, r)
	}

	return ret, nil
}

func (v *Valkey) StoreAggregate(ctx context.Context, key string, data any, ttl time.Duration) error {
	ctx, span := otel.Tracer("kolam-cache").Start(ctx, "cache.StoreAggregate")
	defer span.End()

	span.SetAttributes(
		attribute.String("cache.driver", DriverValkey),
		attribute.String("cache.key", key),
		attribute.Int64("cache.ttl", int64(ttl.Seconds())),
	)

	ctx, cancel := context.WithTimeout(
		ctx,
		time.Millisecond*200,
	)
	defer cancel()

	b, err := json.Marshal(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to marshal aggregate: %w", err)
	}

	start := time.Now()
	if err := v.client.Set(ctx, key, b, ttl).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to store aggregate: %w", err)
	}
	v.metrics.RecordWrite(start)
	span.SetStatus(codes.Ok, "")

	return nil
}

func (v *Valkey) FetchAggregate(ctx context.Context, key string) ([]byte, error) {
	ctx, span := otel.Tracer("kolam-cache").Start(ctx, "cache.FetchAggregate")
	defer span.End()

	span.SetAttributes(
		attribute.String("cache.driver", DriverValkey),
		attribute.String("cache.key", key),
	)

	ctx, cancel := context.WithTimeout(
		ctx,
		time.Millisecond*100,
	)
	defer cancel()

	start := time.Now()
	val, err := v.client.Get(ctx, key).Bytes()
	switch {
	case err == redis.Nil:
		v.metrics.RecordMiss()
		span.SetAttributes(attribute.String("cache.result", "miss"))
		span.SetStatus(codes.Ok, "")
		return nil, ErrCacheMiss
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("cache fetch: %w", err)
	default:
		v.metrics.RecordHit(start)
		span.SetAttributes(attribute.String("cache.result", "hit"))
		span.SetStatus(codes.Ok, "")
		return val, nil
	}
}

func (v *Valkey) Ping(ctx context.Context) error {
	return v.client.Ping(ctx).Err()
}

func (v *Valkey) Close() {
	v.client.Close()
}
