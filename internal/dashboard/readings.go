package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/ntentasd/kolam-api/internal/aggregate"
	"github.com/ntentasd/kolam-api/internal/alerts"
	"github.com/ntentasd/kolam-api/internal/cache"
	"github.com/ntentasd/kolam-api/pkg/types"
)

// Latest returns up to n readings, newest first. A short cache list is
// treated as stale and reloaded from the store.
func (s *Service) Latest(ctx context.Context, pondID string, n int) ([]types.SensorReading, error) {
	key := cache.LatestKey(pondID)

	res, err := s.cache.FetchLast(ctx, key, n)
	if err != nil {
		s.logger.Warn().Err(err).Str("pond_id", pondID).Msg("latest cache unavailable")
		res = nil
	}
	if len(res) >= n {
		return res, nil
	}

	now := s.now().UTC()
	res, err = s.store.GetReadings(ctx, pondID, now.Add(-s.cfg.Window), now)
	if err != nil {
		return nil, fmt.Errorf("load readings: %w", err)
	}
	if len(res) > n {
		res = res[:n]
	}

	for _, r := range res {
		if err := s.cache.Store(ctx, key, r); err != nil {
			s.logger.Warn().Err(err).Str("pond_id", pondID).Msg("failed to backfill latest cache")
			break
		}
	}

	return res, nil
}

// Alerts checks the pond's most recent reading against its ranges.
func (s *Service) Alerts(ctx context.Context, pondID string) ([]types.Alert, error) {
	latest, err := s.Latest(ctx, pondID, 1)
	if err != nil {
		return nil, err
	}
	if len(latest) == 0 {
		return nil, ErrNoReadings
	}

	out := alerts.Check(latest[0], s.rangesOrDefaults(ctx, pondID))
	if out == nil {
		out = []types.Alert{}
	}
	return out, nil
}

// Summary aggregates one parameter over the trailing window.
func (s *Service) Summary(ctx context.Context, pondID string, p types.Parameter, window time.Duration) (types.Aggregate, error) {
	now := s.now().UTC()

	readings, err := s.store.GetReadings(ctx, pondID, now.Add(-window), now)
	if err != nil {
		return types.Aggregate{}, fmt.Errorf("load readings: %w", err)
	}

	agg, ok := aggregate.Summarize(aggregate.Values(readings, p))
	if !ok {
		return types.Aggregate{}, ErrNoReadings
	}
	agg.Timestamp = now
	return agg, nil
}

// Ingest persists a reading, appends it to the latest cache and stores the
// alerts it raises. The returned alerts carry their ids when stored.
func (s *Service) Ingest(ctx context.Context, r types.SensorReading) ([]types.Alert, error) {
	if err := s.store.InsertReading(ctx, r); err != nil {
		return nil, err
	}

	if err := s.cache.Store(ctx, cache.LatestKey(r.PondID), r); err != nil {
		s.logger.Warn().Err(err).Str("pond_id", r.PondID).Msg("failed to cache reading")
	}

	found := alerts.Check(r, s.rangesOrDefaults(ctx, r.PondID))
	for i, a := range found {
		stored, err := s.store.InsertAlert(ctx, a)
		if err != nil {
			s.logger.Error().Err(err).Str("pond_id", r.PondID).Str("parameter", string(a.Parameter)).Msg("failed to store alert")
			continue
		}
		found[i] = stored
	}
	return found, nil
}
