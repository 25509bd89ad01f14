// Package dashboard composes storage, cache and the aggregation core into
// the views served to the pond dashboard.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ntentasd/kolam-api/internal/aggregate"
	"github.com/ntentasd/kolam-api/internal/cache"
	"github.com/ntentasd/kolam-api/internal/chart"
	"github.com/ntentasd/kolam-api/internal/metrics"
	"github.com/ntentasd/kolam-api/internal/ranges"
	"github.com/ntentasd/kolam-api/pkg/types"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Store is the subset of the database the dashboard reads and writes.
type Store interface {
	GetReadings(ctx context.Context, pondID string, from, to time.Time) ([]types.SensorReading, error)
	InsertReading(ctx context.Context, r types.SensorReading) error
	GetOptimalParameters(ctx context.Context, pondID string) ([]types.OptimalParameter, error)
	SetOptimalParameter(ctx context.Context, pondID string, p types.Parameter, lo, hi float64, reason string) error
	InsertAlert(ctx context.Context, a types.Alert) (types.Alert, error)
	ListAlerts(ctx context.Context, f types.AlertFilter) ([]types.Alert, error)
	ResolveAlert(ctx context.Context, alertID string) (time.Time, error)
}

var (
	ErrNoReadings     = errors.New("no readings found")
	ErrReservedPond   = fmt.Errorf("pond id %q is reserved for default ranges", ranges.GlobalPondID)
	ErrReasonRequired = errors.New("a reason is required to change default ranges")
)

type Config struct {
	// Window is how far back readings are loaded for the charts.
	Window time.Duration
	// TTL is the lifetime of cached chart sets.
	TTL       time.Duration
	DateOrder aggregate.DateOrder
	Chart     chart.Options
}

func DefaultConfig() Config {
	return Config{
		Window:    7 * 24 * time.Hour,
		TTL:       5 * time.Minute,
		DateOrder: aggregate.Chronological,
		Chart:     chart.DefaultOptions(),
	}
}

type Service struct {
	store  Store
	cache  cache.Cache
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(store Store, c cache.Cache, cfg Config, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		cache:  c,
		cfg:    cfg,
		logger: logger.With().Str("component", "dashboard").Logger(),
		now:    time.Now,
	}
}

// Charts returns the pond's chart set, from cache when possible.
func (s *Service) Charts(ctx context.Context, pondID string) (*types.PondCharts, error) {
	ctx, span := otel.Tracer("kolam-dashboard").Start(ctx, "dashboard.Charts")
	defer span.End()
	span.SetAttributes(attribute.String("pond.id", pondID))

	cached, err := s.cache.FetchAggregate(ctx, cache.ChartsKey(pondID))
	if err == nil {
		var pc types.PondCharts
		if err := json.Unmarshal(cached, &pc); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return &pc, nil
		}
		s.logger.Warn().Str("pond_id", pondID).Msg("discarding undecodable cached charts")
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn().Err(err).Str("pond_id", pondID).Msg("chart cache unavailable")
	}

	pc, err := s.refresh(ctx, pondID, "request")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return pc, nil
}

// Refresh recomputes the pond's chart set and stores it in the cache.
func (s *Service) Refresh(ctx context.Context, pondID string) (*types.PondCharts, error) {
	return s.refresh(ctx, pondID, "refresh")
}

func (s *Service) refresh(ctx context.Context, pondID, trigger string) (*types.PondCharts, error) {
	now := s.now().UTC()

	readings, err := s.store.GetReadings(ctx, pondID, now.Add(-s.cfg.Window), now)
	if err != nil {
		return nil, fmt.Errorf("load readings: %w", err)
	}

	pc := BuildCharts(pondID, readings, s.rangesOrDefaults(ctx, pondID), s.cfg)
	pc.GeneratedAt = now
	for _, p := range types.TrackedParameters {
		countOutOfRange(pc.Charts[p].Hourly)
	}
	metrics.ChartRefreshesTotal.WithLabelValues(trigger).Inc()

	if err := s.cache.StoreAggregate(ctx, cache.ChartsKey(pondID), pc, s.cfg.TTL); err != nil {
		s.logger.Warn().Err(err).Str("pond_id", pondID).Msg("failed to cache charts")
	}

	return pc, nil
}

// BuildCharts runs the aggregation and classification core over readings.
// A nil rngs uses the built-in ranges. It has no side effects.
func BuildCharts(pondID string, readings []types.SensorReading, rngs map[types.Parameter]types.OptimalRange, cfg Config) *types.PondCharts {
	hourly := aggregate.Hourly(readings)
	daily := aggregate.Daily(readings, cfg.DateOrder)
	if rngs == nil {
		rngs = ranges.ResolveAll(pondID, nil)
	}

	pc := &types.PondCharts{
		PondID: pondID,
		Hourly: hourly,
		Daily:  daily,
		Ranges: rngs,
		Charts: make(map[types.Parameter]types.ParameterCharts, len(types.TrackedParameters)),
	}

	for _, p := range types.TrackedParameters {
		pcs := types.ParameterCharts{
			Hourly: chart.Build(p, hourly.Values[p], hourly.Labels, rngs[p], cfg.Chart),
			Daily:  chart.Build(p, daily.Values[p], daily.Dates, rngs[p], cfg.Chart),
		}
		pc.Charts[p] = pcs
	}

	return pc
}

func countOutOfRange(ds types.ChartDataset) {
	for _, st := range ds.Status {
		switch st {
		case types.PointBelow:
			metrics.OutOfRangePointsTotal.WithLabelValues(string(ds.Parameter), string(types.DirectionLow)).Inc()
		case types.PointAbove:
			metrics.OutOfRangePointsTotal.WithLabelValues(string(ds.Parameter), string(types.DirectionHigh)).Inc()
		}
	}
}

// Ranges resolves every known parameter for the pond: its own entries first,
// then the global defaults, then the built-in table.
func (s *Service) Ranges(ctx context.Context, pondID string) (map[types.Parameter]types.OptimalRange, error) {
	var fetched []types.OptimalParameter
	if pondID != ranges.GlobalPondID {
		var err error
		if fetched, err = s.store.GetOptimalParameters(ctx, pondID); err != nil {
			return nil, fmt.Errorf("load optimal parameters: %w", err)
		}
	}

	global, err := s.store.GetOptimalParameters(ctx, ranges.GlobalPondID)
	if err != nil {
		return nil, fmt.Errorf("load default parameters: %w", err)
	}

	if pondID == ranges.GlobalPondID {
		return ranges.ResolveAll(pondID, global), nil
	}
	return ranges.ResolveAllWithGlobal(pondID, fetched, global), nil
}

// rangesOrDefaults is Ranges falling back to the built-in table when the
// store is unavailable.
func (s *Service) rangesOrDefaults(ctx context.Context, pondID string) map[types.Parameter]types.OptimalRange {
	rngs, err := s.Ranges(ctx, pondID)
	if err != nil {
		s.logger.Warn().Err(err).Str("pond_id", pondID).Msg("optimal parameters unavailable, using defaults")
		return ranges.ResolveAll(pondID, nil)
	}
	return rngs
}

// SetRange stores a pond's range for p and drops the stale chart set.
func (s *Service) SetRange(ctx context.Context, pondID string, p types.Parameter, lo, hi float64) (types.OptimalRange, error) {
	if pondID == ranges.GlobalPondID {
		return types.OptimalRange{}, ErrReservedPond
	}
	if err := validRange(p, lo, hi); err != nil {
		return types.OptimalRange{}, err
	}
	if err := s.store.SetOptimalParameter(ctx, pondID, p, lo, hi, ""); err != nil {
		return types.OptimalRange{}, err
	}
	if _, err := s.refresh(ctx, pondID, "range_update"); err != nil {
		s.logger.Warn().Err(err).Str("pond_id", pondID).Msg("failed to refresh charts after range update")
	}

	rng := ranges.Resolve(p, pondID, []types.OptimalParameter{{
		Parameter: string(p),
		MinValue:  types.NumberOf(lo),
		MaxValue:  types.NumberOf(hi),
	}})
	return rng, nil
}

// DefaultRanges resolves the global default ranges.
func (s *Service) DefaultRanges(ctx context.Context) (map[types.Parameter]types.OptimalRange, error) {
	return s.Ranges(ctx, ranges.GlobalPondID)
}

// SetDefaultRanges replaces global default ranges. Every entry is validated
// before any is written. Cached chart sets pick the change up on their next
// refresh.
func (s *Service) SetDefaultRanges(ctx context.Context, reason string, entries []types.OptimalParameter) (map[types.Parameter]types.OptimalRange, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}

	type update struct {
		p      types.Parameter
		lo, hi float64
	}
	updates := make([]update, 0, len(entries))
	for _, e := range entries {
		p, err := types.ToParameter(e.Parameter)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, e.Parameter)
		}
		lo, hi := e.MinValue.Float(), e.MaxValue.Float()
		if err := validRange(p, lo, hi); err != nil {
			return nil, err
		}
		updates = append(updates, update{p, lo, hi})
	}

	for _, u := range updates {
		if err := s.store.SetOptimalParameter(ctx, ranges.GlobalPondID, u.p, u.lo, u.hi, reason); err != nil {
			return nil, err
		}
	}
	s.logger.Info().Int("parameters", len(updates)).Str("reason", reason).Msg("default ranges updated")

	return s.DefaultRanges(ctx)
}

func validRange(p types.Parameter, lo, hi float64) error {
	if !types.IsValid(lo) || !types.IsValid(hi) || hi <= lo {
		return &RangeError{Parameter: p, Min: lo, Max: hi}
	}
	return nil
}

// RangeError rejects a range whose max is not above its min.
type RangeError struct {
	Parameter types.Parameter
	Min, Max  float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid %s range: min %v must be below max %v", e.Parameter, e.Min, e.Max)
}
