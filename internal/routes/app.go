package routes

import (
	"context"
	"time"

	"github.com/ntentasd/kolam-api/internal/dashboard"
	"github.com/ntentasd/kolam-api/pkg/types"
	"github.com/rs/zerolog"
)

// Dashboard is what the handlers need from the dashboard service.
type Dashboard interface {
	Charts(ctx context.Context, pondID string) (*types.PondCharts, error)
	Latest(ctx context.Context, pondID string, n int) ([]types.SensorReading, error)
	Alerts(ctx context.Context, pondID string) ([]types.Alert, error)
	Summary(ctx context.Context, pondID string, p types.Parameter, window time.Duration) (types.Aggregate, error)
	Ranges(ctx context.Context, pondID string) (map[types.Parameter]types.OptimalRange, error)
	SetRange(ctx context.Context, pondID string, p types.Parameter, lo, hi float64) (types.OptimalRange, error)
	DefaultRanges(ctx context.Context) (map[types.Parameter]types.OptimalRange, error)
	SetDefaultRanges(ctx context.Context, reason string, entries []types.OptimalParameter) (map[types.Parameter]types.OptimalRange, error)
	StoredAlerts(ctx context.Context, f types.AlertFilter) ([]types.Alert, error)
	ResolveAlert(ctx context.Context, alertID string) (time.Time, error)
}

// PondRegistry lists and registers ponds.
type PondRegistry interface {
	ListPonds(ctx context.Context) ([]types.Pond, error)
	GetPond(ctx context.Context, pondID string) (*types.Pond, error)
	RegisterPond(ctx context.Context, pondID, pondName string) (*types.Pond, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	Dashboard Dashboard
	Ponds     PondRegistry
	Cache     Pinger
	Core      dashboard.Config
	logger    zerolog.Logger
}

func New(d Dashboard, ponds PondRegistry, cache Pinger, core dashboard.Config, logger zerolog.Logger) *App {
	return &App{
		d,
		ponds,
		cache,
		core,
		logger,
	}
}
