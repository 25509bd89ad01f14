package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ntentasd/kolam-api/pkg/types"
	"github.com/rs/zerolog"
)

// ChartRefresher recomputes and caches the chart set of one pond.
type ChartRefresher interface {
	Refresh(ctx context.Context, pondID string) (*types.PondCharts, error)
}

// PondLister supplies the ponds to refresh when none are configured.
type PondLister interface {
	ListPonds(ctx context.Context) ([]types.Pond, error)
}

// Refresher keeps the cached chart sets warm by recomputing them
// periodically, matching the dashboard's polling interval.
type Refresher struct {
	Charts   ChartRefresher
	Ponds    PondLister
	PondIDs  []string
	Interval time.Duration

	logger    zerolog.Logger
	cancelCtx context.CancelFunc
	wg        sync.WaitGroup
}

// NewRefresher creates a new background worker for chart refreshes. When
// pondIDs is empty the pond list is read from ponds on every tick.
func NewRefresher(charts ChartRefresher, ponds PondLister, pondIDs []string, interval time.Duration, logger zerolog.Logger) *Refresher {
	return &Refresher{
		Charts:   charts,
		Ponds:    ponds,
		PondIDs:  pondIDs,
		Interval: interval,
		logger:   logger.With().Str("component", "refresher").Logger(),
	}
}

func (r *Refresher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancelCtx = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(r.Interval)
		defer ticker.Stop()

		r.logger.Info().Dur("interval", r.Interval).Msg("started chart refresher")
		r.refreshAll(ctx)

		for {
			select {
			case <-ctx.Done():
				r.logger.Info().Msg("stopped")
				return
			case <-ticker.C:
				r.refreshAll(ctx)
			}
		}
	}()
}

// Stop gracefully stops the background worker and waits for it to exit.
func (r *Refresher) Stop() {
	if r.cancelCtx != nil {
		r.cancelCtx()
	}
	r.wg.Wait()
}

// refreshAll returns the number of ponds refreshed successfully.
func (r *Refresher) refreshAll(ctx context.Context) int {
	ids, err := r.pondIDs(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list ponds")
		return 0
	}

	ok := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		if _, err := r.Charts.Refresh(ctx, id); err != nil {
			r.logger.Error().Err(err).Str("pond_id", id).Msg("refresh failed")
			continue
		}
		ok++
	}

	r.logger.Debug().Int("ponds", len(ids)).Int("refreshed", ok).Msg("refresh pass done")
	return ok
}

func (r *Refresher) pondIDs(ctx context.Context) ([]string, error) {
	if len(r.PondIDs) > 0 || r.Ponds == nil {
		return r.PondIDs, nil
	}

	ponds, err := r.Ponds.ListPonds(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(ponds))
	for _, p := range ponds {
		ids = append(ids, p.PondID)
	}
	return ids, nil
}
