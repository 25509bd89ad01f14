package routes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ntentasd/kolam-api/internal/aggregate"
	"github.com/ntentasd/kolam-api/internal/dashboard"
	"github.com/ntentasd/kolam-api/pkg/types"
	"github.com/ntentasd/kolam-api/pkg/utils"
)

const (
	defaultLatest = 5
	maxLatest     = 100
	maxBodyBytes  = 10 << 20
)

func (app *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 200*time.Millisecond)
	defer cancel()

	if app.Cache != nil {
		if err := app.Cache.Ping(ctx); err != nil {
			utils.ReplyJSON(w, http.StatusOK, utils.Body{
				"state": "degraded",
				"cache": err.Error(),
			})
			return
		}
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"state": "healthy",
	})
}

func (app *App) chartsHandler(w http.ResponseWriter, r *http.Request) {
	pondID := r.PathValue("pond")

	pc, err := app.Dashboard.Charts(r.Context(), pondID)
	if err != nil {
		app.logger.Error().Err(err).Str("pond_id", pondID).Msg("charts")
		utils.ReplyInternalServerError(w, err.Error())
		return
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": pc,
	})
}

func (app *App) chartHandler(w http.ResponseWriter, r *http.Request) {
	pondID := r.PathValue("pond")

	p, err := types.ToParameter(r.PathValue("parameter"))
	if err != nil {
		utils.ReplyBadRequest(w, "invalid parameter")
		return
	}

	view := r.URL.Query().Get("range")
	if view == "" {
		view = "hourly"
	}
	if view != "hourly" && view != "daily" {
		utils.ReplyBadRequest(w, "range must be hourly or daily")
		return
	}

	pc, err := app.Dashboard.Charts(r.Context(), pondID)
	if err != nil {
		app.logger.Error().Err(err).Str("pond_id", pondID).Msg("chart")
		utils.ReplyInternalServerError(w, err.Error())
		return
	}

	charts, ok := pc.Charts[p]
	if !ok {
		utils.ReplyNotFound(w, "parameter is not charted")
		return
	}

	ds := charts.Hourly
	if view == "daily" {
		ds = charts.Daily
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": ds,
	})
}

func (app *App) latestHandler(w http.ResponseWriter, r *http.Request) {
	pondID := r.PathValue("pond")

	n := defaultLatest
	if s := r.URL.Query().Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > maxLatest {
			utils.ReplyBadRequest(w, "invalid n")
			return
		}
		n = v
	}

	res, err := app.Dashboard.Latest(r.Context(), pondID, n)
	if err != nil {
		utils.ReplyInternalServerError(w, err.Error())
		return
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": res,
	})
}

func (app *App) alertsHandler(w http.ResponseWriter, r *http.Request) {
	pondID := r.PathValue("pond")

	res, err := app.Dashboard.Alerts(r.Context(), pondID)
	if err != nil {
		if errors.Is(err, dashboard.ErrNoReadings) {
			utils.ReplyNotFound(w, "no readings found")
			return
		}
		utils.ReplyInternalServerError(w, err.Error())
		return
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": res,
	})
}

func (app *App) summaryHandler(w http.ResponseWriter, r *http.Request) {
	pondID := r.PathValue("pond")

	p, err := types.ToParameter(r.URL.Query().Get("parameter"))
	if err != nil {
		utils.ReplyBadRequest(w, "invalid parameter")
		return
	}

	window := 24 * time.Hour
	if s := r.URL.Query().Get("window"); s != "" {
		window, err = time.ParseDuration(s)
		if err != nil || window <= 0 {
			utils.ReplyBadRequest(w, "invalid window")
			return
		}
	}

	agg, err := app.Dashboard.Summary(r.Context(), pondID, p, window)
	if err != nil {
		if errors.Is(err, dashboard.ErrNoReadings) {
			utils.ReplyNotFound(w, "no readings found")
			return
		}
		utils.ReplyInternalServerError(w, err.Error())
		return
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": agg,
	})
}

func (app *App) rangesHandler(w http.ResponseWriter, r *http.Request) {
	pondID := r.PathValue("pond")

	rngs, err := app.Dashboard.Ranges(r.Context(), pondID)
	if err != nil {
		utils.ReplyInternalServerError(w, err.Error())
		return
	}

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": rngs,
	})
}

func (app *App) setRangeHandler(w http.ResponseWriter, r *http.Request) {
	pondID := r.PathValue("pond")

	var req types.OptimalParameter
	if err := decodeJSON(w, r, &req); err != nil {
		utils.ReplyBadRequest(w, "invalid request body")
		return
	}

	p, err := types.ToParameter(req.Parameter)
	if err != nil {
		utils.ReplyBadRequest(w, "invalid parameter")
		return
	}

	rng, err := app.Dashboard.SetRange(r.Context(), pondID, p, req.MinValue.Float(), req.MaxValue.Float())
	if err != nil {
		if isRangeInputError(err) {
			utils.ReplyBadRequest(w, err.Error())
			return
		}
		utils.ReplyInternalServerError(w, err.Error())
		return
	}

	utils.ReplyJSON(w, http.StatusCreated, utils.Body{
		"data": rng,
	})
}

// aggregateHandler runs the core over a posted reading list using default
// optimal ranges. Records without an id are numbered per request. Optional
// from/to (RFC 3339) narrow the list before bucketing. Nothing is stored.
func (app *App) aggregateHandler(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWindow(r)
	if err != nil {
		utils.ReplyBadRequest(w, err.Error())
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		utils.ReplyBadRequest(w, "unable to read body")
		return
	}

	raw, err := aggregate.DecodeReadings(body)
	if err != nil {
		utils.ReplyBadRequest(w, err.Error())
		return
	}

	readings := aggregate.Normalize(raw, &aggregate.Counter{})
	if !from.IsZero() || !to.IsZero() {
		if to.IsZero() {
			to = time.Now().UTC()
		}
		readings = aggregate.FilterRange(readings, from, to)
	}

	pc := dashboard.BuildCharts(r.URL.Query().Get("pond_id"), readings, nil, app.Core)
	pc.GeneratedAt = time.Now().UTC()

	utils.ReplyJSON(w, http.StatusOK, utils.Body{
		"data": pc,
	})
}

func parseWindow(r *http.Request) (from, to time.Time, err error) {
	q := r.URL.Query()
	if s := q.Get("from"); s != "" {
		if from, err = time.Parse(time.RFC3339, s); err != nil {
			return from, to, fmt.Errorf("invalid from: %w", err)
		}
	}
	if s := q.Get("to"); s != "" {
		if to, err = time.Parse(time.RFC3339, s); err != nil {
			return from, to, fmt.Errorf("invalid to: %w", err)
		}
	}
	if !to.IsZero() && to.Before(from) {
		return from, to, errors.New("to is before from")
	}
	return from, to, nil
}
