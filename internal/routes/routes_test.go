package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ntentasd/kolam-api/internal/dashboard"
	"github.com/ntentasd/kolam-api/internal/db"
	"github.com/ntentasd/kolam-api/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDashboard struct {
	charts   *types.PondCharts
	latest   []types.SensorReading
	alerts   []types.Alert
	summary  types.Aggregate
	err      error
	gotN     int
	gotParam types.Parameter
	gotWin   time.Duration

	gotReason string
	gotFilter types.AlertFilter
}

func (f *fakeDashboard) Charts(context.Context, string) (*types.PondCharts, error) {
	return f.charts, f.err
}

func (f *fakeDashboard) Latest(_ context.Context, _ string, n int) ([]types.SensorReading, error) {
	f.gotN = n
	return f.latest, f.err
}

func (f *fakeDashboard) Alerts(context.Context, string) ([]types.Alert, error) {
	return f.alerts, f.err
}

func (f *fakeDashboard) Summary(_ context.Context, _ string, p types.Parameter, window time.Duration) (types.Aggregate, error) {
	f.gotParam, f.gotWin = p, window
	return f.summary, f.err
}

func (f *fakeDashboard) Ranges(_ context.Context, pondID string) (map[types.Parameter]types.OptimalRange, error) {
	return map[types.Parameter]types.OptimalRange{
		types.ParameterPH: {Min: 6.5, Max: 8.5, Default: true},
	}, f.err
}

func (f *fakeDashboard) SetRange(_ context.Context, pondID string, p types.Parameter, lo, hi float64) (types.OptimalRange, error) {
	if pondID == "0" {
		return types.OptimalRange{}, dashboard.ErrReservedPond
	}
	if hi <= lo {
		return types.OptimalRange{}, &dashboard.RangeError{Min: lo, Max: hi}
	}
	return types.OptimalRange{Min: lo, Max: hi}, f.err
}

func (f *fakeDashboard) DefaultRanges(context.Context) (map[types.Parameter]types.OptimalRange, error) {
	return map[types.Parameter]types.OptimalRange{
		types.ParameterPH: {Min: 6.5, Max: 8.5, Default: true, Source: types.SourceBuiltin},
	}, f.err
}

func (f *fakeDashboard) SetDefaultRanges(_ context.Context, reason string, entries []types.OptimalParameter) (map[types.Parameter]types.OptimalRange, error) {
	f.gotReason = reason
	if strings.TrimSpace(reason) == "" {
		return nil, dashboard.ErrReasonRequired
	}
	out := make(map[types.Parameter]types.OptimalRange, len(entries))
	for _, e := range entries {
		p, err := types.ToParameter(e.Parameter)
		if err != nil {
			return nil, err
		}
		out[p] = types.OptimalRange{Min: 1, Max: 2, Default: true, Source: types.SourceGlobal}
	}
	return out, f.err
}

func (f *fakeDashboard) StoredAlerts(_ context.Context, filter types.AlertFilter) ([]types.Alert, error) {
	f.gotFilter = filter
	return f.alerts, f.err
}

func (f *fakeDashboard) ResolveAlert(_ context.Context, id string) (time.Time, error) {
	if id != "known" {
		return time.Time{}, db.ErrAlertNotFound
	}
	return time.Date(2025, 4, 17, 9, 0, 0, 0, time.UTC), f.err
}

type fakePonds struct {
	ponds map[string]types.Pond
}

func newFakePonds() *fakePonds {
	return &fakePonds{ponds: map[string]types.Pond{"1": {PondID: "1", PondName: "Kolam Utara"}}}
}

func (f *fakePonds) ListPonds(context.Context) ([]types.Pond, error) {
	out := make([]types.Pond, 0, len(f.ponds))
	for _, p := range f.ponds {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePonds) GetPond(_ context.Context, pondID string) (*types.Pond, error) {
	p, ok := f.ponds[pondID]
	if !ok {
		return nil, db.ErrPondNotFound
	}
	return &p, nil
}

func (f *fakePonds) RegisterPond(_ context.Context, pondID, pondName string) (*types.Pond, error) {
	if _, ok := f.ponds[pondID]; ok {
		return nil, &db.PondAlreadyExistsError{PondID: pondID}
	}
	p := types.Pond{PondID: pondID, PondName: pondName}
	f.ponds[pondID] = p
	return &p, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func serve(t *testing.T, d Dashboard, method, target, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()

	app := New(d, newFakePonds(), fakePinger{}, dashboard.DefaultConfig(), zerolog.Nop())
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	NewMux(app).ServeHTTP(rec, req)

	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func sampleCharts() *types.PondCharts {
	return dashboard.BuildCharts("1", []types.SensorReading{{
		ID:          "a",
		PondID:      "1",
		Timestamp:   "2025-04-17 09:00:00",
		PH:          9,
		Temperature: 28,
		Salinity:    2,
		Ammonia:     0.1,
		EC:          700,
	}}, nil, dashboard.DefaultConfig())
}

func TestHealth(t *testing.T) {
	app := New(&fakeDashboard{}, newFakePonds(), fakePinger{err: errors.New("dial tcp: refused")}, dashboard.DefaultConfig(), zerolog.Nop())
	rec := httptest.NewRecorder()
	NewMux(app).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestCharts(t *testing.T) {
	rec, out := serve(t, &fakeDashboard{charts: sampleCharts()}, http.MethodGet, "/ponds/1/charts", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var pc types.PondCharts
	require.NoError(t, json.Unmarshal(out["data"], &pc))
	assert.Equal(t, "1", pc.PondID)
	assert.Equal(t, []bool{true}, pc.Charts[types.ParameterPH].Hourly.OutOfRange)
}

func TestCharts_Error(t *testing.T) {
	rec, out := serve(t, &fakeDashboard{err: errors.New("boom")}, http.MethodGet, "/ponds/1/charts", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `"boom"`, string(out["error"]))
}

func TestChart(t *testing.T) {
	d := &fakeDashboard{charts: sampleCharts()}

	rec, out := serve(t, d, http.MethodGet, "/ponds/1/charts/suhu?range=daily", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var ds types.ChartDataset
	require.NoError(t, json.Unmarshal(out["data"], &ds))
	assert.Equal(t, types.ParameterTemperature, ds.Parameter)
	assert.Equal(t, []string{"2025-04-17"}, ds.Labels)

	rec, _ = serve(t, d, http.MethodGet, "/ponds/1/charts/ph?range=weekly", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, d, http.MethodGet, "/ponds/1/charts/oxygen", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, d, http.MethodGet, "/ponds/1/charts/ec", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLatest(t *testing.T) {
	d := &fakeDashboard{latest: []types.SensorReading{{ID: "a", PondID: "1"}}}

	rec, _ := serve(t, d, http.MethodGet, "/ponds/1/latest", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultLatest, d.gotN)

	rec, _ = serve(t, d, http.MethodGet, "/ponds/1/latest?n=20", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, d.gotN)

	for _, n := range []string{"0", "101", "x"} {
		rec, _ = serve(t, d, http.MethodGet, "/ponds/1/latest?n="+n, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, n)
	}
}

func TestAlerts_NoReadings(t *testing.T) {
	rec, _ := serve(t, &fakeDashboard{err: dashboard.ErrNoReadings}, http.MethodGet, "/ponds/1/alerts", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSummary(t *testing.T) {
	d := &fakeDashboard{summary: types.Aggregate{Avg: 7, Count: 3}}

	rec, _ := serve(t, d, http.MethodGet, "/ponds/1/summary?parameter=tds&window=6h", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.ParameterAmmonia, d.gotParam)
	assert.Equal(t, 6*time.Hour, d.gotWin)

	rec, _ = serve(t, d, http.MethodGet, "/ponds/1/summary?parameter=ph&window=-1h", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, d, http.MethodGet, "/ponds/1/summary", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOptimalParameters(t *testing.T) {
	d := &fakeDashboard{}

	rec, out := serve(t, d, http.MethodGet, "/ponds/1/optimal-parameters", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(out["data"]), `"pH"`)

	rec, out = serve(t, d, http.MethodPost, "/ponds/1/optimal-parameters", `{"parameter": "ph", "min_value": "7", "max_value": 8}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var rng types.OptimalRange
	require.NoError(t, json.Unmarshal(out["data"], &rng))
	assert.Equal(t, 7.0, rng.Min)
	assert.Equal(t, 8.0, rng.Max)

	rec, _ = serve(t, d, http.MethodPost, "/ponds/1/optimal-parameters", `{"parameter": "ph", "min_value": 8, "max_value": 8}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, d, http.MethodPost, "/ponds/1/optimal-parameters", `{"parameter": "oxygen", "min_value": 1, "max_value": 2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, d, http.MethodPost, "/ponds/1/optimal-parameters", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAggregate(t *testing.T) {
	body := `[
		{"waktu": "2025-04-16 09:00:00", "ph": "6.0", "suhu": 27},
		{"waktu": "2025-04-16 12:00:00", "ph": "9.0", "suhu": "abc"}
	]`

	rec, out := serve(t, &fakeDashboard{}, http.MethodPost, "/aggregate?pond_id=1", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var pc types.PondCharts
	require.NoError(t, json.Unmarshal(out["data"], &pc))
	assert.Equal(t, []string{"09:00", "12:00"}, pc.Hourly.Labels)
	assert.Equal(t, []bool{true, true}, pc.Charts[types.ParameterPH].Hourly.OutOfRange)
	assert.Equal(t, types.Series{6.5, 8.5}, pc.Charts[types.ParameterPH].Hourly.Values)

	rec, out = serve(t, &fakeDashboard{}, http.MethodPost, "/aggregate", `{"waktu": "x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, out["error"])
}

func TestPonds(t *testing.T) {
	d := &fakeDashboard{}

	rec, out := serve(t, d, http.MethodGet, "/ponds", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"pond_id": "1", "pond_name": "Kolam Utara"}]`, string(out["data"]))

	rec, _ = serve(t, d, http.MethodGet, "/ponds/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, out = serve(t, d, http.MethodPost, "/ponds", `{"pond_id": "2", "pond_name": "Kolam Selatan"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"pond_id": "2", "pond_name": "Kolam Selatan"}`, string(out["data"]))

	rec, _ = serve(t, d, http.MethodPost, "/ponds", `{"pond_id": "1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = serve(t, d, http.MethodPost, "/ponds", `{"pond_id": " "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAggregate_Window(t *testing.T) {
	body := `[
		{"waktu": "2025-04-15 21:00:00", "ph": 7},
		{"waktu": "2025-04-16 09:00:00", "ph": 7.2},
		{"waktu": "not a time", "ph": 7.4}
	]`

	rec, out := serve(t, &fakeDashboard{}, http.MethodPost, "/aggregate?from=2025-04-16T00:00:00Z&to=2025-04-17T00:00:00Z", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var pc types.PondCharts
	require.NoError(t, json.Unmarshal(out["data"], &pc))
	assert.Equal(t, []string{"09:00"}, pc.Hourly.Labels)
	assert.Equal(t, []string{"2025-04-16"}, pc.Daily.Dates)

	rec, _ = serve(t, &fakeDashboard{}, http.MethodPost, "/aggregate?from=yesterday", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, &fakeDashboard{}, http.MethodPost, "/aggregate?from=2025-04-17T00:00:00Z&to=2025-04-16T00:00:00Z", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReservedPond(t *testing.T) {
	d := &fakeDashboard{}

	rec, _ := serve(t, d, http.MethodPost, "/ponds/0/optimal-parameters", `{"parameter": "ph", "min_value": 7, "max_value": 8}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, out := serve(t, d, http.MethodPost, "/ponds", `{"pond_id": "0", "pond_name": "Defaults"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(out["error"]), "reserved")
}

func TestDefaultRanges(t *testing.T) {
	d := &fakeDashboard{}

	rec, out := serve(t, d, http.MethodGet, "/optimal-parameters/default", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"pH": {"min": 6.5, "max": 8.5, "unit": "", "textmin": "", "textmax": "", "default": true, "source": "builtin"}}`, string(out["data"]))

	body := `{"reason": "musim hujan", "parameters": [{"parameter": "ph", "min_value": "7", "max_value": 8}]}`
	rec, out = serve(t, d, http.MethodPost, "/optimal-parameters/default", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "musim hujan", d.gotReason)
	assert.Contains(t, string(out["data"]), `"source":"global"`)

	rec, _ = serve(t, d, http.MethodPost, "/optimal-parameters/default", `{"reason": " ", "parameters": [{"parameter": "ph", "min_value": 7, "max_value": 8}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, d, http.MethodPost, "/optimal-parameters/default", `{"reason": "x", "parameters": [{"parameter": "oxygen", "min_value": 1, "max_value": 2}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, d, http.MethodPost, "/optimal-parameters/default", `{"reason": "x", "parameters": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoredAlerts(t *testing.T) {
	d := &fakeDashboard{alerts: []types.Alert{{ID: "known", PondID: "1", Parameter: types.ParameterPH, Direction: "high"}}}

	rec, out := serve(t, d, http.MethodGet, "/alerts?pond_id=1&resolved=false&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", d.gotFilter.PondID)
	require.NotNil(t, d.gotFilter.Resolved)
	assert.False(t, *d.gotFilter.Resolved)
	assert.Equal(t, 5, d.gotFilter.Limit)
	assert.Contains(t, string(out["data"]), `"id":"known"`)

	rec, _ = serve(t, d, http.MethodGet, "/alerts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, d.gotFilter.Resolved)
	assert.Zero(t, d.gotFilter.Limit)

	rec, _ = serve(t, d, http.MethodGet, "/alerts?resolved=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, d, http.MethodGet, "/alerts?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolveAlert(t *testing.T) {
	d := &fakeDashboard{}

	rec, out := serve(t, d, http.MethodPost, "/alerts/known/resolve", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id": "known", "resolved": true, "resolved_at": "2025-04-17T09:00:00Z"}`, string(out["data"]))

	rec, _ = serve(t, d, http.MethodPost, "/alerts/missing/resolve", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	app := New(&fakeDashboard{}, newFakePonds(), fakePinger{}, dashboard.DefaultConfig(), zerolog.New(&buf))

	rec := httptest.NewRecorder()
	NewMux(app).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ponds/1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), `GET /ponds/1 HTTP/1.1`)
	assert.Contains(t, buf.String(), ` 200 `)
}
