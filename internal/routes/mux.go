// Package routes
package routes

import (
	"net/http"
	"time"

	"github.com/ntentasd/kolam-api/internal/metrics"
	"github.com/ntentasd/kolam-api/pkg/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewMux(app *App) http.Handler {
	mux := http.NewServeMux()

	// health check
	mux.HandleFunc("GET /healthz", app.healthHandler)

	// metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	// pond registry
	mux.HandleFunc("GET /ponds", app.instrument("list_ponds", app.listPondsHandler))
	mux.HandleFunc("POST /ponds", app.instrument("register_pond", app.registerPondHandler))
	mux.HandleFunc("GET /ponds/{pond}", app.instrument("pond", app.pondHandler))

	// pond views
	mux.HandleFunc("GET /ponds/{pond}/charts", app.instrument("charts", app.chartsHandler))
	mux.HandleFunc("GET /ponds/{pond}/charts/{parameter}", app.instrument("chart", app.chartHandler))
	mux.HandleFunc("GET /ponds/{pond}/latest", app.instrument("latest", app.latestHandler))
	mux.HandleFunc("GET /ponds/{pond}/alerts", app.instrument("alerts", app.alertsHandler))
	mux.HandleFunc("GET /ponds/{pond}/summary", app.instrument("summary", app.summaryHandler))

	// optimal ranges
	mux.HandleFunc("GET /ponds/{pond}/optimal-parameters", app.instrument("ranges", app.rangesHandler))
	mux.HandleFunc("POST /ponds/{pond}/optimal-parameters", app.instrument("set_range", app.setRangeHandler))

	mux.HandleFunc("GET /optimal-parameters/default", app.instrument("default_ranges", app.defaultRangesHandler))
	mux.HandleFunc("POST /optimal-parameters/default", app.instrument("set_default_ranges", app.setDefaultRangesHandler))

	// stored alerts
	mux.HandleFunc("GET /alerts", app.instrument("stored_alerts", app.storedAlertsHandler))
	mux.HandleFunc("POST /alerts/{id}/resolve", app.instrument("resolve_alert", app.resolveAlertHandler))

	// stateless aggregation of a posted reading list
	mux.HandleFunc("POST /aggregate", app.instrument("aggregate", app.aggregateHandler))

	return utils.WithCORS(utils.WithAccessLog(app.logger, mux))
}

// instrument records per-route latency.
func (app *App) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h(w, r)
		metrics.HttpRequestLatencySeconds.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	}
}
