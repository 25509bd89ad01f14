package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReadingsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "readings_ingested_total",
			Namespace: KolamNamespace,
			Help:      "Sensor readings consumed from Kafka, by outcome.",
		},
		[]string{"outcome"},
	)

	OutOfRangePointsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "out_of_range_points_total",
			Namespace: KolamNamespace,
			Help:      "Chart points flagged outside their optimal range.",
		},
		[]string{"parameter", "direction"},
	)

	ChartRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "chart_refreshes_total",
			Namespace: KolamNamespace,
			Help:      "Pond chart recomputations, by trigger.",
		},
		[]string{"trigger"},
	)
)
