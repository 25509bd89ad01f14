package aggregate_test

import (
	"math"
	"testing"
	"time"

	"github.com/ntentasd/kolam-api/internal/aggregate"
	"github.com/ntentasd/kolam-api/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestFilterRange(t *testing.T) {
	readings := []types.SensorReading{
		reading("2025-04-14 23:59:59", 7, 28, 1, 0),
		reading("2025-04-15 00:00:00", 7, 28, 1, 0),
		reading("2025-04-16 12:00:00", 7, 28, 1, 0),
		reading("2025-04-17 00:00:00", 7, 28, 1, 0),
		{Timestamp: "garbage"},
	}

	from := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 4, 17, 0, 0, 0, 0, time.UTC)

	got := aggregate.FilterRange(readings, from, to)

	var stamps []string
	for _, r := range got {
		stamps = append(stamps, r.Timestamp)
	}
	assert.Equal(t, []string{"2025-04-15 00:00:00", "2025-04-16 12:00:00", "2025-04-17 00:00:00"}, stamps)
}

func TestSummarize(t *testing.T) {
	agg, ok := aggregate.Summarize([]float64{7.0, math.NaN(), 9.0, 6.5, math.Inf(1)})

	assert.True(t, ok)
	assert.Equal(t, 3, agg.Count)
	assert.Equal(t, 6.5, agg.Min)
	assert.Equal(t, 9.0, agg.Max)
	assert.InDelta(t, 7.5, agg.Avg, 1e-9)
}

func TestSummarize_NoValidValues(t *testing.T) {
	_, ok := aggregate.Summarize([]float64{math.NaN()})
	assert.False(t, ok)

	_, ok = aggregate.Summarize(nil)
	assert.False(t, ok)
}

func TestValues(t *testing.T) {
	readings := []types.SensorReading{
		reading("2025-04-16 08:00:00", 7.1, 28, 1, 0),
		reading("2025-04-16 09:00:00", 7.2, 29, 1, 0),
	}

	assert.Equal(t, []float64{28, 29}, aggregate.Values(readings, types.ParameterTemperature))
}
