package aggregate_test

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ntentasd/kolam-api/internal/aggregate"
	"github.com/ntentasd/kolam-api/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = `[
  {"id": "17", "pond_id": 3, "waktu": "2025-04-16 09:00:00", "ph": "7.2", "suhu": 28.5, "salinity": "1.5", "tds": 0.4, "ec_value": "820"},
  {"pond_id": "3", "waktu": "2025-04-16 06:00:00", "ph": "n/a", "suhu": null, "salinity": 2, "ammonia": "0.9", "tds": 5}
]`

func TestDecodeAndNormalize_MapsFields(t *testing.T) {
	raw, err := aggregate.DecodeReadings([]byte(payload))
	require.NoError(t, err)
	require.Len(t, raw, 2)

	readings := aggregate.Normalize(raw, &aggregate.Counter{})
	require.Len(t, readings, 2)

	first := readings[0]
	assert.Equal(t, "17", first.ID)
	assert.Equal(t, "3", first.PondID)
	assert.Equal(t, "2025-04-16 09:00:00", first.Timestamp)
	assert.Equal(t, time.Date(2025, 4, 16, 9, 0, 0, 0, time.UTC), first.Time)
	assert.Equal(t, 7.2, first.Value(types.ParameterPH))
	assert.Equal(t, 28.5, first.Value(types.ParameterTemperature))
	assert.Equal(t, 1.5, first.Value(types.ParameterSalinity))
	assert.Equal(t, 0.4, first.Value(types.ParameterAmmonia), "tds stands in for ammonia")
	assert.Equal(t, 820.0, first.Value(types.ParameterEC))

	second := readings[1]
	assert.Equal(t, "auto-1", second.ID)
	assert.True(t, math.IsNaN(second.Value(types.ParameterPH)))
	assert.True(t, math.IsNaN(second.Value(types.ParameterTemperature)))
	assert.Equal(t, 0.9, second.Value(types.ParameterAmmonia), "ammonia wins over tds")
	assert.True(t, math.IsNaN(second.Value(types.ParameterEC)))
}

func TestDecodeReadings_RejectsNonArray(t *testing.T) {
	for _, body := range []string{``, `{"waktu": "2025-04-16"}`, `"readings"`, `42`, `[{"waktu": 1}`} {
		_, err := aggregate.DecodeReadings([]byte(body))
		require.Error(t, err, "body %q", body)

		var inputErr *aggregate.InputError
		assert.True(t, errors.As(err, &inputErr), "body %q", body)
		assert.ErrorIs(t, err, &aggregate.InputError{})
	}
}

func TestDecodeReadings_WrongTypedWaktuKeepsBatch(t *testing.T) {
	body := `[
		{"waktu": "2025-04-16 08:00:00", "ph": "7.1"},
		{"waktu": 1713254400, "ph": 7.2},
		{"waktu": {"date": "2025-04-16"}, "ph": 7.3},
		{"waktu": ["2025-04-16"], "ph": 7.4},
		{"waktu": null, "ph": 7.5}
	]`

	raw, err := aggregate.DecodeReadings([]byte(body))
	require.NoError(t, err)
	require.Len(t, raw, 5)

	readings := aggregate.Normalize(raw, &aggregate.Counter{})
	require.Len(t, readings, 5)
	for i, r := range readings {
		assert.InDelta(t, 7.1+0.1*float64(i), r.Value(types.ParameterPH), 1e-9)
	}

	assert.Equal(t, "1713254400", readings[1].Timestamp)
	assert.True(t, readings[1].Time.Equal(time.Date(2024, 4, 16, 8, 0, 0, 0, time.UTC)))
	assert.True(t, readings[2].Time.IsZero())
	assert.True(t, readings[4].Time.IsZero())

	daily := aggregate.Daily(readings[:2], aggregate.Chronological)
	assert.Equal(t, []string{"2024-04-16", "2025-04-16"}, daily.Dates)
}

func TestDecodeReadings_EmptyArray(t *testing.T) {
	raw, err := aggregate.DecodeReadings([]byte(" [] "))
	require.NoError(t, err)
	assert.Empty(t, raw)
	assert.Empty(t, aggregate.Normalize(raw, nil))
}

func TestCounter_IsSequentialAndConcurrencySafe(t *testing.T) {
	var c aggregate.Counter
	seen := make(map[string]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := c.NextID(types.RawReading{}, 0)
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 50)
	assert.True(t, seen["auto-1"])
	assert.True(t, seen["auto-50"])
}

func TestHashIDs_AreDeterministic(t *testing.T) {
	raw := []types.RawReading{
		{PondID: "1", Waktu: "2025-04-16 09:00:00"},
		{PondID: "1", Waktu: "2025-04-16 09:00:00"},
	}

	a := aggregate.Normalize(raw, aggregate.HashIDs{})
	b := aggregate.Normalize(raw, aggregate.HashIDs{})

	assert.Equal(t, a[0].ID, b[0].ID)
	assert.Equal(t, a[1].ID, b[1].ID)
	assert.NotEqual(t, a[0].ID, a[1].ID, "position is part of the id")
	assert.Len(t, a[0].ID, 36)
}

func TestDatePart(t *testing.T) {
	cases := map[string]string{
		"2025-04-16 10:00:00":       "2025-04-16",
		"2025-04-16T10:00:00+07:00": "2025-04-16",
		"2025-04-16":                "2025-04-16",
		" 2025-04-16 10:00":         "2025-04-16",
	}
	for in, want := range cases {
		assert.Equal(t, want, aggregate.DatePart(in), in)
	}
}

func TestParseTime(t *testing.T) {
	assert.Equal(t, time.Date(2025, 4, 16, 10, 0, 0, 0, time.UTC), aggregate.ParseTime("2025-04-16 10:00:00"))
	assert.Equal(t, time.Date(2025, 4, 16, 10, 5, 0, 0, time.UTC), aggregate.ParseTime("2025-04-16 10:05"))
	assert.True(t, aggregate.ParseTime("2025-04-16T10:00:00+07:00").Equal(time.Date(2025, 4, 16, 3, 0, 0, 0, time.UTC)))
	assert.True(t, aggregate.ParseTime("yesterday").IsZero())
	assert.True(t, aggregate.ParseTime("1713254400").Equal(time.Date(2024, 4, 16, 8, 0, 0, 0, time.UTC)))
	assert.True(t, aggregate.ParseTime("1713254400000").Equal(time.Date(2024, 4, 16, 8, 0, 0, 0, time.UTC)))
}
