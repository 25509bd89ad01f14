package aggregate

import (
	"time"

	"github.com/ntentasd/kolam-api/pkg/types"
)

// FilterRange keeps readings whose time falls within [from, to]. Readings
// with an unparseable timestamp are dropped.
func FilterRange(readings []types.SensorReading, from, to time.Time) []types.SensorReading {
	out := make([]types.SensorReading, 0, len(readings))
	for _, r := range readings {
		t := readingTime(r)
		if t.IsZero() || t.Before(from) || t.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Summarize computes avg/min/max over the valid values. ok is false when
// there is none.
func Summarize(values []float64) (agg types.Aggregate, ok bool) {
	sum := 0.0
	for _, v := range values {
		if !types.IsValid(v) {
			continue
		}
		if agg.Count == 0 || v < agg.Min {
			agg.Min = v
		}
		if agg.Count == 0 || v > agg.Max {
			agg.Max = v
		}
		sum += v
		agg.Count++
	}

	if agg.Count == 0 {
		return types.Aggregate{}, false
	}
	agg.Avg = sum / float64(agg.Count)
	return agg, true
}

// Values extracts one parameter from every reading, in order.
func Values(readings []types.SensorReading, p types.Parameter) []float64 {
	out := make([]float64, len(readings))
	for i, r := range readings {
		out[i] = r.Value(p)
	}
	return out
}
