// Package alerts flags sensor readings that leave their optimal range.
package alerts

import (
	"github.com/ntentasd/kolam-api/internal/chart"
	"github.com/ntentasd/kolam-api/internal/ranges"
	"github.com/ntentasd/kolam-api/pkg/types"
)

// Check returns one alert per known parameter of r outside its range.
// Parameters missing from rngs use the default range. NaN values and
// degenerate ranges never alert.
func Check(r types.SensorReading, rngs map[types.Parameter]types.OptimalRange) []types.Alert {
	var out []types.Alert

	for _, p := range types.KnownParameters {
		v := r.Value(p)
		if !types.IsValid(v) {
			continue
		}

		rng, ok := rngs[p]
		if !ok {
			rng = ranges.Default(p)
		}

		var dir types.Direction
		switch chart.Classify(v, rng) {
		case types.PointAbove:
			dir = types.DirectionHigh
		case types.PointBelow:
			dir = types.DirectionLow
		default:
			continue
		}

		out = append(out, types.Alert{
			PondID:     r.PondID,
			ReadingID:  r.ID,
			Parameter:  p,
			Measured:   v,
			OptimalMin: rng.Min,
			OptimalMax: rng.Max,
			Direction:  dir,
			Waktu:      r.Timestamp,
		})
	}

	return out
}
