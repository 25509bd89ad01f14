// Package chart turns a bucketed series and an optimal range into the dataset
// drawn by the dashboard: values clamped into the optimal band, the true
// values, out-of-range flags and the y-axis bounds.
package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/ntentasd/kolam-api/internal/ranges"
	"github.com/ntentasd/kolam-api/pkg/types"
)

const DefaultPaddingFactor = 0.1

const (
	statusBelow  = " (Di Bawah Optimal)"
	statusAbove  = " (Di Atas Optimal)"
	statusNoData = "Tidak Ada Data"
)

type Options struct {
	// PaddingFactor is the share of the range width added below min and
	// above max on the y axis.
	PaddingFactor float64
}

func DefaultOptions() Options {
	return Options{PaddingFactor: DefaultPaddingFactor}
}

// Build classifies raw against rng. NaN points are never flagged and pass
// through unclamped. A degenerate range (max <= min, or non-finite bounds)
// disables clamping, flagging and padding.
func Build(
	parameter types.Parameter,
	raw types.Series,
	labels []string,
	rng types.OptimalRange,
	opts Options,
) types.ChartDataset {
	label := strings.TrimSpace(fmt.Sprintf("%s %s", parameter, rng.Unit))

	ds := types.ChartDataset{
		Parameter:  parameter,
		Label:      label,
		Labels:     labels,
		Values:     make(types.Series, len(raw)),
		Original:   make(types.Series, len(raw)),
		OutOfRange: make([]bool, len(raw)),
		Status:     make([]types.PointStatus, len(raw)),
		Tooltips:   make([]string, len(raw)),
		Range:      rng,
	}
	if ds.Labels == nil {
		ds.Labels = []string{}
	}
	copy(ds.Original, raw)

	ds.Degenerate = Degenerate(rng)
	yMin, yMax := Bounds(rng, opts.PaddingFactor)
	ds.YMin, ds.YMax = types.Value(yMin), types.Value(yMax)
	ds.Ticks = Ticks(rng)

	for i, v := range raw {
		status := Classify(v, rng)
		ds.Status[i] = status
		ds.OutOfRange[i] = status == types.PointBelow || status == types.PointAbove
		ds.Values[i] = Clamp(v, rng)
		ds.Tooltips[i] = Tooltip(label, v, rng.Unit, status)
	}

	return ds
}

func Degenerate(rng types.OptimalRange) bool {
	return !types.IsValid(rng.Min) || !types.IsValid(rng.Max) || rng.Max <= rng.Min
}

// Classify places v relative to rng. Bounds are inclusive.
func Classify(v float64, rng types.OptimalRange) types.PointStatus {
	switch {
	case !types.IsValid(v):
		return types.PointNoData
	case Degenerate(rng):
		return types.PointOK
	case v < rng.Min:
		return types.PointBelow
	case v > rng.Max:
		return types.PointAbove
	default:
		return types.PointOK
	}
}

// Clamp constrains v to rng for display.
func Clamp(v float64, rng types.OptimalRange) float64 {
	if !types.IsValid(v) || Degenerate(rng) {
		return v
	}
	return math.Min(math.Max(v, rng.Min), rng.Max)
}

// Bounds returns the suggested y-axis limits. A negative padding is treated
// as zero.
func Bounds(rng types.OptimalRange, padding float64) (yMin, yMax float64) {
	if Degenerate(rng) {
		return math.Min(rng.Min, rng.Max), math.Max(rng.Min, rng.Max)
	}
	padding = math.Max(padding, 0)
	pad := padding * (rng.Max - rng.Min)
	return rng.Min - pad, rng.Max + pad
}

// Ticks are the only y values worth labelling: min, midpoint and max.
func Ticks(rng types.OptimalRange) []float64 {
	if Degenerate(rng) {
		return []float64{}
	}
	return []float64{rng.Min, (rng.Min + rng.Max) / 2, rng.Max}
}

// Tooltip renders the hover text of one point, e.g. "pH: 9 (Di Atas Optimal)".
func Tooltip(label string, v float64, unit string, status types.PointStatus) string {
	if status == types.PointNoData {
		return fmt.Sprintf("%s: %s", label, statusNoData)
	}

	var suffix string
	switch status {
	case types.PointBelow:
		suffix = statusBelow
	case types.PointAbove:
		suffix = statusAbove
	}
	return fmt.Sprintf("%s: %s%s%s", label, ranges.FormatNumber(v), unit, suffix)
}
