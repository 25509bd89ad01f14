// Package aggregate buckets raw pond sensor readings into the hourly and
// daily series drawn by the dashboard charts. Every function here is pure.
package aggregate

import (
	"math"
	"sort"

	"github.com/ntentasd/kolam-api/pkg/types"
)

// HourlySlots is the number of readings in the hourly view: one every three
// hours over a day.
const HourlySlots = 8

type DateOrder int

const (
	// Chronological sorts daily buckets by date.
	Chronological DateOrder = iota
	// FirstSeen keeps dates in the order they first appear in the input.
	FirstSeen
)

// Hourly takes the first HourlySlots readings by position and lays out each
// tracked parameter as a series. No time window is applied. Malformed values
// stay in place as NaN.
func Hourly(readings []types.SensorReading) types.HourlyBucketSet {
	n := min(len(readings), HourlySlots)

	set := types.HourlyBucketSet{
		Labels: make([]string, 0, n),
		Values: newSeriesMap(n),
	}

	for _, r := range readings[:n] {
		set.Labels = append(set.Labels, hourLabel(r))
		for _, p := range types.TrackedParameters {
			set.Values[p] = append(set.Values[p], r.Value(p))
		}
	}

	return set
}

type dayBucket struct {
	sum   map[types.Parameter]float64
	count map[types.Parameter]int
}

// Daily groups readings by calendar date and averages each tracked parameter
// over its valid values. A date with no valid value for a parameter gets NaN
// for that parameter.
func Daily(readings []types.SensorReading, order DateOrder) types.DailyBucketSet {
	buckets := make(map[string]*dayBucket)
	var dates []string

	for _, r := range readings {
		date := dayLabel(r)
		b, ok := buckets[date]
		if !ok {
			b = &dayBucket{
				sum:   make(map[types.Parameter]float64, len(types.TrackedParameters)),
				count: make(map[types.Parameter]int, len(types.TrackedParameters)),
			}
			buckets[date] = b
			dates = append(dates, date)
		}

		for _, p := range types.TrackedParameters {
			v := r.Value(p)
			if !types.IsValid(v) {
				continue
			}
			b.sum[p] += v
			b.count[p]++
		}
	}

	if order == Chronological {
		sort.Strings(dates)
	}

	set := types.DailyBucketSet{
		Dates:  dates,
		Values: newSeriesMap(len(dates)),
	}
	if set.Dates == nil {
		set.Dates = []string{}
	}

	for _, date := range dates {
		b := buckets[date]
		for _, p := range types.TrackedParameters {
			mean := math.NaN()
			if c := b.count[p]; c > 0 {
				mean = b.sum[p] / float64(c)
			}
			set.Values[p] = append(set.Values[p], mean)
		}
	}

	return set
}

func newSeriesMap(capacity int) map[types.Parameter]types.Series {
	m := make(map[types.Parameter]types.Series, len(types.TrackedParameters))
	for _, p := range types.TrackedParameters {
		m[p] = make(types.Series, 0, capacity)
	}
	return m
}
