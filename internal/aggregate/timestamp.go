package aggregate

import (
	"strconv"
	"strings"
	"time"

	"github.com/ntentasd/kolam-api/pkg/types"
)

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// epochMillisCutoff separates unix seconds from unix milliseconds.
const epochMillisCutoff = 1e11

// ParseTime parses the timestamp formats emitted by the sensor API, plus unix
// seconds or milliseconds. Zone-less timestamps are read as UTC. The zero time
// is returned when nothing matches.
func ParseTime(ts string) time.Time {
	ts = strings.TrimSpace(ts)
	if t, ok := parseEpoch(ts); ok {
		return t
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t
		}
	}
	return time.Time{}
}

// DatePart returns the date component of a timestamp: everything before the
// first space or 'T'.
func DatePart(ts string) string {
	ts = strings.TrimSpace(ts)
	if i := strings.IndexAny(ts, " T"); i >= 0 {
		return ts[:i]
	}
	return ts
}

func parseEpoch(ts string) (time.Time, bool) {
	n, err := strconv.ParseInt(ts, 10, 64)
	if err != nil || n <= 0 {
		return time.Time{}, false
	}
	if n >= epochMillisCutoff {
		return time.UnixMilli(n).UTC(), true
	}
	return time.Unix(n, 0).UTC(), true
}

// dayLabel is the daily bucket of a reading: the date part of its timestamp,
// or the UTC date of an epoch timestamp.
func dayLabel(r types.SensorReading) string {
	if t, ok := parseEpoch(strings.TrimSpace(r.Timestamp)); ok {
		return t.Format(time.DateOnly)
	}
	return DatePart(r.Timestamp)
}

// hourLabel renders a reading's time of day as HH:MM.
func hourLabel(r types.SensorReading) string {
	if t := readingTime(r); !t.IsZero() {
		return t.Format("15:04")
	}
	ts := strings.TrimSpace(r.Timestamp)
	if i := strings.IndexAny(ts, " T"); i >= 0 {
		rest := ts[i+1:]
		if len(rest) >= 5 {
			return rest[:5]
		}
		return rest
	}
	return ts
}

func readingTime(r types.SensorReading) time.Time {
	if !r.Time.IsZero() {
		return r.Time
	}
	return ParseTime(r.Timestamp)
}
