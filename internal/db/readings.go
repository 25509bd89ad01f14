package db

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ntentasd/kolam-api/internal/metrics"
	"github.com/ntentasd/kolam-api/pkg/types"
)

var ErrMissingTimestamp = errors.New("reading has no parseable timestamp")

// GetReadings returns the pond's readings between two timestamps, newest
// first, possibly spanning multiple bucket_dates.
func (db *DB) GetReadings(ctx context.Context, pondID string, from, to time.Time) ([]types.SensorReading, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DbReadLatencySeconds.WithLabelValues("readings").Observe(time.Since(start).Seconds())
	}()

	from, to = from.UTC(), to.UTC()
	first := bucketDate(from)
	last := bucketDate(to)

	readings := make([]types.SensorReading, 0, 256)

	// Walk the day buckets backwards so the result stays newest first.
	for bucket := last; !bucket.Before(first); bucket = bucket.Add(-24 * time.Hour) {
		iter := db.sess.Query(`
SELECT reading_id, raw_waktu, waktu, ph, suhu, salinity, ammonia, ec
FROM readings
WHERE pond_id = ? AND bucket_date = ? AND waktu >= ? AND waktu <= ?
`, pondID, bucket, from, to).WithContext(ctx).Iter()

		var (
			id, raw                   string
			ts                        time.Time
			ph, suhu, sal, amm, ecVal *float64
		)
		for iter.Scan(&id, &raw, &ts, &ph, &suhu, &sal, &amm, &ecVal) {
			readings = append(readings, types.SensorReading{
				ID:          id,
				PondID:      pondID,
				Timestamp:   raw,
				Time:        ts.UTC(),
				PH:          nullable(ph),
				Temperature: nullable(suhu),
				Salinity:    nullable(sal),
				Ammonia:     nullable(amm),
				EC:          nullable(ecVal),
			})
		}

		if err := iter.Close(); err != nil {
			return nil, fmt.Errorf("failed to query bucket %s: %w", bucket.Format(time.DateOnly), err)
		}
	}

	return readings, nil
}

// InsertReading stores one reading. NaN values are written as null.
func (db *DB) InsertReading(ctx context.Context, r types.SensorReading) error {
	if r.Time.IsZero() {
		return ErrMissingTimestamp
	}

	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	ts := r.Time.UTC()
	err := db.sess.Query(`
INSERT INTO readings (pond_id, bucket_date, waktu, reading_id, raw_waktu, ph, suhu, salinity, ammonia, ec)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		r.PondID, bucketDate(ts), ts, r.ID, r.Timestamp,
		bindable(r.PH), bindable(r.Temperature), bindable(r.Salinity), bindable(r.Ammonia), bindable(r.EC),
	).WithContext(ctx).Exec()
	if err != nil {
		metrics.DbWriteErrorsTotal.WithLabelValues("readings").Inc()
		return fmt.Errorf("insert reading %s: %w", r.ID, err)
	}
	return nil
}

func bucketDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nullable(v *float64) types.Value {
	if v == nil {
		return types.Value(math.NaN())
	}
	return types.Value(*v)
}

func bindable(v types.Value) *float64 {
	f := float64(v)
	if !types.IsValid(f) {
		return nil
	}
	return &f
}
