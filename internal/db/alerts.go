package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/ntentasd/kolam-api/internal/metrics"
	"github.com/ntentasd/kolam-api/pkg/types"
)

var ErrAlertNotFound = errors.New("alert not found")

// alertHistoryDays bounds how far back alert listings walk the day buckets.
const alertHistoryDays = 30

// InsertAlert stores a as an active alert and returns it with its id and
// creation time set.
func (db *DB) InsertAlert(ctx context.Context, a types.Alert) (types.Alert, error) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	id := gocql.TimeUUID()
	created := id.Time().UTC()

	err := db.sess.Query(`
INSERT INTO alerts (bucket_date, alert_id, pond_id, reading_id, parameter, measured, optimal_min, optimal_max, direction, waktu, resolved)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, false)
`,
		bucketDate(created), id, a.PondID, a.ReadingID, string(a.Parameter),
		a.Measured, a.OptimalMin, a.OptimalMax, string(a.Direction), a.Waktu,
	).WithContext(ctx).Exec()
	if err != nil {
		metrics.DbWriteErrorsTotal.WithLabelValues("alerts").Inc()
		return a, fmt.Errorf("insert alert for pond %s: %w", a.PondID, err)
	}

	a.ID = id.String()
	a.CreatedAt = created
	a.Resolved = false
	return a, nil
}

// ListAlerts returns stored alerts newest first, walking back at most
// alertHistoryDays day buckets.
func (db *DB) ListAlerts(ctx context.Context, f types.AlertFilter) ([]types.Alert, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DbReadLatencySeconds.WithLabelValues("alerts").Observe(time.Since(start).Seconds())
	}()

	results := make([]types.Alert, 0, f.Limit)
	bucket := bucketDate(time.Now().UTC())

	for range alertHistoryDays {
		iter := db.sess.Query(`
SELECT alert_id, pond_id, reading_id, parameter, measured, optimal_min, optimal_max, direction, waktu, resolved, resolved_at
FROM alerts
WHERE bucket_date = ?
`, bucket).WithContext(ctx).Iter()

		var (
			id                     gocql.UUID
			pondID, readingID, wkt string
			parameter, direction   string
			measured, lo, hi       float64
			resolved               bool
			resolvedAt             time.Time
		)
		for iter.Scan(&id, &pondID, &readingID, &parameter, &measured, &lo, &hi, &direction, &wkt, &resolved, &resolvedAt) {
			a := types.Alert{
				ID:         id.String(),
				PondID:     pondID,
				ReadingID:  readingID,
				Parameter:  types.Parameter(parameter),
				Measured:   measured,
				OptimalMin: lo,
				OptimalMax: hi,
				Direction:  types.Direction(direction),
				Waktu:      wkt,
				CreatedAt:  id.Time().UTC(),
				Resolved:   resolved,
			}
			if !resolvedAt.IsZero() {
				a.ResolvedAt = resolvedAt.UTC()
			}
			if matchesFilter(a, f) {
				results = append(results, a)
			}
			if f.Limit > 0 && len(results) >= f.Limit {
				break
			}
		}
		if err := iter.Close(); err != nil {
			return nil, fmt.Errorf("failed to query alerts of %s: %w", bucket.Format(time.DateOnly), err)
		}
		if f.Limit > 0 && len(results) >= f.Limit {
			break
		}

		bucket = bucket.Add(-24 * time.Hour)
	}

	return results, nil
}

// ResolveAlert marks an alert resolved and returns the resolution time.
func (db *DB) ResolveAlert(ctx context.Context, alertID string) (time.Time, error) {
	id, err := parseAlertID(alertID)
	if err != nil {
		return time.Time{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	now := time.Now().UTC()
	applied, err := db.sess.Query(`
UPDATE alerts
SET resolved = true, resolved_at = ?
WHERE bucket_date = ? AND alert_id = ?
IF EXISTS
`, now, bucketDate(id.Time().UTC()), id).WithContext(ctx).MapScanCAS(map[string]any{})
	if err != nil {
		metrics.DbWriteErrorsTotal.WithLabelValues("alerts").Inc()
		return time.Time{}, fmt.Errorf("resolve alert %s: %w", alertID, err)
	}
	if !applied {
		return time.Time{}, ErrAlertNotFound
	}
	return now, nil
}

// parseAlertID accepts only time-based uuids, since the day bucket is derived
// from the id.
func parseAlertID(s string) (gocql.UUID, error) {
	id, err := gocql.ParseUUID(s)
	if err != nil || id.Version() != 1 {
		return gocql.UUID{}, ErrAlertNotFound
	}
	return id, nil
}

func matchesFilter(a types.Alert, f types.AlertFilter) bool {
	if f.PondID != "" && a.PondID != f.PondID {
		return false
	}
	if f.Resolved != nil && a.Resolved != *f.Resolved {
		return false
	}
	return true
}
