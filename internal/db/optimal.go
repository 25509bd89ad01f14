package db

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/ntentasd/kolam-api/internal/metrics"
	"github.com/ntentasd/kolam-api/pkg/types"
	"gopkg.in/inf.v0"
)

// GetOptimalParameters returns the configured ranges of a pond in the same
// shape the optimal-parameter endpoint served them.
func (db *DB) GetOptimalParameters(ctx context.Context, pondID string) ([]types.OptimalParameter, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Millisecond*500)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DbReadLatencySeconds.WithLabelValues("optimal_parameters").Observe(time.Since(start).Seconds())
	}()

	iter := db.sess.Query(`
SELECT parameter, min_value, max_value
FROM optimal_parameters
WHERE pond_id = ?
`, pondID).WithContext(ctx).Iter()

	var results []types.OptimalParameter

	var parameter string
	var lo, hi *inf.Dec

	for iter.Scan(&parameter, &lo, &hi) {
		results = append(results, types.OptimalParameter{
			PondID:    types.RawString(pondID),
			Parameter: parameter,
			MinValue:  decimalNumber(lo),
			MaxValue:  decimalNumber(hi),
		})
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}

	return results, nil
}

// SetOptimalParameter upserts the range of one parameter. reason is kept with
// the row and may be empty.
func (db *DB) SetOptimalParameter(ctx context.Context, pondID string, p types.Parameter, lo, hi float64, reason string) error {
	minDec, err := toDecimal(lo)
	if err != nil {
		return err
	}
	maxDec, err := toDecimal(hi)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	err = db.sess.Query(`
INSERT INTO optimal_parameters (pond_id, parameter, min_value, max_value, reason, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
`, pondID, string(p), minDec, maxDec, reason, time.Now().UTC()).WithContext(ctx).Exec()
	if err != nil {
		metrics.DbWriteErrorsTotal.WithLabelValues("optimal_parameters").Inc()
		return fmt.Errorf("set optimal %s for pond %s: %w", p, pondID, err)
	}
	return nil
}

func decimalNumber(d *inf.Dec) types.RawNumber {
	if d == nil {
		return types.RawNumber{}
	}
	return types.NumberFromString(d.String())
}

// toDecimal converts v through its shortest exact decimal form, so any
// finite float64 keeps its value.
func toDecimal(v float64) (*inf.Dec, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("bound %v is not finite", v)
	}
	d, ok := new(inf.Dec).SetString(strconv.FormatFloat(v, 'f', -1, 64))
	if !ok {
		return nil, fmt.Errorf("bound %v is not representable as decimal", v)
	}
	return d, nil
}
