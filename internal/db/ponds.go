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

var ErrPondNotFound = errors.New("pond not found")

// PondAlreadyExistsError is returned when registering a pond id twice.
type PondAlreadyExistsError struct {
	PondID string
}

func (e *PondAlreadyExistsError) Error() string {
	return fmt.Sprintf("pond '%s' already exists", e.PondID)
}

func (e *PondAlreadyExistsError) Is(target error) bool {
	_, ok := target.(*PondAlreadyExistsError)
	return ok
}

func (db *DB) ListPonds(ctx context.Context) ([]types.Pond, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Millisecond*500)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.DbReadLatencySeconds.WithLabelValues("list_ponds").Observe(time.Since(start).Seconds())
	}()

	iter := db.sess.Query(`
SELECT pond_id, pond_name
FROM ponds
`).WithContext(ctx).Iter()

	var results []types.Pond
	var pondID, pondName string

	for iter.Scan(&pondID, &pondName) {
		results = append(results, types.Pond{
			PondID:   pondID,
			PondName: pondName,
		})
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}

	return results, nil
}

func (db *DB) GetPond(ctx context.Context, pondID string) (*types.Pond, error) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	var pondName string
	err := db.sess.Query(`
SELECT pond_name
FROM ponds
WHERE pond_id = ?
`, pondID).WithContext(ctx).Scan(&pondName)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrPondNotFound
		}
		return nil, err
	}

	return &types.Pond{
		PondID:   pondID,
		PondName: pondName,
	}, nil
}

// RegisterPond inserts a pond unless the id is taken.
func (db *DB) RegisterPond(ctx context.Context, pondID, pondName string) (*types.Pond, error) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	applied, err := db.sess.Query(`
INSERT INTO ponds (pond_id, pond_name)
VALUES (?, ?)
IF NOT EXISTS
`, pondID, pondName).WithContext(ctx).MapScanCAS(map[string]any{})
	if err != nil {
		metrics.DbWriteErrorsTotal.WithLabelValues("register_pond").Inc()
		return nil, err
	}
	if !applied {
		return nil, &PondAlreadyExistsError{PondID: pondID}
	}

	return &types.Pond{
		PondID:   pondID,
		PondName: pondName,
	}, nil
}
