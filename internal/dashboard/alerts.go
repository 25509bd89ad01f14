package dashboard

import (
	"context"
	"time"

	"github.com/ntentasd/kolam-api/pkg/types"
)

const (
	DefaultAlertLimit = 100
	MaxAlertLimit     = 500
)

// StoredAlerts lists persisted alerts, newest first.
func (s *Service) StoredAlerts(ctx context.Context, f types.AlertFilter) ([]types.Alert, error) {
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultAlertLimit
	case f.Limit > MaxAlertLimit:
		f.Limit = MaxAlertLimit
	}

	out, err := s.store.ListAlerts(ctx, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []types.Alert{}
	}
	return out, nil
}

// ResolveAlert marks a stored alert resolved.
func (s *Service) ResolveAlert(ctx context.Context, alertID string) (time.Time, error) {
	resolvedAt, err := s.store.ResolveAlert(ctx, alertID)
	if err != nil {
		return time.Time{}, err
	}
	s.logger.Info().Str("alert_id", alertID).Msg("alert resolved")
	return resolvedAt, nil
}
