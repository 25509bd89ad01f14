package kafka

import (
	"context"

	"github.com/ntentasd/kolam-api/internal/aggregate"
	"github.com/ntentasd/kolam-api/pkg/types"
	"github.com/rs/zerolog"
)

// ReadingSink receives every decoded reading.
type ReadingSink interface {
	Ingest(ctx context.Context, r types.SensorReading) ([]types.Alert, error)
}

// Ingestor consumes raw sensor readings from a Kafka topic.
type Ingestor struct {
	brokers []string
	topic   string
	group   string
	sink    ReadingSink
	ids     aggregate.IDSource
	logger  zerolog.Logger
}
