package kafka

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/ntentasd/kolam-api/internal/aggregate"
	"github.com/ntentasd/kolam-api/internal/metrics"
	"github.com/ntentasd/kolam-api/pkg/types"
	"github.com/rs/zerolog"
)

const retryBackoff = 5 * time.Second

var _ sarama.ConsumerGroupHandler = (*Ingestor)(nil)

func NewIngestor(brokers []string, topic, group string, sink ReadingSink, logger zerolog.Logger) *Ingestor {
	return &Ingestor{
		brokers: brokers,
		topic:   topic,
		group:   group,
		sink:    sink,
		ids:     aggregate.HashIDs{},
		logger:  logger.With().Str("component", "ingestor").Str("topic", topic).Logger(),
	}
}

// Run consumes until ctx is cancelled.
func (in *Ingestor) Run(ctx context.Context) error {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_8_0_0
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Return.Errors = true
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{
		sarama.NewBalanceStrategyRoundRobin(),
	}

	group, err := sarama.NewConsumerGroup(in.brokers, in.group, cfg)
	if err != nil {
		return fmt.Errorf("kafka consumer group: %w", err)
	}
	defer group.Close()

	go func() {
		for err := range group.Errors() {
			in.logger.Error().Err(err).Msg("consumer error")
		}
	}()

	in.logger.Info().Strs("brokers", in.brokers).Msg("consuming readings")

	for {
		if err := group.Consume(ctx, []string{in.topic}, in); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			in.logger.Error().Err(err).Msg("consume failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryBackoff):
			}
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (in *Ingestor) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (in *Ingestor) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (in *Ingestor) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			in.handle(sess.Context(), msg)
			sess.MarkMessage(msg, "")
		case <-sess.Context().Done():
			return nil
		}
	}
}

// handle processes one message and returns how many readings were stored.
// Bad messages are logged and skipped.
func (in *Ingestor) handle(ctx context.Context, msg *sarama.ConsumerMessage) int {
	raw, err := decodeMessage(msg.Value)
	if err != nil {
		metrics.ReadingsIngestedTotal.WithLabelValues("invalid").Inc()
		in.logger.Warn().Err(err).
			Int32("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("dropping undecodable message")
		return 0
	}

	stored := 0
	for i, rr := range raw {
		r := aggregate.NormalizeOne(rr, in.ids, i)

		found, err := in.sink.Ingest(ctx, r)
		if err != nil {
			metrics.ReadingsIngestedTotal.WithLabelValues("failed").Inc()
			in.logger.Error().Err(err).Str("pond_id", r.PondID).Str("reading_id", r.ID).Msg("failed to ingest reading")
			continue
		}
		metrics.ReadingsIngestedTotal.WithLabelValues("stored").Inc()
		stored++

		for _, a := range found {
			in.logger.Warn().
				Str("pond_id", a.PondID).
				Str("parameter", string(a.Parameter)).
				Float64("measured", a.Measured).
				Float64("optimal_min", a.OptimalMin).
				Float64("optimal_max", a.OptimalMax).
				Str("direction", string(a.Direction)).
				Msg("parameter out of optimal range")
		}
	}
	return stored
}

// decodeMessage accepts a single reading object or an array of readings.
func decodeMessage(b []byte) ([]types.RawReading, error) {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		return aggregate.DecodeReadings(b)
	}

	var r types.RawReading
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, &aggregate.InputError{Reason: err.Error()}
	}
	return []types.RawReading{r}, nil
}
