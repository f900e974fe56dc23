package ticklog

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	tickv1 "github.com/muhammadchandra19/tickstream/internal/domain/tick/v1"
	"github.com/muhammadchandra19/tickstream/pkg/errors"
	"github.com/muhammadchandra19/tickstream/pkg/logger"
)

// Config holds the Kafka connection settings for the tick log.
type Config struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

// Publisher appends tick envelopes to the Kafka tick log. Messages are
// keyed by symbol so one symbol always lands on one partition, which
// preserves per-symbol ordering downstream.
type Publisher struct {
	writer *kafka.Writer
	logger logger.Interface
}

// NewPublisher creates a Kafka tick log publisher. Writes require acks
// from all in-sync replicas before they count as published. Batching is
// effectively disabled: every publish is a single synchronous message,
// so the writer flushes immediately instead of waiting out the library's
// one-second default batch timeout.
func NewPublisher(config Config, log logger.Interface) *Publisher {
	batchTimeout := config.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchSize:    1,
		BatchTimeout: batchTimeout,
	}

	return &Publisher{
		writer: writer,
		logger: log,
	}
}

// Publish appends one tick to the log.
func (p *Publisher) Publish(ctx context.Context, tick tickv1.Tick) error {
	value, err := tickv1.NewEnvelope(tick).Bytes()
	if err != nil {
		return errors.NewErrorDetails(err.Error(), string(errors.PublishError), tick.Symbol)
	}

	msg := kafka.Message{
		Key:   []byte(tick.Symbol),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error(err,
			logger.Field{Key: "symbol", Value: tick.Symbol},
			logger.Field{Key: "sequence", Value: tick.Sequence},
		)
		return errors.NewErrorDetails(err.Error(), string(errors.PublishError), tick.Symbol)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
