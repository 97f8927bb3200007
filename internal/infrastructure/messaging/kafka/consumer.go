package kafka

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"

	"github.com/segmentio/kafka-go"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/config"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/monitoring/logging"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/errors"
)

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EnvelopeHandler processes one decoded envelope.  A returned error keeps the
// message uncommitted so the group redelivers it.
type EnvelopeHandler func(ctx context.Context, env EventEnvelope) error

// Consumer reads process-request envelopes from the request topic and feeds
// them to a handler with at-least-once delivery: messages are committed only
// after the handler returns nil.
type Consumer struct {
	reader ReaderInterface
	logger logging.Logger
}

// NewConsumer builds a group consumer on the request topic.
func NewConsumer(cfg config.KafkaConfig, log logging.Logger) *Consumer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	startOffset := kafka.LastOffset
	if cfg.AutoOffsetReset == "earliest" {
		startOffset = kafka.FirstOffset
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.RequestTopic,
		StartOffset: startOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	return &Consumer{reader: r, logger: log.Named("kafka_consumer")}
}

// NewConsumerWithReader injects a reader, for tests.
func NewConsumerWithReader(r ReaderInterface, log logging.Logger) *Consumer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Consumer{reader: r, logger: log}
}

// Run consumes until ctx is canceled.  Malformed envelopes are logged and
// committed so they do not wedge the partition; handler failures leave the
// offset alone for redelivery.
func (c *Consumer) Run(ctx context.Context, handler EnvelopeHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, io.EOF) {
				return nil
			}
			return errors.Wrap(err, errors.CodeQueueError, "fetching message")
		}

		var env EventEnvelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			c.logger.Warn("skipping malformed envelope",
				logging.String("topic", msg.Topic),
				logging.Int64("offset", msg.Offset),
				logging.Err(err))
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				return errors.Wrap(err, errors.CodeQueueError, "committing malformed message")
			}
			continue
		}

		if err := handler(ctx, env); err != nil {
			c.logger.Error("envelope handler failed, message left uncommitted",
				logging.String("event_id", env.EventID),
				logging.String("event_type", env.EventType),
				logging.Int64("offset", msg.Offset),
				logging.Err(err))
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return errors.Wrap(err, errors.CodeQueueError, "committing message")
		}
		c.logger.Debug("envelope handled",
			logging.String("event_id", env.EventID),
			logging.String("event_type", env.EventType),
			logging.Int64("offset", msg.Offset))
	}
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return errors.Wrap(err, errors.CodeQueueError, "closing consumer")
	}
	return nil
}
