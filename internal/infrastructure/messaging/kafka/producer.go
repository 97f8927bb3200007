package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/config"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/monitoring/logging"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/errors"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/types/lot"
)

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes envelopes to the processing topics.
type Producer struct {
	writer      WriterInterface
	logger      logging.Logger
	source      string
	resultTopic string
	closed      atomic.Bool
}

// NewProducer builds a producer over the configured brokers.  Messages are
// keyed by lot id so results for the same lot stay ordered within a
// partition.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) *Producer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  max(cfg.ProducerRetries, 1),
		BatchSize:    max(cfg.BatchSize, 1),
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}
	return &Producer{
		writer:      w,
		logger:      log.Named("kafka_producer"),
		source:      "lotproc",
		resultTopic: cfg.ResultTopic,
	}
}

// NewProducerWithWriter injects a writer, for tests.
func NewProducerWithWriter(w WriterInterface, resultTopic string, log logging.Logger) *Producer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Producer{writer: w, logger: log, source: "lotproc", resultTopic: resultTopic}
}

// PublishResult publishes a completed result to the result topic.
func (p *Producer) PublishResult(ctx context.Context, res lot.LotResult) error {
	env, err := NewEnvelope(EventTypeProcessResult, p.source, ProcessResultPayload{Result: res})
	if err != nil {
		return err
	}
	return p.publish(ctx, p.resultTopic, res.Lot.LotID, env)
}

// PublishFailure publishes a processing failure to the result topic so
// downstream consumers see every requested lot exactly once.
func (p *Producer) PublishFailure(ctx context.Context, lotID string, procErr error) error {
	env, err := NewEnvelope(EventTypeProcessFailed, p.source, ProcessFailedPayload{
		LotID:  lotID,
		Reason: procErr.Error(),
		Code:   string(errors.GetCode(procErr)),
	})
	if err != nil {
		return err
	}
	return p.publish(ctx, p.resultTopic, lotID, env)
}

// PublishRequest enqueues a lot description on the request topic.
func (p *Producer) PublishRequest(ctx context.Context, topic string, desc lot.LotDescription) error {
	env, err := NewEnvelope(EventTypeProcessRequest, p.source, ProcessRequestPayload{
		LotID: desc.LotID,
		Text:  desc.Text,
	})
	if err != nil {
		return err
	}
	return p.publish(ctx, topic, desc.LotID, env)
}

func (p *Producer) publish(ctx context.Context, topic, key string, env EventEnvelope) error {
	if p.closed.Load() {
		return errors.New(errors.CodeQueueError, "producer is closed")
	}
	value, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "encoding event envelope")
	}
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, errors.CodeQueueError, "publishing event").
			WithDetail("topic: " + topic)
	}
	p.logger.Debug("event published",
		logging.String("topic", topic),
		logging.String("event_type", env.EventType),
		logging.String("key", key))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return errors.Wrap(err, errors.CodeQueueError, "closing producer")
	}
	return nil
}
