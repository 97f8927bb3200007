package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	segkafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/errors"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/types/lot"
)

type mockWriter struct {
	mu       sync.Mutex
	messages []segkafka.Message
	writeErr error
	closed   bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...segkafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

type mockReader struct {
	mu        sync.Mutex
	queue     []segkafka.Message
	committed []segkafka.Message
	closed    bool
}

func (m *mockReader) FetchMessage(ctx context.Context) (segkafka.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return segkafka.Message{}, context.Canceled
	}
	msg := m.queue[0]
	m.queue = m.queue[1:]
	if err := ctx.Err(); err != nil {
		return segkafka.Message{}, err
	}
	return msg, nil
}

func (m *mockReader) CommitMessages(_ context.Context, msgs ...segkafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = append(m.committed, msgs...)
	return nil
}

func (m *mockReader) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func envelopeMessage(t *testing.T, eventType string, payload interface{}) segkafka.Message {
	t.Helper()
	env, err := NewEnvelope(eventType, "test", payload)
	require.NoError(t, err)
	value, err := json.Marshal(env)
	require.NoError(t, err)
	return segkafka.Message{Topic: TopicProcessRequest, Value: value}
}

func TestNewEnvelopeFields(t *testing.T) {
	before := time.Now().UTC()
	env, err := NewEnvelope(EventTypeProcessRequest, "importer", ProcessRequestPayload{LotID: "L-1", Text: "Huile sur toile"})
	require.NoError(t, err)

	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, EventTypeProcessRequest, env.EventType)
	assert.Equal(t, "importer", env.Source)
	assert.Equal(t, "1.0", env.SchemaVersion)
	assert.False(t, env.Timestamp.Before(before))

	var payload ProcessRequestPayload
	require.NoError(t, env.DecodePayload(&payload))
	assert.Equal(t, "L-1", payload.LotID)
	assert.Equal(t, "Huile sur toile", payload.Text)
}

func TestDecodePayloadRejectsMalformed(t *testing.T) {
	env := EventEnvelope{EventType: EventTypeProcessResult, Payload: json.RawMessage(`{"result":`)}
	var payload ProcessResultPayload
	err := env.DecodePayload(&payload)
	require.Error(t, err)
	assert.Equal(t, errors.CodeQueueError, errors.GetCode(err))
}

func TestPublishResultKeysByLotID(t *testing.T) {
	w := &mockWriter{}
	p := NewProducerWithWriter(w, TopicProcessResult, nil)

	res := lot.LotResult{Lot: lot.LotDescription{LotID: "L-42", Text: "Bronze H 50 cm"}}
	require.NoError(t, p.PublishResult(context.Background(), res))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, TopicProcessResult, msg.Topic)
	assert.Equal(t, "L-42", string(msg.Key))

	var env EventEnvelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, EventTypeProcessResult, env.EventType)

	var payload ProcessResultPayload
	require.NoError(t, env.DecodePayload(&payload))
	assert.Equal(t, "L-42", payload.Result.Lot.LotID)
}

func TestPublishFailureCarriesErrorCode(t *testing.T) {
	w := &mockWriter{}
	p := NewProducerWithWriter(w, TopicProcessResult, nil)

	procErr := errors.New(errors.CodeEmptyDescription, "description text is empty")
	require.NoError(t, p.PublishFailure(context.Background(), "L-7", procErr))

	require.Len(t, w.messages, 1)
	var env EventEnvelope
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &env))
	assert.Equal(t, EventTypeProcessFailed, env.EventType)

	var payload ProcessFailedPayload
	require.NoError(t, env.DecodePayload(&payload))
	assert.Equal(t, "L-7", payload.LotID)
	assert.Equal(t, string(errors.CodeEmptyDescription), payload.Code)
	assert.Contains(t, payload.Reason, "description text is empty")
}

func TestPublishRequestTargetsRequestTopic(t *testing.T) {
	w := &mockWriter{}
	p := NewProducerWithWriter(w, TopicProcessResult, nil)

	desc := lot.LotDescription{LotID: "L-9", Text: "Paire de vases, chaque 30cm"}
	require.NoError(t, p.PublishRequest(context.Background(), TopicProcessRequest, desc))

	require.Len(t, w.messages, 1)
	assert.Equal(t, TopicProcessRequest, w.messages[0].Topic)
	assert.Equal(t, "L-9", string(w.messages[0].Key))
}

func TestPublishWrapsWriterErrors(t *testing.T) {
	w := &mockWriter{writeErr: context.DeadlineExceeded}
	p := NewProducerWithWriter(w, TopicProcessResult, nil)

	err := p.PublishResult(context.Background(), lot.LotResult{Lot: lot.LotDescription{LotID: "L-1"}})
	require.Error(t, err)
	assert.Equal(t, errors.CodeQueueError, errors.GetCode(err))
}

func TestProducerRejectsPublishAfterClose(t *testing.T) {
	w := &mockWriter{}
	p := NewProducerWithWriter(w, TopicProcessResult, nil)
	require.NoError(t, p.Close())
	assert.True(t, w.closed)

	err := p.PublishResult(context.Background(), lot.LotResult{})
	require.Error(t, err)
	assert.Equal(t, errors.CodeQueueError, errors.GetCode(err))

	// Second close is a no-op.
	require.NoError(t, p.Close())
}

func TestConsumerHandlesAndCommitsInOrder(t *testing.T) {
	r := &mockReader{queue: []segkafka.Message{
		envelopeMessage(t, EventTypeProcessRequest, ProcessRequestPayload{LotID: "L-1", Text: "Huile sur toile 162 x 130 cm"}),
		envelopeMessage(t, EventTypeProcessRequest, ProcessRequestPayload{LotID: "L-2", Text: "Bronze H 50 cm"}),
	}}
	c := NewConsumerWithReader(r, nil)

	var handled []string
	err := c.Run(context.Background(), func(_ context.Context, env EventEnvelope) error {
		var payload ProcessRequestPayload
		if err := env.DecodePayload(&payload); err != nil {
			return err
		}
		handled = append(handled, payload.LotID)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"L-1", "L-2"}, handled)
	assert.Len(t, r.committed, 2)
}

func TestConsumerSkipsAndCommitsMalformedMessages(t *testing.T) {
	r := &mockReader{queue: []segkafka.Message{
		{Topic: TopicProcessRequest, Value: []byte("not json")},
		envelopeMessage(t, EventTypeProcessRequest, ProcessRequestPayload{LotID: "L-3", Text: "Canne, H 97 cm"}),
	}}
	c := NewConsumerWithReader(r, nil)

	var handled int
	err := c.Run(context.Background(), func(context.Context, EventEnvelope) error {
		handled++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, handled)
	// Malformed message committed too, so the partition never wedges.
	assert.Len(t, r.committed, 2)
}

func TestConsumerLeavesFailedHandlerUncommitted(t *testing.T) {
	r := &mockReader{queue: []segkafka.Message{
		envelopeMessage(t, EventTypeProcessRequest, ProcessRequestPayload{LotID: "L-4", Text: "45×34cm"}),
	}}
	c := NewConsumerWithReader(r, nil)

	err := c.Run(context.Background(), func(context.Context, EventEnvelope) error {
		return errors.New(errors.CodeInternal, "boom")
	})

	require.NoError(t, err)
	assert.Empty(t, r.committed)
}

func TestConsumerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &mockReader{}
	c := NewConsumerWithReader(r, nil)

	err := c.Run(ctx, func(context.Context, EventEnvelope) error { return nil })
	require.NoError(t, err)

	require.NoError(t, c.Close())
	assert.True(t, r.closed)
}
