// Package kafka carries the asynchronous processing topics: catalog importers
// publish lot descriptions to the request topic, the queue worker processes
// them and publishes structured results to the result topic.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/errors"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/types/lot"
)

// Topic constants.  Deployments can override them via the kafka config
// section; these are the defaults shared with config.defaults.
const (
	TopicProcessRequest = "lots.process.request"
	TopicProcessResult  = "lots.process.result"
	TopicDeadLetter     = "lots.dead_letter"
)

// EventEnvelope standardizes messages on every topic.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	SchemaVersion string          `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// Event types.
const (
	EventTypeProcessRequest = "lot.process.requested"
	EventTypeProcessResult  = "lot.process.completed"
	EventTypeProcessFailed  = "lot.process.failed"
)

const schemaVersion = "1.0"

// ProcessRequestPayload asks the worker to process one lot description.
type ProcessRequestPayload struct {
	LotID string `json:"lot_id"`
	Text  string `json:"text"`
}

// ProcessResultPayload carries the full structured result.
type ProcessResultPayload struct {
	Result lot.LotResult `json:"result"`
}

// ProcessFailedPayload reports a lot the worker could not process.
type ProcessFailedPayload struct {
	LotID  string `json:"lot_id"`
	Reason string `json:"reason"`
	Code   string `json:"code"`
}

// NewEnvelope wraps payload in a versioned envelope with a fresh event id.
func NewEnvelope(eventType, source string, payload interface{}) (EventEnvelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return EventEnvelope{}, errors.Wrap(err, errors.CodeInternal, "encoding event payload")
	}
	return EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: schemaVersion,
		Payload:       raw,
	}, nil
}

// DecodePayload unmarshals the envelope payload into dest.
func (e EventEnvelope) DecodePayload(dest interface{}) error {
	if err := json.Unmarshal(e.Payload, dest); err != nil {
		return errors.Wrap(err, errors.CodeQueueError, "decoding event payload").
			WithDetail("event_type: " + e.EventType)
	}
	return nil
}
