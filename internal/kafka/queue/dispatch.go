// Package queue wires the dispatch transport: three Kafka topics carrying
// dispatch intents between the acceptance path and the delivery workers.
//
// Intents are keyed by notification ID, so attempts for the same
// notification are ordered while different notifications may interleave.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
)

// Event types carried by dispatch intents. Consumers key their behavior off
// the destination topic; the event type is kept for tracing.
const (
	EventNotificationCreated = "NotificationCreated"
	EventNotificationRetry   = "NotificationRetry"
)

// DispatchIntent is a transient message instructing the delivery stage to
// attempt sending one notification. It is never persisted on its own.
type DispatchIntent struct {
	NotificationID uuid.UUID `json:"notification_id"`
	EventType      string    `json:"event_type"`
	Timestamp      time.Time `json:"timestamp"`
	AttemptNumber  int       `json:"attempt_number"` // 1 for the initial dispatch
	CorrelationID  string    `json:"correlation_id"`
}

// NewDispatchIntent builds the initial intent for a freshly created notification.
func NewDispatchIntent(notificationID uuid.UUID) DispatchIntent {
	return DispatchIntent{
		NotificationID: notificationID,
		EventType:      EventNotificationCreated,
		Timestamp:      time.Now().UTC(),
		AttemptNumber:  1,
		CorrelationID:  uuid.NewString(),
	}
}

// DispatchQueue bundles the producers for the dispatch, retry and
// dead-letter destinations together with the consumers the delivery
// workers read from.
type DispatchQueue struct {
	dispatchProducer   *kafka.Producer
	retryProducer      *kafka.Producer
	deadLetterProducer *kafka.Producer

	DispatchConsumer *kafka.Consumer
	RetryConsumer    *kafka.Consumer
}

// NewDispatchQueue creates producers for all three destinations and
// consumers for the dispatch and retry topics within the given group.
// The dead-letter topic is write-only from this service.
func NewDispatchQueue(brokers []string, groupID string, dispatchTopic, retryTopic, deadLetterTopic string) *DispatchQueue {
	return &DispatchQueue{
		dispatchProducer:   kafka.NewProducer(brokers, dispatchTopic),
		retryProducer:      kafka.NewProducer(brokers, retryTopic),
		deadLetterProducer: kafka.NewProducer(brokers, deadLetterTopic),
		DispatchConsumer:   kafka.NewConsumer(brokers, dispatchTopic, groupID),
		RetryConsumer:      kafka.NewConsumer(brokers, retryTopic, groupID),
	}
}

// PublishDispatch enqueues an initial dispatch intent.
func (q *DispatchQueue) PublishDispatch(ctx context.Context, intent DispatchIntent, strategy retry.Strategy) error {
	return q.publish(ctx, q.dispatchProducer, intent, strategy)
}

// PublishRetry enqueues an intent for a retried attempt.
func (q *DispatchQueue) PublishRetry(ctx context.Context, intent DispatchIntent, strategy retry.Strategy) error {
	return q.publish(ctx, q.retryProducer, intent, strategy)
}

// PublishDeadLetter enqueues a terminal intent for operator inspection.
func (q *DispatchQueue) PublishDeadLetter(ctx context.Context, intent DispatchIntent, strategy retry.Strategy) error {
	return q.publish(ctx, q.deadLetterProducer, intent, strategy)
}

func (q *DispatchQueue) publish(ctx context.Context, p *kafka.Producer, intent DispatchIntent, strategy retry.Strategy) error {
	body, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to marshal intent: %w", err)
	}

	// Keying by notification ID keeps attempts for one notification ordered.
	key := []byte(intent.NotificationID.String())

	if err := p.SendWithRetry(ctx, strategy, key, body); err != nil {
		return fmt.Errorf("failed to produce intent: %w", err)
	}

	return nil
}

// Close closes all producers and consumers.
func (q *DispatchQueue) Close() error {
	var firstErr error
	closers := []interface{ Close() error }{
		q.dispatchProducer, q.retryProducer, q.deadLetterProducer,
		q.DispatchConsumer, q.RetryConsumer,
	}

	for _, c := range closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
