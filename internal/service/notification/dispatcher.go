package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/flowsend/notify-service/internal/kafka/queue"
	"github.com/flowsend/notify-service/internal/model"
)

//go:generate mockgen -source=dispatcher.go -destination=../../mocks/service/notification/mock_dispatcher.go -package=mocks

// Dispatcher hands a freshly created notification to the delivery stage.
// The implementation is selected once at startup: asynchronous when the
// transport is configured, inline otherwise.
type Dispatcher interface {
	Dispatch(ctx context.Context, strategy retry.Strategy, n model.Notification) (model.Notification, error)
}

type intentPublisher interface {
	PublishDispatch(ctx context.Context, intent queue.DispatchIntent, strategy retry.Strategy) error
}

type processor interface {
	ProcessNotification(ctx context.Context, strategy retry.Strategy, id uuid.UUID) (model.Notification, error)
}

// AsyncDispatcher produces one initial dispatch intent to the transport and
// returns the record still pending; a delivery worker picks it up later.
type AsyncDispatcher struct {
	queue intentPublisher
}

func NewAsyncDispatcher(q intentPublisher) *AsyncDispatcher {
	return &AsyncDispatcher{queue: q}
}

func (d *AsyncDispatcher) Dispatch(ctx context.Context, strategy retry.Strategy, n model.Notification) (model.Notification, error) {
	intent := queue.NewDispatchIntent(n.ID)

	if err := d.queue.PublishDispatch(ctx, intent, strategy); err != nil {
		// The record is already durable at this point. The produce failure
		// must reach the caller instead of being swallowed, so the
		// notification is not silently stranded in pending.
		return model.Notification{}, fmt.Errorf("publish dispatch intent: %w", err)
	}

	zlog.Logger.Info().
		Str("id", n.ID.String()).
		Str("correlation_id", intent.CorrelationID).
		Msg("notification queued for async processing")

	return n, nil
}

// InlineDispatcher drives delivery synchronously within the creation call.
//
// It is the degraded mode used when no transport is configured: retries run
// immediately in-process without backoff, no intents are produced anywhere,
// and exhausting the retry budget simply leaves the record failed.
type InlineDispatcher struct {
	processor   processor
	maxAttempts int
}

func NewInlineDispatcher(p processor, maxAttempts int) *InlineDispatcher {
	return &InlineDispatcher{processor: p, maxAttempts: maxAttempts}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, strategy retry.Strategy, n model.Notification) (model.Notification, error) {
	for {
		updated, err := d.processor.ProcessNotification(ctx, strategy, n.ID)
		if err == nil {
			return updated, nil
		}

		if !errors.Is(err, ErrDeliveryFailed) {
			return model.Notification{}, fmt.Errorf("process notification inline: %w", err)
		}

		if updated.RetryCount >= d.maxAttempts {
			zlog.Logger.Warn().
				Str("id", n.ID.String()).
				Int("attempts", updated.RetryCount).
				Msg("notification failed all inline attempts")

			return updated, nil
		}
	}
}
