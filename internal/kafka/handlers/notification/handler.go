package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/flowsend/notify-service/internal/kafka/queue"
	"github.com/flowsend/notify-service/internal/model"
	"github.com/flowsend/notify-service/internal/repository/notification"
	notifsvc "github.com/flowsend/notify-service/internal/service/notification"
)

//go:generate mockgen -source=handler.go -destination=../../../mocks/kafka/handlers/notification/mock.go -package=mocks

type notificationService interface {
	ProcessNotification(ctx context.Context, strategy retry.Strategy, id uuid.UUID) (model.Notification, error)
	SetStatus(ctx context.Context, strategy retry.Strategy, id uuid.UUID, status model.Status) error
}

type intentPublisher interface {
	PublishRetry(ctx context.Context, intent queue.DispatchIntent, strategy retry.Strategy) error
	PublishDeadLetter(ctx context.Context, intent queue.DispatchIntent, strategy retry.Strategy) error
}

// Handler drives one delivery attempt per fetched intent and applies the
// retry/dead-letter policy to the outcome.
type Handler struct {
	service     notificationService
	queue       intentPublisher
	maxAttempts int
	baseDelay   time.Duration
}

func NewHandler(svc notificationService, q intentPublisher, maxAttempts int, baseDelay time.Duration) *Handler {
	return &Handler{
		service:     svc,
		queue:       q,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}
}

// HandleMessage processes one raw intent from the transport.
//
// A nil return means the intent is done and may be committed. A non-nil
// return means the intent must stay uncommitted so the transport
// redelivers it.
func (h *Handler) HandleMessage(ctx context.Context, data []byte, strategy retry.Strategy) error {
	var intent queue.DispatchIntent
	if err := json.Unmarshal(data, &intent); err != nil {
		// A malformed intent cannot be reconstructed, drop it.
		zlog.Logger.Error().Err(err).Msg("failed to unmarshal dispatch intent, dropping")
		return nil
	}

	zlog.Logger.Info().
		Str("id", intent.NotificationID.String()).
		Int("attempt", intent.AttemptNumber).
		Str("correlation_id", intent.CorrelationID).
		Msg("processing dispatch intent")

	updated, err := h.service.ProcessNotification(ctx, strategy, intent.NotificationID)
	if err == nil {
		zlog.Logger.Info().Str("id", intent.NotificationID.String()).Msg("notification sent successfully")
		return nil
	}

	if errors.Is(err, notification.ErrNotificationNotFound) {
		// Deleted out-of-band, nothing left to deliver.
		zlog.Logger.Warn().Str("id", intent.NotificationID.String()).Msg("notification not found, dropping intent")
		return nil
	}

	if !errors.Is(err, notifsvc.ErrDeliveryFailed) {
		// Store failure: the attempt may not have been recorded, leave the
		// intent uncommitted so it is delivered again.
		zlog.Logger.Error().Err(err).Str("id", intent.NotificationID.String()).Msg("failed to process dispatch intent")
		return err
	}

	if updated.RetryCount >= h.maxAttempts {
		return h.deadLetter(ctx, intent, strategy)
	}

	return h.requeue(ctx, intent, updated.RetryCount+1, strategy)
}

// requeue schedules the next attempt: the record is marked retrying, the
// linear backoff for the attempt is waited out, and a fresh intent is
// produced to the retry destination.
func (h *Handler) requeue(ctx context.Context, intent queue.DispatchIntent, attempt int, strategy retry.Strategy) error {
	if err := h.service.SetStatus(ctx, strategy, intent.NotificationID, model.StatusRetrying); err != nil {
		zlog.Logger.Error().Err(err).Str("id", intent.NotificationID.String()).Msg("failed to set status=retrying")
	}

	select {
	case <-ctx.Done():
		// Shutting down mid-backoff: leave the intent uncommitted so the
		// attempt is redelivered after restart.
		return ctx.Err()
	case <-time.After(h.baseDelay * time.Duration(attempt)):
	}

	next := queue.DispatchIntent{
		NotificationID: intent.NotificationID,
		EventType:      queue.EventNotificationRetry,
		Timestamp:      time.Now().UTC(),
		AttemptNumber:  attempt,
		CorrelationID:  intent.CorrelationID,
	}

	if err := h.queue.PublishRetry(ctx, next, strategy); err != nil {
		zlog.Logger.Error().Err(err).Str("id", intent.NotificationID.String()).Msg("failed to publish retry intent")
		return err
	}

	zlog.Logger.Info().
		Str("id", intent.NotificationID.String()).
		Int("attempt", attempt).
		Msg("notification queued for retry")

	return nil
}

func (h *Handler) deadLetter(ctx context.Context, intent queue.DispatchIntent, strategy retry.Strategy) error {
	dead := intent
	dead.Timestamp = time.Now().UTC()

	if err := h.queue.PublishDeadLetter(ctx, dead, strategy); err != nil {
		zlog.Logger.Error().Err(err).Str("id", intent.NotificationID.String()).Msg("failed to publish dead-letter intent")
		return err
	}

	zlog.Logger.Error().
		Str("id", intent.NotificationID.String()).
		Int("attempts", h.maxAttempts).
		Msg("notification failed all retry attempts, sent to dead-letter")

	return nil
}
