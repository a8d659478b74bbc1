package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/flowsend/notify-service/internal/model"
	"github.com/flowsend/notify-service/internal/repository/notification"
)

// ErrDeliveryFailed marks errors caused by the channel send itself, as
// opposed to store or transport failures. Callers use it to decide whether
// the retry/dead-letter policy applies.
var ErrDeliveryFailed = errors.New("delivery failed")

//go:generate mockgen -source=service.go -destination=../../mocks/service/notification/mock.go -package=mocks

type notificationRepository interface {
	CreateNotification(context.Context, model.Notification) (model.Notification, error)
	GetNotificationByID(context.Context, uuid.UUID) (model.Notification, error)
	GetNotificationByIdempotencyKey(context.Context, string) (model.Notification, error)
	UpdateNotification(context.Context, model.Notification) error
	GetUserNotifications(context.Context, string) ([]model.Notification, error)
}

// Notifier performs the channel-specific send of one notification.
type Notifier interface {
	Send(to, template, payload string) error
}

type cache interface {
	SetWithRetry(ctx context.Context, strategy retry.Strategy, key string, value interface{}) error
	GetWithRetry(ctx context.Context, strategy retry.Strategy, key string) (string, error)
}

type Service struct {
	repo       notificationRepository
	notifiers  map[model.Channel]Notifier
	cache      cache
	dispatcher Dispatcher
}

func NewService(
	repo notificationRepository,
	notifiers map[model.Channel]Notifier,
	cache cache,
) *Service {
	return &Service{repo: repo, notifiers: notifiers, cache: cache}
}

// SetDispatcher selects the dispatch mode. Called once during startup,
// after the dispatcher has been constructed.
func (s *Service) SetDispatcher(d Dispatcher) {
	s.dispatcher = d
}

// CreateNotification persists a new notification and hands it to the
// configured dispatcher.
//
// When an idempotency key is supplied, at most one notification is ever
// committed with that key: the record that already carries the key is
// returned unchanged and nothing is dispatched for it. A concurrent
// creator that loses the insert race recovers by re-reading the winner.
func (s *Service) CreateNotification(ctx context.Context, strategy retry.Strategy, n model.Notification) (model.Notification, error) {
	if n.IdempotencyKey != nil {
		existing, err := s.repo.GetNotificationByIdempotencyKey(ctx, *n.IdempotencyKey)
		if err == nil {
			zlog.Logger.Info().Str("key", *n.IdempotencyKey).Msg("returning existing notification for idempotency key")
			return existing, nil
		}
		if !errors.Is(err, notification.ErrNotificationNotFound) {
			return model.Notification{}, fmt.Errorf("lookup by idempotency key: %w", err)
		}
	}

	n.Status = model.StatusPending

	created, err := s.repo.CreateNotification(ctx, n)
	if err != nil {
		if errors.Is(err, notification.ErrIdempotencyKeyConflict) && n.IdempotencyKey != nil {
			zlog.Logger.Info().Str("key", *n.IdempotencyKey).Msg("idempotency key collision, fetching existing notification")

			existing, readErr := s.repo.GetNotificationByIdempotencyKey(ctx, *n.IdempotencyKey)
			if readErr != nil {
				// The winner's record should exist; if it does not, the
				// original conflict is the caller's problem.
				return model.Notification{}, fmt.Errorf("create notification: %w", err)
			}

			return existing, nil
		}

		return model.Notification{}, fmt.Errorf("create notification: %w", err)
	}

	s.cacheNotification(ctx, strategy, created)

	return s.dispatcher.Dispatch(ctx, strategy, created)
}

// GetNotification retrieves a notification by ID, preferring the cache.
func (s *Service) GetNotification(ctx context.Context, strategy retry.Strategy, id uuid.UUID) (model.Notification, error) {
	raw, err := s.cache.GetWithRetry(ctx, strategy, id.String())
	if err != nil && !errors.Is(err, redis.Nil) {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to get notification from cache")
	}

	if err == nil {
		var n model.Notification
		if unmarshalErr := json.Unmarshal([]byte(raw), &n); unmarshalErr == nil {
			return n, nil
		}
		zlog.Logger.Warn().Str("id", id.String()).Msg("malformed cached notification, falling back to store")
	}

	n, err := s.repo.GetNotificationByID(ctx, id)
	if err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			return model.Notification{}, err
		}

		return model.Notification{}, fmt.Errorf("get notification: %w", err)
	}

	s.cacheNotification(ctx, strategy, n)

	return n, nil
}

// GetUserNotifications retrieves all notifications for a user, newest first.
func (s *Service) GetUserNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	notifications, err := s.repo.GetUserNotifications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user notifications: %w", err)
	}

	return notifications, nil
}

// ProcessNotification performs one delivery attempt for the given
// notification and persists the outcome.
//
// On success the record moves to "sent" with SentAt set. On a send failure
// the record moves to "failed" with the error message recorded and the
// retry count incremented, and the returned error wraps ErrDeliveryFailed
// so the caller can apply the retry policy. A missing record yields
// ErrNotificationNotFound and no state change.
func (s *Service) ProcessNotification(ctx context.Context, strategy retry.Strategy, id uuid.UUID) (model.Notification, error) {
	n, err := s.repo.GetNotificationByID(ctx, id)
	if err != nil {
		return model.Notification{}, err
	}

	sendErr := s.send(n)

	if sendErr != nil {
		msg := sendErr.Error()
		n.Status = model.StatusFailed
		n.ErrorMessage = &msg
		n.RetryCount++
	} else {
		now := time.Now().UTC()
		n.Status = model.StatusSent
		n.SentAt = &now
	}

	if err := s.repo.UpdateNotification(ctx, n); err != nil {
		return n, fmt.Errorf("update notification: %w", err)
	}

	s.cacheNotification(ctx, strategy, n)

	if sendErr != nil {
		return n, fmt.Errorf("%w: %s", ErrDeliveryFailed, sendErr)
	}

	return n, nil
}

// SetStatus updates only the lifecycle status of a notification.
func (s *Service) SetStatus(ctx context.Context, strategy retry.Strategy, id uuid.UUID, status model.Status) error {
	n, err := s.repo.GetNotificationByID(ctx, id)
	if err != nil {
		return err
	}

	n.Status = status

	if err := s.repo.UpdateNotification(ctx, n); err != nil {
		return fmt.Errorf("update notification status: %w", err)
	}

	s.cacheNotification(ctx, strategy, n)

	return nil
}

func (s *Service) send(n model.Notification) error {
	notifier, ok := s.notifiers[n.Channel]
	if !ok {
		return fmt.Errorf("unsupported channel %q", n.Channel)
	}

	if err := notifier.Send(n.UserID, n.Template, n.Payload); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	return nil
}

func (s *Service) cacheNotification(ctx context.Context, strategy retry.Strategy, n model.Notification) {
	body, err := json.Marshal(n)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("id", n.ID.String()).Msg("failed to marshal notification for cache")
		return
	}

	if err := s.cache.SetWithRetry(ctx, strategy, n.ID.String(), string(body)); err != nil {
		zlog.Logger.Error().Err(err).Str("id", n.ID.String()).Msg("failed to cache notification")
	}
}
