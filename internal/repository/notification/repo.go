package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/wb-go/wbf/dbpg"

	"github.com/flowsend/notify-service/internal/model"
)

var (
	ErrNotificationNotFound   = errors.New("notification not found")
	ErrNoNotificationsFound   = errors.New("no notifications found")
	ErrIdempotencyKeyConflict = errors.New("idempotency key already exists")
)

// Postgres error code raised on unique constraint violations.
const uniqueViolation = pq.ErrorCode("23505")

// Repository provides methods to interact with the notifications table.
type Repository struct {
	db *dbpg.DB
}

// NewRepository creates a new notification repository.
func NewRepository(db *dbpg.DB) *Repository {
	return &Repository{db: db}
}

// CreateNotification inserts a new notification and returns the stored record.
//
// When the idempotency key is already taken it returns
// ErrIdempotencyKeyConflict; the caller is expected to re-read the record
// that won the race.
func (r *Repository) CreateNotification(ctx context.Context, notification model.Notification) (model.Notification, error) {
	query := `
		INSERT INTO notifications (
		    user_id, channel, template, payload, status, idempotency_key
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at;
    `

	err := r.db.Master.QueryRowContext(
		ctx, query,
		notification.UserID, notification.Channel, notification.Template,
		notification.Payload, notification.Status, notification.IdempotencyKey,
	).Scan(&notification.ID, &notification.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return model.Notification{}, ErrIdempotencyKeyConflict
		}

		return model.Notification{}, fmt.Errorf("failed to create notification: %w", err)
	}

	return notification, nil
}

// GetNotificationByID retrieves a notification by its ID.
func (r *Repository) GetNotificationByID(ctx context.Context, id uuid.UUID) (model.Notification, error) {
	query := `
		SELECT id, user_id, channel, template, payload, status,
		       created_at, sent_at, error_message, retry_count, idempotency_key
		FROM notifications
		WHERE id = $1;
    `

	return r.scanOne(r.db.Master.QueryRowContext(ctx, query, id))
}

// GetNotificationByIdempotencyKey retrieves the notification carrying the
// given idempotency key, if any. The read goes to the master so a caller
// that just lost the insert race observes the winner's row.
func (r *Repository) GetNotificationByIdempotencyKey(ctx context.Context, key string) (model.Notification, error) {
	query := `
		SELECT id, user_id, channel, template, payload, status,
		       created_at, sent_at, error_message, retry_count, idempotency_key
		FROM notifications
		WHERE idempotency_key = $1;
    `

	return r.scanOne(r.db.Master.QueryRowContext(ctx, query, key))
}

// UpdateNotification persists the mutable fields of a notification.
//
// Identity, recipient, channel, template and payload never change after
// creation, so only the lifecycle fields are written.
func (r *Repository) UpdateNotification(ctx context.Context, notification model.Notification) error {
	query := `
		UPDATE notifications
		SET status = $1, sent_at = $2, error_message = $3, retry_count = $4
		WHERE id = $5;
    `

	res, err := r.db.ExecContext(
		ctx, query,
		notification.Status, notification.SentAt, notification.ErrorMessage,
		notification.RetryCount, notification.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}

	rows, _ := res.RowsAffected()

	if rows == 0 {
		return ErrNotificationNotFound
	}

	return nil
}

// GetUserNotifications retrieves all notifications for a user, newest first.
func (r *Repository) GetUserNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	query := `
		SELECT id, user_id, channel, template, payload, status,
		       created_at, sent_at, error_message, retry_count, idempotency_key
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC;
    `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Channel, &n.Template, &n.Payload, &n.Status,
			&n.CreatedAt, &n.SentAt, &n.ErrorMessage, &n.RetryCount, &n.IdempotencyKey,
		); err != nil {
			return nil, err
		}

		notifications = append(notifications, n)
	}

	if len(notifications) == 0 {
		return nil, ErrNoNotificationsFound
	}

	return notifications, nil
}

func (r *Repository) scanOne(row *sql.Row) (model.Notification, error) {
	var n model.Notification
	err := row.Scan(
		&n.ID, &n.UserID, &n.Channel, &n.Template, &n.Payload, &n.Status,
		&n.CreatedAt, &n.SentAt, &n.ErrorMessage, &n.RetryCount, &n.IdempotencyKey,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Notification{}, ErrNotificationNotFound
		}

		return model.Notification{}, fmt.Errorf("failed to get notification: %w", err)
	}

	return n, nil
}
