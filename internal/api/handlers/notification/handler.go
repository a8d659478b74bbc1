package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/flowsend/notify-service/internal/api/respond"
	"github.com/flowsend/notify-service/internal/config"
	"github.com/flowsend/notify-service/internal/model"
	"github.com/flowsend/notify-service/internal/repository/notification"
)

// notificationService defines the interface that the Handler depends on.
//
//go:generate mockgen -source=handler.go -destination=../../../mocks/api/handlers/notification/mock.go -package=mocks
type notificationService interface {
	CreateNotification(context.Context, retry.Strategy, model.Notification) (model.Notification, error)
	GetNotification(context.Context, retry.Strategy, uuid.UUID) (model.Notification, error)
	GetUserNotifications(context.Context, string) ([]model.Notification, error)
}

// Handler handles HTTP requests related to notifications.
type Handler struct {
	service   notificationService
	validator *validator.Validate
	cfg       *config.Config
}

// NewHandler creates a new Handler instance.
func NewHandler(
	s notificationService,
	v *validator.Validate,
	cfg *config.Config,
) *Handler {
	return &Handler{service: s, validator: v, cfg: cfg}
}

// CreateRequest represents the JSON body expected in a notification creation request.
type CreateRequest struct {
	UserID         string                 `json:"user_id" validate:"required"`
	Channel        string                 `json:"channel" validate:"required"`
	Template       string                 `json:"template" validate:"required"`
	Data           map[string]interface{} `json:"data" validate:"required"`
	IdempotencyKey string                 `json:"idempotency_key,omitempty"`
}

// Create handles HTTP POST requests to create a new notification.
//
// Validation failures are rejected before any side effect. On success the
// response carries the persisted record: still pending in async mode, or
// already terminal when the service runs without a transport.
func (h *Handler) Create(c *ginext.Context) {
	var req CreateRequest

	// Decode JSON request body into CreateRequest struct.
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to decode request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	// Validate request fields using go-playground/validator.
	if err := h.validator.Struct(req); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to validate request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("validation error: %s", err.Error()))
		return
	}

	// Channel names are accepted in any casing and stored canonically.
	channel, err := model.ParseChannel(req.Channel)
	if err != nil {
		zlog.Logger.Warn().Str("channel", req.Channel).Msg("invalid channel")
		respond.Fail(c.Writer, http.StatusBadRequest, err)
		return
	}

	payload, err := json.Marshal(req.Data)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to marshal payload data")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid payload data"))
		return
	}

	notif := model.Notification{
		UserID:   req.UserID,
		Channel:  channel,
		Template: req.Template,
		Payload:  string(payload),
	}

	if req.IdempotencyKey != "" {
		notif.IdempotencyKey = &req.IdempotencyKey
	}

	created, err := h.service.CreateNotification(c.Request.Context(), h.cfg.Retry, notif)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("user_id", req.UserID).Msg("failed to create notification")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.Created(c.Writer, created)
}

// Get handles HTTP GET requests to retrieve a notification by ID.
func (h *Handler) Get(c *ginext.Context) {
	// Extract notification ID from URL parameters.
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("idStr", idStr).Msg("failed to parse id")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return
	}

	if id == uuid.Nil {
		zlog.Logger.Warn().Msg("missing id")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("missing id"))
		return
	}

	notif, err := h.service.GetNotification(c.Request.Context(), h.cfg.Retry, id)
	if err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			zlog.Logger.Warn().Str("id", id.String()).Msg("notification not found")
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("notification not found"))
			return
		}

		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to get notification")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, notif)
}

// GetByUser handles HTTP GET requests to list a user's notifications,
// newest first.
func (h *Handler) GetByUser(c *ginext.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		zlog.Logger.Warn().Msg("missing user_id")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("missing user_id"))
		return
	}

	notifications, err := h.service.GetUserNotifications(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, notification.ErrNoNotificationsFound) {
			zlog.Logger.Warn().Str("user_id", userID).Msg("no notifications found")
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("no notifications found"))
			return
		}

		zlog.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to get notifications")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, notifications)
}
