package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Channel is the delivery channel of a notification. The set is closed:
// adding a channel means adding a constant here and registering a sender
// for it in the service's notifier table.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

// Status is the lifecycle status of a notification. A record is "retrying"
// while a retry intent for it is in flight and "failed" once the last
// attempt has run.
type Status string

const (
	StatusPending  Status = "pending"
	StatusSent     Status = "sent"
	StatusFailed   Status = "failed"
	StatusRetrying Status = "retrying"
)

// Notification represents a notification entity in the system.
//
// UserID, Channel, Template and Payload are immutable after creation;
// only Status, SentAt, ErrorMessage and RetryCount change afterwards.
type Notification struct {
	ID             uuid.UUID  `json:"id"`                        // unique identifier for the notification
	UserID         string     `json:"user_id"`                   // opaque recipient identifier
	Channel        Channel    `json:"channel"`                   // delivery channel: email, sms or push
	Template       string     `json:"template"`                  // name of the rendering template
	Payload        string     `json:"payload"`                   // template data serialized as JSON
	Status         Status     `json:"status"`                    // current lifecycle status
	CreatedAt      time.Time  `json:"created_at"`                // set once at creation
	SentAt         *time.Time `json:"sent_at,omitempty"`         // set exactly once on successful delivery
	ErrorMessage   *string    `json:"error_message,omitempty"`   // last delivery error, overwritten per attempt
	RetryCount     int        `json:"retry_count"`               // number of failed delivery attempts so far
	IdempotencyKey *string    `json:"idempotency_key,omitempty"` // optional dedup token, unique when present
}

// ParseChannel parses a channel name case-insensitively into its
// canonical value.
func ParseChannel(s string) (Channel, error) {
	switch Channel(strings.ToLower(s)) {
	case ChannelEmail:
		return ChannelEmail, nil
	case ChannelSMS:
		return ChannelSMS, nil
	case ChannelPush:
		return ChannelPush, nil
	default:
		return "", fmt.Errorf("invalid channel %q", s)
	}
}
