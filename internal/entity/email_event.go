package entity

import (
	"context"
	"time"
)

type EmailEventType string

const (
	EmailEventConfirmationSent     EmailEventType = "confirmation_sent"
	EmailEventConfirmationResent   EmailEventType = "confirmation_resent"
	EmailEventConfirmationReminder EmailEventType = "confirmation_reminder_sent"
	EmailEventConfirmed            EmailEventType = "confirmed_email"
)

// EmailEvent é a trilha append-only de e-mails disparados.
type EmailEvent struct {
	ID        int64          `json:"id"`
	Email     string         `json:"email"`
	Type      EmailEventType `json:"type"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func NewEmailEvent(email string, eventType EmailEventType, meta map[string]any, now time.Time) *EmailEvent {
	if meta == nil {
		meta = map[string]any{}
	}
	return &EmailEvent{
		Email:     email,
		Type:      eventType,
		Meta:      meta,
		CreatedAt: now,
	}
}

type EmailEventRepositoryInterface interface {
	Append(ctx context.Context, event *EmailEvent) error
}
