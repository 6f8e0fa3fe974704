package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/atomic-crm/internal/entity"
)

type Notifier interface {
	SendConfirmation(ctx context.Context, to, name, token string) error
	SendReminder(ctx context.Context, to, name, token string) error
	SendWelcome(ctx context.Context, to, name string) error
}

// LeadEventPublisher repassa o lead confirmado para integrações (CRM). Opcional.
type LeadEventPublisher interface {
	PublishLeadConfirmed(ctx context.Context, lead *entity.ConfirmedLead) error
}

// bounded limits a single store or mail round trip.
func bounded(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// detached keeps request values but survives the client going away, so follow-ups
// still run after the state change is committed.
func detached(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return bounded(context.WithoutCancel(ctx), d)
}

func nowUTC(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}
