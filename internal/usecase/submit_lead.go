package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/xavierca1/atomic-crm/internal/entity"
)

type SubmitLeadUseCase struct {
	Repo     entity.LeadRepositoryInterface
	Events   entity.EmailEventRepositoryInterface
	Notifier Notifier
	Tokens   *TokenIssuer
	Timeout  time.Duration
	Now      func() time.Time
}

func NewSubmitLeadUseCase(
	repo entity.LeadRepositoryInterface,
	events entity.EmailEventRepositoryInterface,
	notifier Notifier,
	tokens *TokenIssuer,
	timeout time.Duration,
) *SubmitLeadUseCase {
	return &SubmitLeadUseCase{
		Repo:     repo,
		Events:   events,
		Notifier: notifier,
		Tokens:   tokens,
		Timeout:  timeout,
		Now:      time.Now,
	}
}

func (uc *SubmitLeadUseCase) Execute(ctx context.Context, input SubmitLeadInput) (*SubmitLeadOutput, error) {
	fields, validationErrors := ValidateLeadInput(input)
	if len(validationErrors) > 0 {
		return nil, newValidationError(validationErrors)
	}

	confirmed, err := uc.findConfirmed(ctx, fields.Email)
	if err != nil {
		return nil, err
	}
	if confirmed != nil {
		slog.Info("lead já confirmado, nada a fazer", "email", fields.Email)
		return &SubmitLeadOutput{OK: true, Status: StatusAlreadyRegistered, Email: fields.Email}, nil
	}

	token, err := uc.Tokens.Issue()
	if err != nil {
		return nil, &TechnicalError{Code: "TOKEN_ERROR", Message: "failed to issue token", Err: err}
	}

	now := nowUTC(uc.Now)
	pending := entity.NewPendingLead(fields.Name, fields.Email, fields.Phone, token, now, uc.Tokens.TTL)
	inserted := false

	txn := NewTransaction()

	txn.AddOperation("upsert_pending", func(ctx context.Context) error {
		sctx, cancel := bounded(ctx, uc.Timeout)
		defer cancel()
		var err error
		inserted, err = uc.Repo.UpsertPending(sctx, pending)
		return err
	})

	txn.AddFollowUp("send_confirmation", func(ctx context.Context) error {
		mctx, cancel := detached(ctx, uc.Timeout)
		defer cancel()
		return uc.Notifier.SendConfirmation(mctx, pending.Email, pending.Name, pending.Token)
	})

	txn.AddFollowUp("append_event", func(ctx context.Context) error {
		eventType := entity.EmailEventConfirmationResent
		if inserted {
			eventType = entity.EmailEventConfirmationSent
		}
		ectx, cancel := detached(ctx, uc.Timeout)
		defer cancel()
		return uc.Events.Append(ectx, entity.NewEmailEvent(pending.Email, eventType, map[string]any{
			"route":   OriginPublicForm,
			"lead_id": pending.ID,
		}, now))
	})

	if err := txn.Execute(ctx); err != nil {
		return nil, databaseError("failed to save pending lead", err)
	}

	slog.Info("📩 lead pendente gravado", "email", pending.Email, "new", inserted)

	return &SubmitLeadOutput{
		OK:        true,
		Status:    StatusPendingConfirmation,
		Email:     pending.Email,
		ExpiresAt: &pending.ExpiresAt,
	}, nil
}

func (uc *SubmitLeadUseCase) findConfirmed(ctx context.Context, email string) (*entity.ConfirmedLead, error) {
	sctx, cancel := bounded(ctx, uc.Timeout)
	defer cancel()

	lead, err := uc.Repo.FindConfirmedByEmail(sctx, email)
	if errors.Is(err, entity.ErrLeadNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, databaseError("failed to look up confirmed lead", err)
	}
	return lead, nil
}
