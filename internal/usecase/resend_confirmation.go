package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/xavierca1/atomic-crm/internal/entity"
)

// ResendConfirmationUseCase reemite o token de um pendente existente.
// Usado pelo endpoint protegido por segredo e pelo painel admin.
type ResendConfirmationUseCase struct {
	Repo     entity.LeadRepositoryInterface
	Events   entity.EmailEventRepositoryInterface
	Notifier Notifier
	Tokens   *TokenIssuer
	Timeout  time.Duration
	Now      func() time.Time
}

func NewResendConfirmationUseCase(
	repo entity.LeadRepositoryInterface,
	events entity.EmailEventRepositoryInterface,
	notifier Notifier,
	tokens *TokenIssuer,
	timeout time.Duration,
) *ResendConfirmationUseCase {
	return &ResendConfirmationUseCase{
		Repo:     repo,
		Events:   events,
		Notifier: notifier,
		Tokens:   tokens,
		Timeout:  timeout,
		Now:      time.Now,
	}
}

func (uc *ResendConfirmationUseCase) Execute(ctx context.Context, input ResendConfirmationInput) (*ResendConfirmationOutput, error) {
	email := NormalizeEmail(input.Email)
	if email == "" {
		return nil, newValidationError([]ValidationError{{"email", "is required"}})
	}
	if !IsValidEmail(email) {
		return nil, newValidationError([]ValidationError{{"email", "is invalid"}})
	}

	origin := input.Origin
	if origin == "" {
		origin = OriginCron
	}

	pending, err := uc.findPending(ctx, email)
	if err != nil {
		return nil, err
	}

	token, err := uc.Tokens.Issue()
	if err != nil {
		return nil, &TechnicalError{Code: "TOKEN_ERROR", Message: "failed to issue token", Err: err}
	}

	now := nowUTC(uc.Now)
	pending.Refresh(token, now, uc.Tokens.TTL)

	txn := NewTransaction()

	txn.AddOperation("refresh_pending", func(ctx context.Context) error {
		sctx, cancel := bounded(ctx, uc.Timeout)
		defer cancel()
		_, err := uc.Repo.UpsertPending(sctx, pending)
		return err
	})

	txn.AddFollowUp("send_confirmation", func(ctx context.Context) error {
		mctx, cancel := detached(ctx, uc.Timeout)
		defer cancel()
		return uc.Notifier.SendConfirmation(mctx, pending.Email, pending.Name, pending.Token)
	})

	txn.AddFollowUp("append_event", func(ctx context.Context) error {
		ectx, cancel := detached(ctx, uc.Timeout)
		defer cancel()
		return uc.Events.Append(ectx, entity.NewEmailEvent(pending.Email, entity.EmailEventConfirmationResent, map[string]any{
			"route":   origin,
			"lead_id": pending.ID,
		}, now))
	})

	if err := txn.Execute(ctx); err != nil {
		return nil, databaseError("failed to refresh pending lead", err)
	}

	slog.Info("🔁 confirmação reenviada", "email", pending.Email, "origin", origin)

	return &ResendConfirmationOutput{
		OK:        true,
		Status:    StatusResent,
		Email:     pending.Email,
		ExpiresAt: pending.ExpiresAt,
	}, nil
}

func (uc *ResendConfirmationUseCase) findPending(ctx context.Context, email string) (*entity.PendingLead, error) {
	sctx, cancel := bounded(ctx, uc.Timeout)
	defer cancel()

	pending, err := uc.Repo.FindPendingByEmail(sctx, email)
	if errors.Is(err, entity.ErrPendingNotFound) {
		return nil, &DomainError{Code: CodePendingNotFound, Message: "no pending confirmation for this email"}
	}
	if err != nil {
		return nil, databaseError("failed to look up pending lead", err)
	}
	return pending, nil
}
