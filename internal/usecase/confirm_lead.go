package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/xavierca1/atomic-crm/internal/entity"
)

// ConfirmLeadUseCase move o lead de Pending para Confirmed.
// Sucesso acontece no máximo uma vez por token: depois disso o pendente
// não existe mais e qualquer nova tentativa cai em TOKEN_NOT_FOUND.
type ConfirmLeadUseCase struct {
	Repo      entity.LeadRepositoryInterface
	Events    entity.EmailEventRepositoryInterface
	Notifier  Notifier
	Publisher LeadEventPublisher
	Timeout   time.Duration
	Now       func() time.Time
}

func NewConfirmLeadUseCase(
	repo entity.LeadRepositoryInterface,
	events entity.EmailEventRepositoryInterface,
	notifier Notifier,
	publisher LeadEventPublisher,
	timeout time.Duration,
) *ConfirmLeadUseCase {
	return &ConfirmLeadUseCase{
		Repo:      repo,
		Events:    events,
		Notifier:  notifier,
		Publisher: publisher,
		Timeout:   timeout,
		Now:       time.Now,
	}
}

var errTokenNotFound = &DomainError{Code: CodeTokenNotFound, Message: "confirmation token not found"}

func (uc *ConfirmLeadUseCase) Execute(ctx context.Context, input ConfirmLeadInput) (*ConfirmLeadOutput, error) {
	if err := ValidateToken(input.Token); err != nil {
		return nil, err
	}
	token := strings.TrimSpace(input.Token)
	email := NormalizeEmail(input.Email)
	if email != "" && !IsValidEmail(email) {
		return nil, newValidationError([]ValidationError{{"email", "is invalid"}})
	}

	pending, err := uc.findPending(ctx, token)
	if err != nil {
		return nil, err
	}

	if email != "" && email != pending.Email {
		return nil, &DomainError{Code: CodeTokenEmailMismatch, Message: "token does not belong to this email"}
	}

	now := nowUTC(uc.Now)
	if pending.IsExpired(now) {
		// o pendente fica para a limpeza agendada
		return nil, &DomainError{Code: CodeTokenExpired, Message: "confirmation token expired"}
	}

	var confirmed *entity.ConfirmedLead

	txn := NewTransaction()

	txn.AddOperation("promote_pending", func(ctx context.Context) error {
		sctx, cancel := bounded(ctx, uc.Timeout)
		defer cancel()
		var err error
		confirmed, err = uc.Repo.PromotePending(sctx, pending, now)
		return err
	})

	txn.AddFollowUp("send_welcome", func(ctx context.Context) error {
		mctx, cancel := detached(ctx, uc.Timeout)
		defer cancel()
		return uc.Notifier.SendWelcome(mctx, confirmed.Email, confirmed.Name)
	})

	txn.AddFollowUp("append_event", func(ctx context.Context) error {
		ectx, cancel := detached(ctx, uc.Timeout)
		defer cancel()
		return uc.Events.Append(ectx, entity.NewEmailEvent(confirmed.Email, entity.EmailEventConfirmed, map[string]any{
			"route":   "confirm",
			"lead_id": confirmed.ID,
		}, now))
	})

	if uc.Publisher != nil {
		txn.AddFollowUp("publish_confirmed", func(ctx context.Context) error {
			pctx, cancel := detached(ctx, uc.Timeout)
			defer cancel()
			return uc.Publisher.PublishLeadConfirmed(pctx, confirmed)
		})
	}

	if err := txn.Execute(ctx); err != nil {
		if errors.Is(err, entity.ErrTokenNotFound) {
			// outra requisição consumiu o mesmo token antes desta
			return nil, errTokenNotFound
		}
		return nil, databaseError("failed to confirm lead", err)
	}

	slog.Info("✅ lead confirmado", "email", confirmed.Email, "lead_id", confirmed.ID)

	return &ConfirmLeadOutput{
		OK:          true,
		Action:      "confirm",
		Email:       confirmed.Email,
		ConfirmedID: confirmed.ID,
	}, nil
}

func (uc *ConfirmLeadUseCase) findPending(ctx context.Context, token string) (*entity.PendingLead, error) {
	sctx, cancel := bounded(ctx, uc.Timeout)
	defer cancel()

	pending, err := uc.Repo.FindPendingByToken(sctx, token)
	if errors.Is(err, entity.ErrPendingNotFound) || errors.Is(err, entity.ErrTokenNotFound) {
		return nil, errTokenNotFound
	}
	if err != nil {
		return nil, databaseError("failed to look up token", err)
	}
	return pending, nil
}
