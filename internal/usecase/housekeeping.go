package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/xavierca1/atomic-crm/internal/entity"
)

const (
	DefaultCleanupBatchSize  = 1000
	DefaultReminderBatchSize = 100
)

// CleanupPendingUseCase remove pendentes vencidos em lotes.
// HasMore indica que o lote veio cheio e vale chamar de novo.
type CleanupPendingUseCase struct {
	Repo      entity.LeadRepositoryInterface
	BatchSize int
	Timeout   time.Duration
	Now       func() time.Time
}

func NewCleanupPendingUseCase(repo entity.LeadRepositoryInterface, batchSize int, timeout time.Duration) *CleanupPendingUseCase {
	if batchSize <= 0 {
		batchSize = DefaultCleanupBatchSize
	}
	return &CleanupPendingUseCase{Repo: repo, BatchSize: batchSize, Timeout: timeout, Now: time.Now}
}

func (uc *CleanupPendingUseCase) Execute(ctx context.Context) (*CleanupPendingOutput, error) {
	sctx, cancel := bounded(ctx, uc.Timeout)
	defer cancel()

	removed, err := uc.Repo.DeleteExpiredPending(sctx, nowUTC(uc.Now), uc.BatchSize)
	if err != nil {
		return nil, databaseError("failed to delete expired pending leads", err)
	}

	if removed > 0 {
		slog.Info("🧹 pendentes expirados removidos", "removed", removed)
	}

	return &CleanupPendingOutput{
		OK:      true,
		Removed: removed,
		HasMore: removed >= uc.BatchSize,
	}, nil
}

// RemindPendingUseCase lembra quem ainda não confirmou, uma única vez por janela de TTL.
type RemindPendingUseCase struct {
	Repo        entity.LeadRepositoryInterface
	Events      entity.EmailEventRepositoryInterface
	Notifier    Notifier
	RemindAfter time.Duration
	BatchSize   int
	Timeout     time.Duration
	Now         func() time.Time
}

func NewRemindPendingUseCase(
	repo entity.LeadRepositoryInterface,
	events entity.EmailEventRepositoryInterface,
	notifier Notifier,
	remindAfter time.Duration,
	batchSize int,
	timeout time.Duration,
) *RemindPendingUseCase {
	if batchSize <= 0 {
		batchSize = DefaultReminderBatchSize
	}
	return &RemindPendingUseCase{
		Repo:        repo,
		Events:      events,
		Notifier:    notifier,
		RemindAfter: remindAfter,
		BatchSize:   batchSize,
		Timeout:     timeout,
		Now:         time.Now,
	}
}

func (uc *RemindPendingUseCase) Execute(ctx context.Context) (*RemindPendingOutput, error) {
	now := nowUTC(uc.Now)

	candidates, err := uc.listCandidates(ctx, now)
	if err != nil {
		return nil, err
	}

	processed := make([]string, 0, len(candidates))
	failed := 0

	for _, p := range candidates {
		if err := uc.remind(ctx, p); err != nil {
			failed++
			slog.Warn("⚠️ falha ao enviar lembrete", "email", p.Email, "error", err)
			continue
		}
		processed = append(processed, p.ID)

		ectx, cancel := detached(ctx, uc.Timeout)
		err := uc.Events.Append(ectx, entity.NewEmailEvent(p.Email, entity.EmailEventConfirmationReminder, map[string]any{
			"route":   "remind-pending",
			"lead_id": p.ID,
		}, now))
		cancel()
		if err != nil {
			slog.Warn("⚠️ evento de lembrete não gravado", "email", p.Email, "error", err)
		}
	}

	if len(processed) > 0 {
		mctx, cancel := detached(ctx, uc.Timeout)
		err := uc.Repo.MarkReminded(mctx, processed)
		cancel()
		if err != nil {
			// os e-mails já saíram; sem a marca o próximo ciclo repete o lembrete
			return nil, databaseError("failed to mark reminded leads", err)
		}
	}

	slog.Info("⏰ lembretes processados", "sent", len(processed), "failed", failed)

	return &RemindPendingOutput{
		OK:             true,
		Route:          "remind-pending",
		ProcessedCount: len(processed),
		ProcessedIDs:   processed,
		Failed:         failed,
	}, nil
}

func (uc *RemindPendingUseCase) listCandidates(ctx context.Context, now time.Time) ([]*entity.PendingLead, error) {
	sctx, cancel := bounded(ctx, uc.Timeout)
	defer cancel()

	candidates, err := uc.Repo.ListReminderCandidates(sctx, now.Add(-uc.RemindAfter), now, uc.BatchSize)
	if err != nil {
		return nil, databaseError("failed to list reminder candidates", err)
	}
	return candidates, nil
}

func (uc *RemindPendingUseCase) remind(ctx context.Context, p *entity.PendingLead) error {
	mctx, cancel := bounded(ctx, uc.Timeout)
	defer cancel()
	return uc.Notifier.SendReminder(mctx, p.Email, p.Name, p.Token)
}
