package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xavierca1/atomic-crm/internal/entity"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// AdminLeadsUseCase concentra as operações do painel sobre leads confirmados.
// A autorização acontece antes, no middleware.
type AdminLeadsUseCase struct {
	Repo    entity.LeadRepositoryInterface
	Timeout time.Duration
	Now     func() time.Time
}

func NewAdminLeadsUseCase(repo entity.LeadRepositoryInterface, timeout time.Duration) *AdminLeadsUseCase {
	return &AdminLeadsUseCase{Repo: repo, Timeout: timeout, Now: time.Now}
}

func (uc *AdminLeadsUseCase) List(ctx context.Context, input ListLeadsInput) (*ListLeadsOutput, error) {
	filter, err := normalizeFilter(input)
	if err != nil {
		return nil, err
	}

	sctx, cancel := bounded(ctx, uc.Timeout)
	defer cancel()

	page, err := uc.Repo.ListLeads(sctx, filter)
	if err != nil {
		return nil, databaseError("failed to list leads", err)
	}

	leads := page.Leads
	if leads == nil {
		leads = []entity.LeadView{}
	}

	totalPages := 0
	if page.Total > 0 {
		totalPages = (page.Total + filter.Limit - 1) / filter.Limit
	}

	return &ListLeadsOutput{
		OK:      true,
		Summary: page.Summary,
		Pagination: Pagination{
			Page:        filter.Page,
			Limit:       filter.Limit,
			Total:       page.Total,
			TotalPages:  totalPages,
			HasNextPage: filter.Page < totalPages,
			HasPrevPage: filter.Page > 1,
		},
		Leads: leads,
	}, nil
}

func (uc *AdminLeadsUseCase) Get(ctx context.Context, id string) (*LeadOutput, error) {
	lead, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return &LeadOutput{OK: true, Lead: lead}, nil
}

func (uc *AdminLeadsUseCase) Update(ctx context.Context, id string, input UpdateLeadInput) (*LeadOutput, error) {
	if errs := ValidateLeadUpdate(input); len(errs) > 0 {
		return nil, newValidationError(errs)
	}

	lead, err := uc.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		lead.Name = NormalizeName(*input.Name)
	}
	if input.Phone != nil {
		lead.Phone = NormalizePhone(*input.Phone)
	}
	lead.UpdatedAt = nowUTC(uc.Now)

	sctx, cancel := bounded(ctx, uc.Timeout)
	defer cancel()

	if err := uc.Repo.UpdateConfirmed(sctx, lead); err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return nil, leadNotFound()
		}
		return nil, databaseError("failed to update lead", err)
	}

	slog.Info("✏️ lead atualizado pelo admin", "lead_id", lead.ID)
	return &LeadOutput{OK: true, Lead: lead}, nil
}

func (uc *AdminLeadsUseCase) Delete(ctx context.Context, id string) (*DeleteLeadOutput, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}

	sctx, cancel := bounded(ctx, uc.Timeout)
	defer cancel()

	if err := uc.Repo.DeleteConfirmed(sctx, id); err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return nil, leadNotFound()
		}
		return nil, databaseError("failed to delete lead", err)
	}

	slog.Info("🗑️ lead removido pelo admin", "lead_id", id)
	return &DeleteLeadOutput{OK: true, ID: id, Deleted: true}, nil
}

func (uc *AdminLeadsUseCase) find(ctx context.Context, id string) (*entity.ConfirmedLead, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}

	sctx, cancel := bounded(ctx, uc.Timeout)
	defer cancel()

	lead, err := uc.Repo.FindConfirmedByID(sctx, id)
	if errors.Is(err, entity.ErrLeadNotFound) {
		return nil, leadNotFound()
	}
	if err != nil {
		return nil, databaseError("failed to load lead", err)
	}
	return lead, nil
}

func normalizeID(id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", &DomainError{Code: CodeInvalidID, Message: "id must be a valid UUID"}
	}
	return parsed.String(), nil
}

func normalizeFilter(input ListLeadsInput) (entity.LeadFilter, error) {
	filter := entity.LeadFilter{
		Query: strings.TrimSpace(input.Query),
		Page:  input.Page,
		Limit: input.Limit,
	}

	if status := strings.ToLower(strings.TrimSpace(input.Status)); status != "" && status != "all" {
		filter.Status = entity.LeadStatus(status)
		if !filter.Status.Valid() {
			return filter, newValidationError([]ValidationError{{"status", "is not a known lead status"}})
		}
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultPageLimit
	}
	if filter.Limit > MaxPageLimit {
		filter.Limit = MaxPageLimit
	}
	return filter, nil
}

func leadNotFound() *DomainError {
	return &DomainError{Code: CodeLeadNotFound, Message: "lead not found"}
}
