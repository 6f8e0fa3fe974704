package testutil

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xavierca1/atomic-crm/internal/entity"
)

// MemStore é um LeadRepository em memória com a mesma semântica do Postgres.
type MemStore struct {
	mu        sync.Mutex
	pending   map[string]*entity.PendingLead // por e-mail
	confirmed map[string]*entity.ConfirmedLead
	events    []*entity.EmailEvent

	// Clock alimenta o status derivado na listagem.
	Clock func() time.Time

	// FailWith força erro em todas as chamadas quando não nulo.
	FailWith error
}

func NewMemStore() *MemStore {
	return &MemStore{
		pending:   map[string]*entity.PendingLead{},
		confirmed: map[string]*entity.ConfirmedLead{},
		Clock:     time.Now,
	}
}

func (s *MemStore) FindConfirmedByEmail(ctx context.Context, email string) (*entity.ConfirmedLead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	for _, l := range s.confirmed {
		if l.Email == email {
			c := *l
			return &c, nil
		}
	}
	return nil, entity.ErrLeadNotFound
}

func (s *MemStore) FindConfirmedByID(ctx context.Context, id string) (*entity.ConfirmedLead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	l, ok := s.confirmed[id]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	c := *l
	return &c, nil
}

func (s *MemStore) FindPendingByEmail(ctx context.Context, email string) (*entity.PendingLead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	p, ok := s.pending[email]
	if !ok {
		return nil, entity.ErrPendingNotFound
	}
	c := *p
	return &c, nil
}

func (s *MemStore) FindPendingByToken(ctx context.Context, token string) (*entity.PendingLead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	for _, p := range s.pending {
		if p.Token == token {
			c := *p
			return &c, nil
		}
	}
	return nil, entity.ErrTokenNotFound
}

func (s *MemStore) UpsertPending(ctx context.Context, p *entity.PendingLead) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return false, s.FailWith
	}

	for email, other := range s.pending {
		if other.Token == p.Token && email != p.Email {
			return false, errors.New("confirmation token collision")
		}
	}

	existing, ok := s.pending[p.Email]
	if !ok {
		c := *p
		c.ReminderSent = false
		s.pending[p.Email] = &c
		p.ReminderSent = false
		return true, nil
	}

	existing.Token = p.Token
	existing.CreatedAt = p.CreatedAt
	existing.ExpiresAt = p.ExpiresAt
	existing.ReminderSent = false
	if p.Name != "" {
		existing.Name = p.Name
	}
	if p.Phone != "" {
		existing.Phone = p.Phone
	}

	p.ID = existing.ID
	p.Name = existing.Name
	p.Phone = existing.Phone
	p.ReminderSent = false
	return false, nil
}

func (s *MemStore) PromotePending(ctx context.Context, p *entity.PendingLead, confirmedAt time.Time) (*entity.ConfirmedLead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}

	row, ok := s.pending[p.Email]
	if !ok || row.ID != p.ID || row.Token != p.Token {
		return nil, entity.ErrTokenNotFound
	}
	delete(s.pending, p.Email)

	for _, l := range s.confirmed {
		if l.Email == row.Email {
			c := *l
			return &c, nil
		}
	}

	lead := &entity.ConfirmedLead{
		ID:          uuid.New().String(),
		Name:        row.Name,
		Email:       row.Email,
		Phone:       row.Phone,
		CreatedAt:   row.CreatedAt,
		ConfirmedAt: confirmedAt,
		UpdatedAt:   confirmedAt,
	}
	s.confirmed[lead.ID] = lead
	c := *lead
	return &c, nil
}

func (s *MemStore) DeletePending(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	for email, p := range s.pending {
		if p.ID == id {
			delete(s.pending, email)
			return nil
		}
	}
	return entity.ErrPendingNotFound
}

func (s *MemStore) UpdateConfirmed(ctx context.Context, lead *entity.ConfirmedLead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	existing, ok := s.confirmed[lead.ID]
	if !ok {
		return entity.ErrLeadNotFound
	}
	existing.Name = lead.Name
	existing.Phone = lead.Phone
	existing.UpdatedAt = lead.UpdatedAt
	return nil
}

func (s *MemStore) DeleteConfirmed(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	if _, ok := s.confirmed[id]; !ok {
		return entity.ErrLeadNotFound
	}
	delete(s.confirmed, id)
	return nil
}

func (s *MemStore) ListLeads(ctx context.Context, filter entity.LeadFilter) (*entity.LeadPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}

	now := s.Clock()
	q := strings.ToLower(filter.Query)
	matches := func(name, email, phone string) bool {
		if q == "" {
			return true
		}
		return strings.Contains(strings.ToLower(name), q) ||
			strings.Contains(strings.ToLower(email), q) ||
			strings.Contains(strings.ToLower(phone), q)
	}

	var all []entity.LeadView
	for _, l := range s.confirmed {
		if !matches(l.Name, l.Email, l.Phone) {
			continue
		}
		confirmedAt := l.ConfirmedAt
		all = append(all, entity.LeadView{
			ID: l.ID, Name: l.Name, Email: l.Email, Phone: l.Phone,
			Status:      entity.LeadStatusConfirmed,
			CreatedAt:   l.CreatedAt,
			ConfirmedAt: &confirmedAt,
		})
	}
	for _, p := range s.pending {
		if !matches(p.Name, p.Email, p.Phone) {
			continue
		}
		expiresAt := p.ExpiresAt
		all = append(all, entity.LeadView{
			ID: p.ID, Name: p.Name, Email: p.Email, Phone: p.Phone,
			Status:                entity.StatusOfPending(p, now),
			CreatedAt:             p.CreatedAt,
			ConfirmationExpiresAt: &expiresAt,
		})
	}

	var summary entity.LeadSummary
	var filtered []entity.LeadView
	for _, v := range all {
		summary.Add(v.Status, 1)
		if filter.Status == "" || v.Status == filter.Status {
			filtered = append(filtered, v)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].ID < filtered[j].ID
		}
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	start := filter.Offset()
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + filter.Limit
	if end > len(filtered) {
		end = len(filtered)
	}

	return &entity.LeadPage{
		Summary: summary,
		Total:   len(filtered),
		Leads:   append([]entity.LeadView{}, filtered[start:end]...),
	}, nil
}

func (s *MemStore) DeleteExpiredPending(ctx context.Context, now time.Time, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return 0, s.FailWith
	}

	var expired []*entity.PendingLead
	for _, p := range s.pending {
		if !p.ExpiresAt.After(now) {
			expired = append(expired, p)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].ExpiresAt.Before(expired[j].ExpiresAt) })
	if len(expired) > limit {
		expired = expired[:limit]
	}
	for _, p := range expired {
		delete(s.pending, p.Email)
	}
	return len(expired), nil
}

func (s *MemStore) ListReminderCandidates(ctx context.Context, createdBefore, now time.Time, limit int) ([]*entity.PendingLead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}

	var out []*entity.PendingLead
	for _, p := range s.pending {
		if !p.ReminderSent && p.ExpiresAt.After(now) && !p.CreatedAt.After(createdBefore) {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) MarkReminded(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	for _, p := range s.pending {
		if set[p.ID] {
			p.ReminderSent = true
		}
	}
	return nil
}

// Append implementa o EmailEventRepository no mesmo store.
func (s *MemStore) Append(ctx context.Context, event *entity.EmailEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	event.ID = int64(len(s.events) + 1)
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of the appended events, oldest first.
func (s *MemStore) Events() []*entity.EmailEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entity.EmailEvent{}, s.events...)
}

func (s *MemStore) EventTypes(email string) []entity.EmailEventType {
	var out []entity.EmailEventType
	for _, e := range s.Events() {
		if e.Email == email {
			out = append(out, e.Type)
		}
	}
	return out
}

// SeedPending grava um pendente direto, útil para cenários de expiração.
func (s *MemStore) SeedPending(p *entity.PendingLead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *p
	s.pending[p.Email] = &c
}

func (s *MemStore) SeedConfirmed(l *entity.ConfirmedLead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *l
	s.confirmed[l.ID] = &c
}

func (s *MemStore) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *MemStore) ConfirmedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.confirmed)
}
