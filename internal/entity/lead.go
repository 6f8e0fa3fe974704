package entity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPendingNotFound    = errors.New("pending lead not found")
	ErrLeadNotFound       = errors.New("lead not found")
	ErrTokenNotFound      = errors.New("confirmation token not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// PendingLead é um cadastro aguardando a confirmação do e-mail.
// O token só vive enquanto a linha existir: confirmar apaga o registro.
type PendingLead struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Token        string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	ReminderSent bool      `json:"reminder_sent"`
}

// NewPendingLead monta um pendente novo; ExpiresAt sempre é CreatedAt + ttl.
func NewPendingLead(name, email, phone, token string, now time.Time, ttl time.Duration) *PendingLead {
	return &PendingLead{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// IsExpired reports whether the token can no longer be used at instant now.
func (p *PendingLead) IsExpired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Refresh re-issues the token and restarts the TTL window.
func (p *PendingLead) Refresh(token string, now time.Time, ttl time.Duration) {
	p.Token = token
	p.CreatedAt = now
	p.ExpiresAt = now.Add(ttl)
	p.ReminderSent = false
}

type ConfirmedLead struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	CreatedAt   time.Time `json:"created_at"`
	ConfirmedAt time.Time `json:"confirmed_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LeadStatus é o status derivado usado na listagem do admin.
type LeadStatus string

const (
	LeadStatusConfirmed        LeadStatus = "confirmed"
	LeadStatusPending          LeadStatus = "pending"
	LeadStatusExpiredWithPhone LeadStatus = "expired_with_phone"
	LeadStatusExpired          LeadStatus = "expired"
)

func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusConfirmed, LeadStatusPending, LeadStatusExpiredWithPhone, LeadStatusExpired:
		return true
	}
	return false
}

// StatusOfPending derives the listing status of a pending row at instant now.
func StatusOfPending(p *PendingLead, now time.Time) LeadStatus {
	if !p.IsExpired(now) {
		return LeadStatusPending
	}
	if p.Phone != "" {
		return LeadStatusExpiredWithPhone
	}
	return LeadStatusExpired
}

// LeadView is one row of the admin listing: confirmed and pending leads side by side.
type LeadView struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	Email                 string     `json:"email"`
	Phone                 string     `json:"phone"`
	Status                LeadStatus `json:"status"`
	CreatedAt             time.Time  `json:"created_at"`
	ConfirmedAt           *time.Time `json:"confirmed_at"`
	ConfirmationExpiresAt *time.Time `json:"confirmation_expires_at"`
}

type LeadFilter struct {
	Query  string
	Status LeadStatus
	Page   int
	Limit  int
}

// Offset assumes Page and Limit were already normalized (>= 1).
func (f LeadFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type LeadSummary struct {
	Total            int `json:"total"`
	Confirmed        int `json:"confirmed"`
	Pending          int `json:"pending"`
	ExpiredWithPhone int `json:"expired_with_phone"`
	Expired          int `json:"expired"`
}

func (s *LeadSummary) Add(status LeadStatus, n int) {
	s.Total += n
	switch status {
	case LeadStatusConfirmed:
		s.Confirmed += n
	case LeadStatusPending:
		s.Pending += n
	case LeadStatusExpiredWithPhone:
		s.ExpiredWithPhone += n
	case LeadStatusExpired:
		s.Expired += n
	}
}

// Count returns how many rows match status; the empty status means all of them.
func (s LeadSummary) Count(status LeadStatus) int {
	switch status {
	case LeadStatusConfirmed:
		return s.Confirmed
	case LeadStatusPending:
		return s.Pending
	case LeadStatusExpiredWithPhone:
		return s.ExpiredWithPhone
	case LeadStatusExpired:
		return s.Expired
	}
	return s.Total
}

type LeadPage struct {
	Summary LeadSummary
	Total   int
	Leads   []LeadView
}

type LeadRepositoryInterface interface {
	FindConfirmedByEmail(ctx context.Context, email string) (*ConfirmedLead, error)
	FindConfirmedByID(ctx context.Context, id string) (*ConfirmedLead, error)
	FindPendingByEmail(ctx context.Context, email string) (*PendingLead, error)
	FindPendingByToken(ctx context.Context, token string) (*PendingLead, error)

	// UpsertPending grava o pendente por e-mail e devolve true quando a linha é nova.
	// Em conflito, o ID existente é reaproveitado e copiado para p.
	UpsertPending(ctx context.Context, p *PendingLead) (bool, error)

	// PromotePending consome o pendente e cria o confirmado de forma atômica.
	// Se o pendente já não existir (token usado), retorna ErrTokenNotFound.
	PromotePending(ctx context.Context, p *PendingLead, confirmedAt time.Time) (*ConfirmedLead, error)

	DeletePending(ctx context.Context, id string) error
	UpdateConfirmed(ctx context.Context, lead *ConfirmedLead) error
	DeleteConfirmed(ctx context.Context, id string) error
	ListLeads(ctx context.Context, filter LeadFilter) (*LeadPage, error)

	DeleteExpiredPending(ctx context.Context, now time.Time, limit int) (int, error)
	ListReminderCandidates(ctx context.Context, createdBefore, now time.Time, limit int) ([]*PendingLead, error)
	MarkReminded(ctx context.Context, ids []string) error
}
