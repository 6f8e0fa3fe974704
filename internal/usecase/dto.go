package usecase

import (
	"time"

	"github.com/xavierca1/atomic-crm/internal/entity"
)

const (
	StatusPendingConfirmation = "pending_confirmation"
	StatusAlreadyRegistered   = "already_registered"
	StatusResent              = "resent"

	OriginPublicForm = "lead"
	OriginCron       = "resend-confirmation"
	OriginAdmin      = "admin"
)

type SubmitLeadInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type SubmitLeadOutput struct {
	OK        bool       `json:"ok"`
	Status    string     `json:"status"`
	Email     string     `json:"email"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type ConfirmLeadInput struct {
	Token string `json:"token"`
	Email string `json:"email,omitempty"`
}

type ConfirmLeadOutput struct {
	OK          bool   `json:"ok"`
	Action      string `json:"action"`
	Email       string `json:"email"`
	ConfirmedID string `json:"confirmedId"`
}

type ResendConfirmationInput struct {
	Email  string `json:"email"`
	Origin string `json:"-"`
}

type ResendConfirmationOutput struct {
	OK        bool      `json:"ok"`
	Status    string    `json:"status"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type CleanupPendingOutput struct {
	OK      bool `json:"ok"`
	Removed int  `json:"removed"`
	HasMore bool `json:"hasMore"`
}

type RemindPendingOutput struct {
	OK             bool     `json:"ok"`
	Route          string   `json:"route"`
	ProcessedCount int      `json:"processedCount"`
	ProcessedIDs   []string `json:"processedIds"`
	Failed         int      `json:"failed"`
}

// UpdateLeadInput carries an admin edit; a nil pointer means "keep the current value".
type UpdateLeadInput struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

type ListLeadsInput struct {
	Query  string
	Status string
	Page   int
	Limit  int
}

type Pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

type ListLeadsOutput struct {
	OK         bool               `json:"ok"`
	Summary    entity.LeadSummary `json:"summary"`
	Pagination Pagination         `json:"pagination"`
	Leads      []entity.LeadView  `json:"leads"`
}

type LeadOutput struct {
	OK   bool                  `json:"ok"`
	Lead *entity.ConfirmedLead `json:"lead"`
}

type DeleteLeadOutput struct {
	OK      bool   `json:"ok"`
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
