package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/xavierca1/atomic-crm/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

const pendingColumns = `id, COALESCE(name, ''), email, COALESCE(phone, ''), token, created_at, expires_at, reminder_sent`

const confirmedColumns = `id, COALESCE(name, ''), email, COALESCE(phone, ''), created_at, confirmed_at, updated_at`

func (r *LeadRepository) FindConfirmedByEmail(ctx context.Context, email string) (*entity.ConfirmedLead, error) {
	query := `SELECT ` + confirmedColumns + ` FROM leads WHERE email = $1`
	return r.findConfirmed(ctx, query, email)
}

func (r *LeadRepository) FindConfirmedByID(ctx context.Context, id string) (*entity.ConfirmedLead, error) {
	query := `SELECT ` + confirmedColumns + ` FROM leads WHERE id = $1`
	return r.findConfirmed(ctx, query, id)
}

func (r *LeadRepository) findConfirmed(ctx context.Context, query string, arg any) (*entity.ConfirmedLead, error) {
	lead, err := scanConfirmed(r.DB.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load confirmed lead: %w", err)
	}
	return lead, nil
}

func (r *LeadRepository) FindPendingByEmail(ctx context.Context, email string) (*entity.PendingLead, error) {
	query := `SELECT ` + pendingColumns + ` FROM leads_pending WHERE email = $1`

	p, err := scanPending(r.DB.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrPendingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending lead: %w", err)
	}
	return p, nil
}

func (r *LeadRepository) FindPendingByToken(ctx context.Context, token string) (*entity.PendingLead, error) {
	query := `SELECT ` + pendingColumns + ` FROM leads_pending WHERE token = $1`

	p, err := scanPending(r.DB.QueryRowContext(ctx, query, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending lead by token: %w", err)
	}
	return p, nil
}

func (r *LeadRepository) UpsertPending(ctx context.Context, p *entity.PendingLead) (bool, error) {
	query := `
		INSERT INTO leads_pending (id, name, email, phone, token, created_at, expires_at, reminder_sent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
		ON CONFLICT (email)
		DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), leads_pending.name),
			phone = COALESCE(NULLIF(EXCLUDED.phone, ''), leads_pending.phone),
			token = EXCLUDED.token,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at,
			reminder_sent = FALSE
		RETURNING id, COALESCE(name, ''), COALESCE(phone, ''), (xmax = 0)
	`

	var inserted bool
	err := r.DB.QueryRowContext(ctx, query,
		p.ID,
		nullString(p.Name),
		p.Email,
		nullString(p.Phone),
		p.Token,
		p.CreatedAt,
		p.ExpiresAt,
	).Scan(&p.ID, &p.Name, &p.Phone, &inserted)

	if err != nil {
		if isUniqueViolation(err) {
			// só o token pode colidir aqui; o e-mail cai no ON CONFLICT
			return false, fmt.Errorf("confirmation token collision: %w", err)
		}
		slog.Error("erro ao gravar pendente", "email", p.Email, "error", err)
		return false, fmt.Errorf("failed to upsert pending lead: %w", err)
	}

	p.ReminderSent = false
	return inserted, nil
}

func (r *LeadRepository) PromotePending(ctx context.Context, p *entity.PendingLead, confirmedAt time.Time) (*entity.ConfirmedLead, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin promote tx: %w", err)
	}
	defer tx.Rollback()

	// O DELETE ... RETURNING é o ponto de exclusão mútua: só uma confirmação consome a linha.
	var name, email, phone string
	var createdAt time.Time
	err = tx.QueryRowContext(ctx, `
		DELETE FROM leads_pending
		WHERE id = $1 AND token = $2
		RETURNING COALESCE(name, ''), email, COALESCE(phone, ''), created_at
	`, p.ID, p.Token).Scan(&name, &email, &phone, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume pending lead: %w", err)
	}

	lead, err := scanConfirmed(tx.QueryRowContext(ctx, `
		INSERT INTO leads (id, name, email, phone, created_at, confirmed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (email)
		DO UPDATE SET updated_at = leads.updated_at
		RETURNING `+confirmedColumns,
		uuid.New().String(),
		nullString(name),
		email,
		nullString(phone),
		createdAt,
		confirmedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert confirmed lead: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit promote tx: %w", err)
	}
	return lead, nil
}

func (r *LeadRepository) DeletePending(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM leads_pending WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pending lead: %w", err)
	}
	return requireRow(res, entity.ErrPendingNotFound)
}

func (r *LeadRepository) UpdateConfirmed(ctx context.Context, lead *entity.ConfirmedLead) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE leads SET name = $2, phone = $3, updated_at = $4
		WHERE id = $1
	`, lead.ID, nullString(lead.Name), nullString(lead.Phone), lead.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrEmailAlreadyExists
		}
		return fmt.Errorf("failed to update lead: %w", err)
	}
	return requireRow(res, entity.ErrLeadNotFound)
}

func (r *LeadRepository) DeleteConfirmed(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	return requireRow(res, entity.ErrLeadNotFound)
}

func (r *LeadRepository) ListLeads(ctx context.Context, filter entity.LeadFilter) (*entity.LeadPage, error) {
	where := "TRUE"
	args := []any{}

	if filter.Query != "" {
		args = append(args, "%"+escapeLike(filter.Query)+"%")
		where = `(name ILIKE $1 ESCAPE '\' OR email ILIKE $1 ESCAPE '\' OR phone ILIKE $1 ESCAPE '\')`
	}

	summary, err := r.summarize(ctx, where, args)
	if err != nil {
		return nil, err
	}

	pageWhere := where
	pageArgs := append([]any{}, args...)
	if filter.Status != "" {
		pageArgs = append(pageArgs, string(filter.Status))
		pageWhere += fmt.Sprintf(" AND status = $%d", len(pageArgs))
	}
	pageArgs = append(pageArgs, filter.Limit, filter.Offset())

	query := fmt.Sprintf(`
		SELECT id, name, email, phone, status, created_at, confirmed_at, confirmation_expires_at
		FROM v_leads_with_status
		WHERE %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, pageWhere, len(pageArgs)-1, len(pageArgs))

	rows, err := r.DB.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	leads := []entity.LeadView{}
	for rows.Next() {
		var v entity.LeadView
		var status string
		var confirmedAt, expiresAt sql.NullTime
		if err := rows.Scan(&v.ID, &v.Name, &v.Email, &v.Phone, &status, &v.CreatedAt, &confirmedAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan lead row: %w", err)
		}
		v.Status = entity.LeadStatus(status)
		if confirmedAt.Valid {
			v.ConfirmedAt = &confirmedAt.Time
		}
		if expiresAt.Valid {
			v.ConfirmationExpiresAt = &expiresAt.Time
		}
		leads = append(leads, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lead rows: %w", err)
	}

	return &entity.LeadPage{
		Summary: summary,
		Total:   summary.Count(filter.Status),
		Leads:   leads,
	}, nil
}

func (r *LeadRepository) summarize(ctx context.Context, where string, args []any) (entity.LeadSummary, error) {
	var summary entity.LeadSummary

	rows, err := r.DB.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM v_leads_with_status WHERE `+where+` GROUP BY status`, args...)
	if err != nil {
		return summary, fmt.Errorf("failed to summarize leads: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return summary, fmt.Errorf("failed to scan summary row: %w", err)
		}
		summary.Add(entity.LeadStatus(status), n)
	}
	return summary, rows.Err()
}

func (r *LeadRepository) DeleteExpiredPending(ctx context.Context, now time.Time, limit int) (int, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM leads_pending
		WHERE id IN (
			SELECT id FROM leads_pending
			WHERE expires_at <= $1
			ORDER BY expires_at
			LIMIT $2
		)
	`, now, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired pending leads: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *LeadRepository) ListReminderCandidates(ctx context.Context, createdBefore, now time.Time, limit int) ([]*entity.PendingLead, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+pendingColumns+`
		FROM leads_pending
		WHERE reminder_sent = FALSE
		  AND expires_at > $2
		  AND created_at <= $1
		ORDER BY created_at
		LIMIT $3
	`, createdBefore, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminder candidates: %w", err)
	}
	defer rows.Close()

	var out []*entity.PendingLead
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *LeadRepository) MarkReminded(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.DB.ExecContext(ctx,
		`UPDATE leads_pending SET reminder_sent = TRUE WHERE id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to mark reminded leads: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPending(row rowScanner) (*entity.PendingLead, error) {
	var p entity.PendingLead
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Token, &p.CreatedAt, &p.ExpiresAt, &p.ReminderSent)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanConfirmed(row rowScanner) (*entity.ConfirmedLead, error) {
	var l entity.ConfirmedLead
	err := row.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.CreatedAt, &l.ConfirmedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
