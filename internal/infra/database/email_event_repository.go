package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/xavierca1/atomic-crm/internal/entity"
)

type EmailEventRepository struct {
	DB *sql.DB
}

func NewEmailEventRepository(db *sql.DB) *EmailEventRepository {
	return &EmailEventRepository{DB: db}
}

func (r *EmailEventRepository) Append(ctx context.Context, event *entity.EmailEvent) error {
	meta, err := json.Marshal(event.Meta)
	if err != nil {
		return fmt.Errorf("failed to encode event meta: %w", err)
	}

	query := `
		INSERT INTO email_events (email, type, meta, created_at)
		VALUES ($1, $2, $3::jsonb, $4)
		RETURNING id
	`

	if err := r.DB.QueryRowContext(ctx, query,
		event.Email,
		string(event.Type),
		string(meta),
		event.CreatedAt,
	).Scan(&event.ID); err != nil {
		return fmt.Errorf("failed to append email event: %w", err)
	}
	return nil
}

// ListByEmail devolve a trilha de um e-mail, mais antigo primeiro.
func (r *EmailEventRepository) ListByEmail(ctx context.Context, email string) ([]*entity.EmailEvent, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, email, type, meta, created_at
		FROM email_events
		WHERE email = $1
		ORDER BY id
	`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list email events: %w", err)
	}
	defer rows.Close()

	var out []*entity.EmailEvent
	for rows.Next() {
		var e entity.EmailEvent
		var eventType string
		var meta []byte
		if err := rows.Scan(&e.ID, &e.Email, &eventType, &meta, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan email event: %w", err)
		}
		e.Type = entity.EmailEventType(eventType)
		if err := json.Unmarshal(meta, &e.Meta); err != nil {
			return nil, fmt.Errorf("failed to decode event meta: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
