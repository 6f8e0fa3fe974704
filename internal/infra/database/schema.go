package database

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema cria tabelas, índices e a view de status. Pode rodar várias vezes.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const schema = `
-- Leads confirmados
CREATE TABLE IF NOT EXISTS leads (
    id UUID PRIMARY KEY,
    name TEXT,
    email TEXT NOT NULL UNIQUE,
    phone TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    confirmed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Pendentes de confirmação (o token vive aqui)
CREATE TABLE IF NOT EXISTS leads_pending (
    id UUID PRIMARY KEY,
    name TEXT,
    email TEXT NOT NULL UNIQUE,
    phone TEXT,
    token TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ NOT NULL,
    reminder_sent BOOLEAN NOT NULL DEFAULT FALSE,
    CHECK (expires_at > created_at)
);

CREATE INDEX IF NOT EXISTS idx_leads_pending_expires_at ON leads_pending(expires_at);
CREATE INDEX IF NOT EXISTS idx_leads_pending_reminder ON leads_pending(reminder_sent, created_at);

-- Trilha de e-mails (append-only)
CREATE TABLE IF NOT EXISTS email_events (
    id BIGSERIAL PRIMARY KEY,
    email TEXT NOT NULL,
    type TEXT NOT NULL CHECK (type IN ('confirmation_sent', 'confirmation_resent', 'confirmation_reminder_sent', 'confirmed_email')),
    meta JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_email_events_email ON email_events(email);

CREATE OR REPLACE VIEW v_leads_with_status AS
SELECT
    id,
    COALESCE(name, '') AS name,
    email,
    COALESCE(phone, '') AS phone,
    'confirmed' AS status,
    created_at,
    confirmed_at,
    NULL::timestamptz AS confirmation_expires_at
FROM leads
UNION ALL
SELECT
    id,
    COALESCE(name, '') AS name,
    email,
    COALESCE(phone, '') AS phone,
    CASE
        WHEN expires_at >= NOW() THEN 'pending'
        WHEN COALESCE(phone, '') <> '' THEN 'expired_with_phone'
        ELSE 'expired'
    END AS status,
    created_at,
    NULL::timestamptz AS confirmed_at,
    expires_at AS confirmation_expires_at
FROM leads_pending;
`
