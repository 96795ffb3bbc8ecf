package database

import (
	"context"
	"database/sql"
	"fmt"
)

// LeadChangesChannel is the NOTIFY channel fed by the leads trigger.
const LeadChangesChannel = "lead_changes"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS identities (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		role       TEXT NOT NULL CHECK (role IN ('admin', 'sales')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS leads (
		id         TEXT PRIMARY KEY,
		sales_id   TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'New',
		created_at TIMESTAMPTZ NOT NULL,
		doc        JSONB NOT NULL DEFAULT '{}'::jsonb
	)`,
	`CREATE INDEX IF NOT EXISTS leads_sales_created_idx ON leads (sales_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS leads_created_idx ON leads (created_at DESC)`,
	`CREATE OR REPLACE FUNCTION notify_lead_change() RETURNS trigger AS $$
	BEGIN
		PERFORM pg_notify('` + LeadChangesChannel + `', json_build_object(
			'op', TG_OP,
			'id', NEW.id,
			'sales_id', NEW.sales_id,
			'status', NEW.status
		)::text);
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS leads_notify ON leads`,
	`CREATE TRIGGER leads_notify AFTER INSERT OR UPDATE ON leads
		FOR EACH ROW EXECUTE FUNCTION notify_lead_change()`,
}

// Migrate creates the tables, indexes and the change trigger. Every
// statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return tx.Commit()
}
