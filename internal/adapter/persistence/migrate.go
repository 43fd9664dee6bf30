package persistence

import (
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS blocking_entries (
		id TEXT PRIMARY KEY,
		input TEXT NOT NULL,
		kind TEXT NOT NULL,
		resolved_ips TEXT[] NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		expires_at TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL,
		palo_status TEXT NOT NULL,
		created_by TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		removed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_blocking_entries_status ON blocking_entries (status, expires_at)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id TEXT PRIMARY KEY,
		entry_id TEXT,
		action TEXT NOT NULL,
		details JSONB,
		actor TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_entry_created ON audit_logs (entry_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS settings (
		id INT PRIMARY KEY CHECK (id = 1),
		integration_mode TEXT NOT NULL,
		dry_run BOOLEAN NOT NULL,
		edl_token TEXT NOT NULL DEFAULT '',
		palo_alto_api_url TEXT NOT NULL DEFAULT '',
		palo_alto_api_key TEXT NOT NULL DEFAULT '',
		address_group_name TEXT NOT NULL DEFAULT ''
	)`,
}

// Migrate creates the PostgreSQL schema. Statements are idempotent so it is
// safe to run on every start.
func Migrate(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}
