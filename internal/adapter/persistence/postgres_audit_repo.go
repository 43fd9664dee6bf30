package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/blockwatch/blockwatch/internal/domain"
	"github.com/blockwatch/blockwatch/internal/ports"
)

// PostgresAuditRepository implements AuditRepository using PostgreSQL. The
// table is append-only; there are no update or delete paths.
type PostgresAuditRepository struct {
	db *sql.DB
}

// NewPostgresAuditRepository creates a new PostgreSQL audit repository.
func NewPostgresAuditRepository(db *sql.DB) ports.AuditRepository {
	return &PostgresAuditRepository{db: db}
}

// Create appends an audit record.
func (r *PostgresAuditRepository) Create(ctx context.Context, audit *domain.AuditEntry) error {
	var detailsJSON []byte
	var err error
	if audit.Details != nil {
		detailsJSON, err = json.Marshal(audit.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
	}

	query := `
		INSERT INTO audit_logs (id, entry_id, action, details, actor, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6)
	`
	_, err = r.db.ExecContext(ctx, query,
		audit.ID,
		audit.EntryID,
		audit.Action,
		detailsJSON,
		audit.Actor,
		audit.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit record: %w", err)
	}
	return nil
}

// List retrieves audit records newest first, optionally filtered by entry id.
func (r *PostgresAuditRepository) List(ctx context.Context, entryID string) ([]*domain.AuditEntry, error) {
	query := `
		SELECT id, COALESCE(entry_id, ''), action, details, actor, created_at
		FROM audit_logs
		WHERE $1 = '' OR entry_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer rows.Close()

	var records []*domain.AuditEntry
	for rows.Next() {
		var record domain.AuditEntry
		var detailsJSON []byte
		if err := rows.Scan(&record.ID, &record.EntryID, &record.Action, &detailsJSON, &record.Actor, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &record.Details); err != nil {
				return nil, fmt.Errorf("failed to unmarshal audit details: %w", err)
			}
		}
		record.CreatedAt = record.CreatedAt.UTC()
		records = append(records, &record)
	}
	return records, rows.Err()
}
