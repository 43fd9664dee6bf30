package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/blockwatch/blockwatch/internal/domain"
	"github.com/blockwatch/blockwatch/internal/ports"
	"github.com/lib/pq"
)

const entryColumns = `id, input, kind, resolved_ips, comment, expires_at, status, palo_status, created_by, created_at, updated_at, removed_at`

// PostgresEntryRepository implements EntryRepository using PostgreSQL.
type PostgresEntryRepository struct {
	db *sql.DB
}

// NewPostgresEntryRepository creates a new PostgreSQL entry repository.
func NewPostgresEntryRepository(db *sql.DB) ports.EntryRepository {
	return &PostgresEntryRepository{db: db}
}

// Create saves a new entry.
func (r *PostgresEntryRepository) Create(ctx context.Context, entry *domain.BlockingEntry) error {
	query := `
		INSERT INTO blocking_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.Input,
		string(entry.Kind),
		pq.Array(entry.ResolvedIPs),
		entry.Comment,
		entry.ExpiresAt,
		string(entry.Status),
		string(entry.PaloStatus),
		entry.CreatedBy,
		entry.CreatedAt,
		entry.UpdatedAt,
		entry.RemovedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create entry: %w", err)
	}
	return nil
}

// FindByID retrieves an entry by its ID.
func (r *PostgresEntryRepository) FindByID(ctx context.Context, id string) (*domain.BlockingEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM blocking_entries WHERE id = $1`
	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to find entry: %w", err)
	}
	return entry, nil
}

// List retrieves all entries, newest first.
func (r *PostgresEntryRepository) List(ctx context.Context) ([]*domain.BlockingEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM blocking_entries ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.BlockingEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Mutate applies fn inside a transaction holding a row lock, so concurrent
// read-modify-writes of the same entry serialize while other entries proceed.
func (r *PostgresEntryRepository) Mutate(ctx context.Context, id string, fn func(*domain.BlockingEntry) error) (*domain.BlockingEntry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + entryColumns + ` FROM blocking_entries WHERE id = $1 FOR UPDATE`
	entry, err := scanEntry(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to lock entry: %w", err)
	}

	if err := fn(entry); err != nil {
		return nil, err
	}

	update := `
		UPDATE blocking_entries
		SET resolved_ips = $2, comment = $3, expires_at = $4, status = $5,
		    palo_status = $6, updated_at = $7, removed_at = $8
		WHERE id = $1
	`
	_, err = tx.ExecContext(ctx, update,
		entry.ID,
		pq.Array(entry.ResolvedIPs),
		entry.Comment,
		entry.ExpiresAt,
		string(entry.Status),
		string(entry.PaloStatus),
		entry.UpdatedAt,
		entry.RemovedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit entry update: %w", err)
	}
	return entry, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*domain.BlockingEntry, error) {
	var entry domain.BlockingEntry
	var kind, status, paloStatus string
	var removedAt sql.NullTime
	var ips pq.StringArray

	err := row.Scan(
		&entry.ID,
		&entry.Input,
		&kind,
		&ips,
		&entry.Comment,
		&entry.ExpiresAt,
		&status,
		&paloStatus,
		&entry.CreatedBy,
		&entry.CreatedAt,
		&entry.UpdatedAt,
		&removedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Kind = domain.EntryKind(kind)
	entry.Status = domain.EntryStatus(status)
	entry.PaloStatus = domain.SyncStatus(paloStatus)
	entry.ResolvedIPs = []string(ips)
	if removedAt.Valid {
		t := removedAt.Time.UTC()
		entry.RemovedAt = &t
	}
	entry.ExpiresAt = entry.ExpiresAt.UTC()
	entry.CreatedAt = entry.CreatedAt.UTC()
	entry.UpdatedAt = entry.UpdatedAt.UTC()
	return &entry, nil
}
