package ports

import (
	"context"

	"github.com/blockwatch/blockwatch/internal/domain"
)

// EntryRepository defines the interface for blocking entry persistence.
type EntryRepository interface {
	// Create saves a new entry.
	Create(ctx context.Context, entry *domain.BlockingEntry) error

	// FindByID retrieves an entry by its ID.
	FindByID(ctx context.Context, id string) (*domain.BlockingEntry, error)

	// List retrieves all entries.
	List(ctx context.Context) ([]*domain.BlockingEntry, error)

	// Mutate applies fn to the entry under the per-entry write lock, making
	// the read-modify-write atomic. If fn returns an error the entry is left
	// unchanged and the error is returned. Returns the entry as persisted.
	Mutate(ctx context.Context, id string, fn func(*domain.BlockingEntry) error) (*domain.BlockingEntry, error)
}

// AuditRepository defines the interface for the append-only audit log.
type AuditRepository interface {
	// Create appends an audit record.
	Create(ctx context.Context, audit *domain.AuditEntry) error

	// List retrieves audit records sorted by created_at descending,
	// optionally filtered by entry id (empty string means no filter).
	List(ctx context.Context, entryID string) ([]*domain.AuditEntry, error)
}

// SettingsRepository defines the interface for the settings singleton.
type SettingsRepository interface {
	// Get returns the current settings.
	Get(ctx context.Context) (domain.Settings, error)

	// Update merges the patch into the stored settings and returns the result.
	Update(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error)
}
