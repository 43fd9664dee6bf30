// Package persistence provides the entry store backends: an in-memory store
// for demo and test use and a PostgreSQL store for real deployments.
package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/blockwatch/blockwatch/internal/domain"
)

// MemoryEntryRepository keeps entries in a map. Mutations on different
// entries proceed in parallel; mutations on the same entry are serialized by
// a per-entry lock. Reads and writes exchange deep copies so callers never
// observe partial state.
type MemoryEntryRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.BlockingEntry
	locks   map[string]*sync.Mutex
}

// NewMemoryEntryRepository creates an empty in-memory entry store.
func NewMemoryEntryRepository() *MemoryEntryRepository {
	return &MemoryEntryRepository{
		entries: make(map[string]*domain.BlockingEntry),
		locks:   make(map[string]*sync.Mutex),
	}
}

// Create saves a new entry.
func (r *MemoryEntryRepository) Create(_ context.Context, entry *domain.BlockingEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = entry.Clone()
	r.locks[entry.ID] = &sync.Mutex{}
	return nil
}

// FindByID retrieves an entry by its ID.
func (r *MemoryEntryRepository) FindByID(_ context.Context, id string) (*domain.BlockingEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	return entry.Clone(), nil
}

// List retrieves all entries sorted by creation time, newest first.
func (r *MemoryEntryRepository) List(_ context.Context) ([]*domain.BlockingEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.BlockingEntry, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Mutate applies fn under the entry's lock so concurrent read-modify-writes
// of the same entry cannot lose updates.
func (r *MemoryEntryRepository) Mutate(_ context.Context, id string, fn func(*domain.BlockingEntry) error) (*domain.BlockingEntry, error) {
	r.mu.RLock()
	lock, ok := r.locks[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrEntryNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	r.mu.RLock()
	stored, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrEntryNotFound
	}

	updated := stored.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.entries[id] = updated
	r.mu.Unlock()
	return updated.Clone(), nil
}

// MemoryAuditRepository is an append-only in-memory audit log.
type MemoryAuditRepository struct {
	mu      sync.RWMutex
	records []*domain.AuditEntry
}

// NewMemoryAuditRepository creates an empty in-memory audit log.
func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{}
}

// Create appends an audit record.
func (r *MemoryAuditRepository) Create(_ context.Context, audit *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, audit)
	return nil
}

// List returns records newest first, optionally filtered by entry id. Ties on
// created_at keep reverse insertion order so the sort is stable for records
// appended within the same instant.
func (r *MemoryAuditRepository) List(_ context.Context, entryID string) ([]*domain.AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.AuditEntry
	for i := len(r.records) - 1; i >= 0; i-- {
		if entryID == "" || r.records[i].EntryID == entryID {
			out = append(out, r.records[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// MemorySettingsRepository holds the settings singleton.
type MemorySettingsRepository struct {
	mu       sync.RWMutex
	settings domain.Settings
}

// NewMemorySettingsRepository creates a settings store with the defaults.
func NewMemorySettingsRepository() *MemorySettingsRepository {
	return &MemorySettingsRepository{settings: domain.DefaultSettings()}
}

// Get returns the current settings.
func (r *MemorySettingsRepository) Get(_ context.Context) (domain.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings, nil
}

// Update merges the patch into the stored settings.
func (r *MemorySettingsRepository) Update(_ context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	patch.Apply(&r.settings)
	return r.settings, nil
}
