package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntryStatus represents the block-lifecycle position of an entry.
type EntryStatus string

const (
	StatusPending EntryStatus = "PENDING"
	StatusActive  EntryStatus = "ACTIVE"
	StatusExpired EntryStatus = "EXPIRED"
	StatusRemoved EntryStatus = "REMOVED"
	StatusFailed  EntryStatus = "FAILED"
)

// SyncStatus represents the last known outcome of syncing an entry to the
// firewall. It is orthogonal to EntryStatus.
type SyncStatus string

const (
	SyncQueued   SyncStatus = "QUEUED"
	SyncSynced   SyncStatus = "SYNCED"
	SyncFailed   SyncStatus = "ERROR"
	SyncUnsynced SyncStatus = "UNSYNCED"
)

// EntryKind classifies the raw user input.
type EntryKind string

const (
	KindIP     EntryKind = "ip"
	KindDomain EntryKind = "domain"
)

// ExtensionMonth is the fixed 30-day month used by Extend.
const ExtensionMonth = 30 * 24 * time.Hour

// BlockingEntry represents an IP or domain that should be blocked on the
// firewall until it expires or is removed.
type BlockingEntry struct {
	ID          string      `json:"id"`
	Input       string      `json:"input"`
	Kind        EntryKind   `json:"kind"`
	ResolvedIPs []string    `json:"resolved_ips"`
	Comment     string      `json:"comment"`
	ExpiresAt   time.Time   `json:"expires_at"`
	Status      EntryStatus `json:"status"`
	PaloStatus  SyncStatus  `json:"palo_status"`
	CreatedBy   string      `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	RemovedAt   *time.Time  `json:"removed_at,omitempty"`
}

// NewBlockingEntry creates a new entry in the PENDING/QUEUED state.
func NewBlockingEntry(input string, kind EntryKind, resolvedIPs []string, comment string, ttl time.Duration, createdBy string) *BlockingEntry {
	now := time.Now()
	return &BlockingEntry{
		ID:          uuid.NewString(),
		Input:       input,
		Kind:        kind,
		ResolvedIPs: resolvedIPs,
		Comment:     comment,
		ExpiresAt:   now.Add(ttl),
		Status:      StatusPending,
		PaloStatus:  SyncQueued,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MarkSynced records a successful firewall sync.
func (e *BlockingEntry) MarkSynced() {
	e.Status = StatusActive
	e.PaloStatus = SyncSynced
	e.UpdatedAt = time.Now()
}

// MarkSyncFailed records a failed firewall sync.
func (e *BlockingEntry) MarkSyncFailed() {
	e.Status = StatusFailed
	e.PaloStatus = SyncFailed
	e.UpdatedAt = time.Now()
}

// MarkRemoved transitions the entry to REMOVED after the firewall confirmed
// the removal. Removing an already removed entry is rejected.
func (e *BlockingEntry) MarkRemoved() error {
	if e.Status == StatusRemoved {
		return ErrAlreadyRemoved
	}
	now := time.Now()
	e.Status = StatusRemoved
	e.PaloStatus = SyncUnsynced
	e.RemovedAt = &now
	e.UpdatedAt = now
	return nil
}

// Extend pushes the expiry out by months * 30 days. Status and sync status
// are left untouched.
func (e *BlockingEntry) Extend(months int) error {
	if e.Status == StatusRemoved {
		return ErrAlreadyRemoved
	}
	e.ExpiresAt = e.ExpiresAt.Add(time.Duration(months) * ExtensionMonth)
	e.UpdatedAt = time.Now()
	return nil
}

// SetComment patches the comment without going through the audit pipeline.
func (e *BlockingEntry) SetComment(comment string) {
	e.Comment = comment
	e.UpdatedAt = time.Now()
}

// Expired reports whether the entry's expiry has passed at the given time.
func (e *BlockingEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// Clone returns a deep copy of the entry.
func (e *BlockingEntry) Clone() *BlockingEntry {
	c := *e
	c.ResolvedIPs = append([]string(nil), e.ResolvedIPs...)
	if e.RemovedAt != nil {
		t := *e.RemovedAt
		c.RemovedAt = &t
	}
	return &c
}
