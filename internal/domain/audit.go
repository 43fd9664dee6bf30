package domain

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions. The action field is free-form but drawn from this set.
const (
	ActionCreate      = "CREATE"
	ActionRemove      = "REMOVE"
	ActionExtend      = "EXTEND"
	ActionResync      = "RESYNC"
	ActionSyncSuccess = "SYNC_SUCCESS"
	ActionSyncFailed  = "SYNC_FAILED"
)

// AuditEntry is an immutable record of a lifecycle event. Entries are only
// ever appended, never mutated or deleted.
type AuditEntry struct {
	ID        string                 `json:"id"`
	EntryID   string                 `json:"entry_id,omitempty"`
	Action    string                 `json:"action"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Actor     string                 `json:"actor"`
	CreatedAt time.Time              `json:"created_at"`
}

// NewAuditEntry creates an audit record for the given entry and action.
func NewAuditEntry(entryID, action, actor string, details map[string]interface{}) *AuditEntry {
	return &AuditEntry{
		ID:        uuid.NewString(),
		EntryID:   entryID,
		Action:    action,
		Details:   details,
		Actor:     actor,
		CreatedAt: time.Now(),
	}
}
