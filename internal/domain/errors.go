package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEntryNotFound is returned when an entry id is unknown.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrAlreadyRemoved guards against removing a REMOVED entry twice.
	ErrAlreadyRemoved = errors.New("entry already removed")

	// ErrInvalidInput is returned when the input is neither an IP nor a domain.
	ErrInvalidInput = errors.New("input is not a valid IP address or domain")

	// ErrUnauthorized is returned on a missing or mismatched token.
	ErrUnauthorized = errors.New("unauthorized")
)

// SyncError reports a failed firewall operation. For CREATE and RESYNC it is
// recorded on the entry rather than surfaced to the caller; for REMOVE it is
// a request failure.
type SyncError struct {
	Op     string
	Reason string
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("firewall %s failed: %s", e.Op, e.Reason)
}
