package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blockwatch/blockwatch/internal/domain"
	"github.com/blockwatch/blockwatch/internal/ports"
	"github.com/blockwatch/blockwatch/internal/resolver"
	"github.com/sirupsen/logrus"
)

// DefaultTTL is how long a new entry blocks when the request does not say.
const DefaultTTL = 30 * 24 * time.Hour

// EntryUseCase is the lifecycle engine. It owns every status transition of a
// blocking entry, orchestrates the resolver and the firewall client, and
// writes the audit trail.
type EntryUseCase struct {
	entries  ports.EntryRepository
	audits   ports.AuditRepository
	settings ports.SettingsRepository
	firewall ports.FirewallClient
	resolver ports.Resolver
	logger   *logrus.Logger
}

// NewEntryUseCase creates the lifecycle engine.
func NewEntryUseCase(
	entries ports.EntryRepository,
	audits ports.AuditRepository,
	settings ports.SettingsRepository,
	firewall ports.FirewallClient,
	res ports.Resolver,
	logger *logrus.Logger,
) *EntryUseCase {
	return &EntryUseCase{
		entries:  entries,
		audits:   audits,
		settings: settings,
		firewall: firewall,
		resolver: res,
		logger:   logger,
	}
}

// CreateEntryRequest is the input for creating a blocking entry.
type CreateEntryRequest struct {
	Input     string `json:"input"`
	Comment   string `json:"comment"`
	ExpiresIn int64  `json:"expires_in,omitempty"` // seconds, 0 means 30 days
	Actor     string `json:"-"`
}

// Create validates and resolves the input, persists the entry as
// PENDING/QUEUED and immediately attempts the first sync. A sync failure is
// not an error here: it is recorded on the entry as FAILED/ERROR and the
// entry is returned normally. Invalid input is rejected before anything is
// persisted.
func (uc *EntryUseCase) Create(ctx context.Context, req CreateEntryRequest) (*domain.BlockingEntry, error) {
	input := strings.TrimSpace(req.Input)
	if input == "" || strings.TrimSpace(req.Comment) == "" {
		return nil, fmt.Errorf("%w: input and comment are required", domain.ErrInvalidInput)
	}

	kind, ok := resolver.Classify(input)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidInput, input)
	}

	var ips []string
	if kind == domain.KindIP {
		ips = []string{input}
	} else {
		resolved, err := uc.resolver.Resolve(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", input, err)
		}
		ips = resolved
	}

	ttl := DefaultTTL
	if req.ExpiresIn > 0 {
		ttl = time.Duration(req.ExpiresIn) * time.Second
	}

	entry := domain.NewBlockingEntry(input, kind, ips, req.Comment, ttl, req.Actor)
	if err := uc.entries.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("persist entry: %w", err)
	}

	uc.audit(ctx, entry.ID, domain.ActionCreate, req.Actor, map[string]interface{}{
		"input":        input,
		"kind":         string(kind),
		"resolved_ips": ips,
	})

	uc.logger.WithFields(logrus.Fields{
		"entry_id": entry.ID,
		"input":    input,
		"kind":     kind,
	}).Info("entry created")

	// First sync is part of the create pipeline. If the process dies between
	// the insert above and this call, the entry stays PENDING/QUEUED until an
	// operator resyncs it.
	if _, err := uc.sync(ctx, entry.ID, "system"); err != nil {
		return nil, err
	}
	return uc.entries.FindByID(ctx, entry.ID)
}

// Get returns a single entry.
func (uc *EntryUseCase) Get(ctx context.Context, id string) (*domain.BlockingEntry, error) {
	return uc.entries.FindByID(ctx, id)
}

// List returns all entries, regardless of status.
func (uc *EntryUseCase) List(ctx context.Context) ([]*domain.BlockingEntry, error) {
	return uc.entries.List(ctx)
}

// sync runs the SYNC transition: it calls the firewall add operation without
// holding any store lock and applies the outcome afterwards. Both outcomes
// are meaningful state, so the entry is updated either way and exactly one
// SYNC_SUCCESS or SYNC_FAILED audit record is written. Repeated calls simply
// re-attempt and overwrite the latest outcome. Returns whether the sync
// succeeded.
func (uc *EntryUseCase) sync(ctx context.Context, id, actor string) (bool, error) {
	entry, err := uc.entries.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	settings, err := uc.settings.Get(ctx)
	if err != nil {
		return false, fmt.Errorf("load settings: %w", err)
	}

	syncErr := uc.firewall.AddEntry(ctx, entry, settings)

	if _, err := uc.entries.Mutate(ctx, id, func(e *domain.BlockingEntry) error {
		if syncErr != nil {
			e.MarkSyncFailed()
		} else {
			e.MarkSynced()
		}
		return nil
	}); err != nil {
		return false, err
	}

	if syncErr != nil {
		uc.audit(ctx, id, domain.ActionSyncFailed, actor, map[string]interface{}{
			"error": syncErr.Error(),
		})
		uc.logger.WithField("entry_id", id).WithError(syncErr).Warn("entry sync failed")
		return false, nil
	}
	uc.audit(ctx, id, domain.ActionSyncSuccess, actor, nil)
	return true, nil
}

// Resync re-runs the SYNC transition for an entry whose last sync failed (or
// any entry the operator wants re-pushed) and records a RESYNC audit entry
// with the outcome.
func (uc *EntryUseCase) Resync(ctx context.Context, id, actor string) (*domain.BlockingEntry, error) {
	if _, err := uc.entries.FindByID(ctx, id); err != nil {
		return nil, err
	}
	success, err := uc.sync(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	uc.audit(ctx, id, domain.ActionResync, actor, map[string]interface{}{
		"success": success,
	})
	return uc.entries.FindByID(ctx, id)
}

// Extend pushes the expiry out by months * 30 days. The read-modify-write
// happens under the per-entry lock so concurrent extensions all apply.
func (uc *EntryUseCase) Extend(ctx context.Context, id string, months int, actor string) (*domain.BlockingEntry, error) {
	if months <= 0 {
		months = 1
	}
	entry, err := uc.entries.Mutate(ctx, id, func(e *domain.BlockingEntry) error {
		return e.Extend(months)
	})
	if err != nil {
		return nil, err
	}
	uc.audit(ctx, id, domain.ActionExtend, actor, map[string]interface{}{
		"months":     months,
		"new_expiry": entry.ExpiresAt,
	})
	return entry, nil
}

// Remove runs the REMOVE transition. Unlike sync, the remote call gates the
// state change: the entry only becomes REMOVED once the firewall confirmed
// the removal, otherwise it is left untouched and the error is returned.
func (uc *EntryUseCase) Remove(ctx context.Context, id, actor string) error {
	entry, err := uc.entries.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if entry.Status == domain.StatusRemoved {
		return domain.ErrAlreadyRemoved
	}

	settings, err := uc.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err := uc.firewall.RemoveEntry(ctx, entry, settings); err != nil {
		uc.logger.WithField("entry_id", id).WithError(err).Warn("entry removal failed, state unchanged")
		return err
	}

	if _, err := uc.entries.Mutate(ctx, id, func(e *domain.BlockingEntry) error {
		return e.MarkRemoved()
	}); err != nil {
		// A concurrent remover won the race after our status check; treat it
		// as the idempotency guard, not a new lifecycle event.
		if errors.Is(err, domain.ErrAlreadyRemoved) {
			return domain.ErrAlreadyRemoved
		}
		return err
	}

	uc.audit(ctx, id, domain.ActionRemove, actor, nil)
	uc.logger.WithField("entry_id", id).Info("entry removed")
	return nil
}

// PatchRequest carries the mutable fields for a generic update.
type PatchRequest struct {
	Comment *string `json:"comment,omitempty"`
}

// Patch applies a trivial field edit bypassing the audit and sync pipeline.
// Identity fields (id, input, kind, created_at) cannot be touched.
func (uc *EntryUseCase) Patch(ctx context.Context, id string, req PatchRequest) (*domain.BlockingEntry, error) {
	return uc.entries.Mutate(ctx, id, func(e *domain.BlockingEntry) error {
		if req.Comment != nil {
			e.SetComment(*req.Comment)
		}
		return nil
	})
}

// ListAudit returns audit records newest first, optionally scoped to one
// entry.
func (uc *EntryUseCase) ListAudit(ctx context.Context, entryID string) ([]*domain.AuditEntry, error) {
	return uc.audits.List(ctx, entryID)
}

// audit appends one record; audit failures are logged, never propagated, so
// a broken audit store cannot abort a lifecycle transition that already
// happened.
func (uc *EntryUseCase) audit(ctx context.Context, entryID, action, actor string, details map[string]interface{}) {
	if actor == "" {
		actor = "system"
	}
	record := domain.NewAuditEntry(entryID, action, actor, details)
	if err := uc.audits.Create(ctx, record); err != nil {
		uc.logger.WithFields(logrus.Fields{
			"entry_id": entryID,
			"action":   action,
		}).WithError(err).Error("failed to append audit record")
	}
}
