// Package sweeper drives expiry: entries whose expiresAt has passed are
// removed through the lifecycle engine on a fixed interval, so expiry happens
// even with no client attached.
package sweeper

import (
	"context"
	"errors"
	"time"

	"github.com/blockwatch/blockwatch/internal/domain"
	"github.com/blockwatch/blockwatch/internal/usecase"
	"github.com/sirupsen/logrus"
)

// DefaultInterval is the reference sweep cadence.
const DefaultInterval = 30 * time.Second

// Sweeper periodically removes expired active entries.
type Sweeper struct {
	lifecycle *usecase.EntryUseCase
	interval  time.Duration
	logger    *logrus.Logger
}

// New creates a sweeper. A non-positive interval falls back to the default.
func New(lifecycle *usecase.EntryUseCase, interval time.Duration, logger *logrus.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{lifecycle: lifecycle, interval: interval, logger: logger}
}

// Run sweeps on the configured interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.WithField("interval", s.interval).Info("expiry sweeper started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs a single pass. Each entry's removal is independent: a failure
// (remote removal error, concurrent removal) is recorded in that entry's own
// state and audit trail and never blocks the rest of the pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	entries, err := s.lifecycle.List(ctx)
	if err != nil {
		s.logger.WithError(err).Error("sweep: listing entries failed")
		return
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.Status != domain.StatusActive || !entry.Expired(now) {
			continue
		}
		if err := s.lifecycle.Remove(ctx, entry.ID, "system"); err != nil {
			if errors.Is(err, domain.ErrAlreadyRemoved) {
				continue
			}
			s.logger.WithFields(logrus.Fields{
				"entry_id": entry.ID,
				"input":    entry.Input,
			}).WithError(err).Warn("sweep: removal failed, will retry next pass")
			continue
		}
		s.logger.WithFields(logrus.Fields{
			"entry_id": entry.ID,
			"input":    entry.Input,
		}).Info("sweep: expired entry removed")
	}
}
