// Package firewall contains the client that pushes blocking entries to the
// Palo Alto device. The real device is simulated: calls sleep for a
// configurable latency and the add operation fails with a configurable
// probability, standing in for API timeouts and transient errors.
package firewall

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/blockwatch/blockwatch/internal/domain"
	"github.com/sirupsen/logrus"
)

// Config controls the simulated device behavior.
type Config struct {
	AddLatency     time.Duration
	RemoveLatency  time.Duration
	AddFailureRate float64 // 0..1 probability that an add fails
}

// DefaultConfig mirrors the reference behavior: ~10% add failures, sub-second
// latency, removals always succeed.
func DefaultConfig() Config {
	return Config{
		AddLatency:     500 * time.Millisecond,
		RemoveLatency:  300 * time.Millisecond,
		AddFailureRate: 0.1,
	}
}

// PaloAltoClient implements ports.FirewallClient against the simulated
// device. Dry-run mode short-circuits both operations to success without
// transmitting anything.
type PaloAltoClient struct {
	cfg    Config
	logger *logrus.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPaloAltoClient creates a client with its own seeded random source so
// induced failures do not perturb the global generator.
func NewPaloAltoClient(cfg Config, logger *logrus.Logger) *PaloAltoClient {
	return &PaloAltoClient{
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// AddEntry pushes the entry's resolved IPs to the device.
func (c *PaloAltoClient) AddEntry(ctx context.Context, entry *domain.BlockingEntry, settings domain.Settings) error {
	if settings.DryRun {
		c.logger.WithFields(logrus.Fields{
			"entry_id": entry.ID,
			"input":    entry.Input,
			"mode":     settings.IntegrationMode,
		}).Info("dry-run: would add entry to firewall")
		return nil
	}

	if err := c.sleep(ctx, c.cfg.AddLatency); err != nil {
		return &domain.SyncError{Op: "add", Reason: err.Error()}
	}

	if c.roll() < c.cfg.AddFailureRate {
		c.logger.WithField("entry_id", entry.ID).Warn("simulated firewall add failure")
		return &domain.SyncError{Op: "add", Reason: "palo alto api timeout"}
	}

	c.logger.WithFields(logrus.Fields{
		"entry_id": entry.ID,
		"ips":      entry.ResolvedIPs,
		"mode":     settings.IntegrationMode,
	}).Info("entry added to firewall")
	return nil
}

// RemoveEntry removes the entry's IPs from the device. Removal is idempotent
// and best-effort on the real device, so the simulation never fails it.
func (c *PaloAltoClient) RemoveEntry(ctx context.Context, entry *domain.BlockingEntry, settings domain.Settings) error {
	if settings.DryRun {
		c.logger.WithFields(logrus.Fields{
			"entry_id": entry.ID,
			"input":    entry.Input,
		}).Info("dry-run: would remove entry from firewall")
		return nil
	}

	if err := c.sleep(ctx, c.cfg.RemoveLatency); err != nil {
		return &domain.SyncError{Op: "remove", Reason: err.Error()}
	}

	c.logger.WithField("entry_id", entry.ID).Info("entry removed from firewall")
	return nil
}

func (c *PaloAltoClient) roll() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Float64()
}

func (c *PaloAltoClient) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
