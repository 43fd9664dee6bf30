package ports

import (
	"context"

	"github.com/blockwatch/blockwatch/internal/domain"
)

// FirewallClient performs add/remove operations against the firewall device.
// Implementations must honor settings.DryRun by succeeding without contacting
// anything, and must return a *domain.SyncError on operation failure. Calls
// may block for network latency; callers must not hold store locks while a
// call is in flight.
type FirewallClient interface {
	AddEntry(ctx context.Context, entry *domain.BlockingEntry, settings domain.Settings) error
	RemoveEntry(ctx context.Context, entry *domain.BlockingEntry, settings domain.Settings) error
}

// Resolver maps a domain name to the set of IP addresses feeding the
// blocklist. Implementations must be deterministic for a fixed name so that
// retries are idempotent, and must be safe for concurrent use.
type Resolver interface {
	Resolve(ctx context.Context, name string) ([]string, error)
}
