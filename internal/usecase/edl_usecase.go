package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/blockwatch/blockwatch/internal/domain"
	"github.com/blockwatch/blockwatch/internal/ports"
)

// EDLUseCase renders the External Dynamic List the firewall polls. It is
// strictly read-only: expired entries are filtered out, never transitioned
// (expiry is the sweeper's job).
type EDLUseCase struct {
	entries  ports.EntryRepository
	settings ports.SettingsRepository
}

// NewEDLUseCase creates the distribution endpoint logic.
func NewEDLUseCase(entries ports.EntryRepository, settings ports.SettingsRepository) *EDLUseCase {
	return &EDLUseCase{entries: entries, settings: settings}
}

// Render returns the newline-separated, deduplicated, lexicographically
// sorted list of currently blocked IPs, with a trailing newline iff the list
// is non-empty. When a token is configured it must match or
// domain.ErrUnauthorized is returned with no content.
func (uc *EDLUseCase) Render(ctx context.Context, token string) (string, error) {
	settings, err := uc.settings.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("load settings: %w", err)
	}
	if settings.EDLToken != "" && token != settings.EDLToken {
		return "", domain.ErrUnauthorized
	}

	entries, err := uc.entries.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list entries: %w", err)
	}

	now := time.Now()
	unique := make(map[string]struct{})
	for _, entry := range entries {
		if entry.Status != domain.StatusActive || !entry.ExpiresAt.After(now) {
			continue
		}
		for _, ip := range entry.ResolvedIPs {
			unique[ip] = struct{}{}
		}
	}

	ips := make([]string, 0, len(unique))
	for ip := range unique {
		ips = append(ips, ip)
	}
	sort.Strings(ips)

	if len(ips) == 0 {
		return "", nil
	}
	return strings.Join(ips, "\n") + "\n", nil
}
