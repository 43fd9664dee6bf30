package sweeper

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/blockwatch/blockwatch/internal/adapter/persistence"
	"github.com/blockwatch/blockwatch/internal/domain"
	"github.com/blockwatch/blockwatch/internal/resolver"
	"github.com/blockwatch/blockwatch/internal/usecase"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFirewall always accepts adds and fails removals for the configured
// inputs only.
type stubFirewall struct {
	mu         sync.Mutex
	failRemove map[string]bool
}

func (s *stubFirewall) AddEntry(context.Context, *domain.BlockingEntry, domain.Settings) error {
	return nil
}

func (s *stubFirewall) RemoveEntry(_ context.Context, entry *domain.BlockingEntry, _ domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRemove[entry.Input] {
		return &domain.SyncError{Op: "remove", Reason: "device unreachable"}
	}
	return nil
}

type sweepFixture struct {
	sweeper  *Sweeper
	entries  *persistence.MemoryEntryRepository
	uc       *usecase.EntryUseCase
	firewall *stubFirewall
}

func newSweepFixture(t *testing.T) *sweepFixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	entries := persistence.NewMemoryEntryRepository()
	fw := &stubFirewall{failRemove: make(map[string]bool)}
	uc := usecase.NewEntryUseCase(
		entries,
		persistence.NewMemoryAuditRepository(),
		persistence.NewMemorySettingsRepository(),
		fw,
		resolver.NewStaticResolver(),
		logger,
	)
	return &sweepFixture{
		sweeper:  New(uc, time.Minute, logger),
		entries:  entries,
		uc:       uc,
		firewall: fw,
	}
}

func (f *sweepFixture) createEntry(t *testing.T, input string) *domain.BlockingEntry {
	t.Helper()
	entry, err := f.uc.Create(context.Background(), usecase.CreateEntryRequest{
		Input:   input,
		Comment: "test",
		Actor:   "op",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, entry.Status)
	return entry
}

func (f *sweepFixture) expire(t *testing.T, id string) {
	t.Helper()
	_, err := f.entries.Mutate(context.Background(), id, func(e *domain.BlockingEntry) error {
		e.ExpiresAt = time.Now().Add(-time.Minute)
		return nil
	})
	require.NoError(t, err)
}

func TestSweepRemovesExpiredEntries(t *testing.T) {
	f := newSweepFixture(t)

	expired := f.createEntry(t, "203.0.113.1")
	f.expire(t, expired.ID)
	fresh := f.createEntry(t, "203.0.113.2")

	f.sweeper.Sweep(context.Background())

	got, err := f.uc.Get(context.Background(), expired.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRemoved, got.Status)
	assert.Equal(t, domain.SyncUnsynced, got.PaloStatus)

	got, err = f.uc.Get(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, got.Status)
}

func TestSweepFailureDoesNotBlockOtherRemovals(t *testing.T) {
	f := newSweepFixture(t)

	stuck := f.createEntry(t, "203.0.113.1")
	ok1 := f.createEntry(t, "203.0.113.2")
	ok2 := f.createEntry(t, "203.0.113.3")
	for _, e := range []*domain.BlockingEntry{stuck, ok1, ok2} {
		f.expire(t, e.ID)
	}
	f.firewall.failRemove[stuck.Input] = true

	f.sweeper.Sweep(context.Background())

	got, err := f.uc.Get(context.Background(), stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, got.Status, "failed removal stays active for the next pass")

	for _, e := range []*domain.BlockingEntry{ok1, ok2} {
		got, err := f.uc.Get(context.Background(), e.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusRemoved, got.Status)
	}
}

func TestSweepRetriesOnNextPass(t *testing.T) {
	f := newSweepFixture(t)

	entry := f.createEntry(t, "203.0.113.1")
	f.expire(t, entry.ID)
	f.firewall.failRemove[entry.Input] = true

	f.sweeper.Sweep(context.Background())
	got, err := f.uc.Get(context.Background(), entry.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, got.Status)

	f.firewall.mu.Lock()
	f.firewall.failRemove[entry.Input] = false
	f.firewall.mu.Unlock()

	f.sweeper.Sweep(context.Background())
	got, err = f.uc.Get(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRemoved, got.Status)
}

func TestSweepSkipsNonActiveEntries(t *testing.T) {
	f := newSweepFixture(t)

	entry := f.createEntry(t, "203.0.113.1")
	f.expire(t, entry.ID)
	require.NoError(t, f.uc.Remove(context.Background(), entry.ID, "op"))
	removedAt := mustGet(t, f, entry.ID).RemovedAt

	f.sweeper.Sweep(context.Background())

	got := mustGet(t, f, entry.ID)
	assert.Equal(t, domain.StatusRemoved, got.Status)
	assert.Equal(t, removedAt, got.RemovedAt, "already removed entries are left alone")
}

func mustGet(t *testing.T, f *sweepFixture, id string) *domain.BlockingEntry {
	t.Helper()
	entry, err := f.uc.Get(context.Background(), id)
	require.NoError(t, err)
	return entry
}
