package firewall

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/blockwatch/blockwatch/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(failureRate float64) *PaloAltoClient {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewPaloAltoClient(Config{
		AddLatency:     time.Millisecond,
		RemoveLatency:  time.Millisecond,
		AddFailureRate: failureRate,
	}, logger)
}

func testEntry() *domain.BlockingEntry {
	return domain.NewBlockingEntry("203.0.113.5", domain.KindIP, []string{"203.0.113.5"}, "t", time.Hour, "op")
}

func TestDryRunNeverFails(t *testing.T) {
	client := testClient(1.0)
	settings := domain.Settings{IntegrationMode: domain.ModeEDL, DryRun: true}

	for i := 0; i < 10; i++ {
		assert.NoError(t, client.AddEntry(context.Background(), testEntry(), settings))
		assert.NoError(t, client.RemoveEntry(context.Background(), testEntry(), settings))
	}
}

func TestAddFailsAtFullFailureRate(t *testing.T) {
	client := testClient(1.0)
	settings := domain.Settings{IntegrationMode: domain.ModeEDL}

	err := client.AddEntry(context.Background(), testEntry(), settings)
	var syncErr *domain.SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, "add", syncErr.Op)
}

func TestAddSucceedsAtZeroFailureRate(t *testing.T) {
	client := testClient(0)
	settings := domain.Settings{IntegrationMode: domain.ModeEDL}

	for i := 0; i < 10; i++ {
		assert.NoError(t, client.AddEntry(context.Background(), testEntry(), settings))
	}
}

func TestRemoveAlwaysSucceeds(t *testing.T) {
	client := testClient(1.0)
	settings := domain.Settings{IntegrationMode: domain.ModeEDL}

	for i := 0; i < 10; i++ {
		assert.NoError(t, client.RemoveEntry(context.Background(), testEntry(), settings))
	}
}

func TestAddAbortsOnCancelledContext(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	client := NewPaloAltoClient(Config{AddLatency: time.Minute}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.AddEntry(ctx, testEntry(), domain.Settings{})
	var syncErr *domain.SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Contains(t, syncErr.Reason, "context canceled")
}
