package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blockwatch/blockwatch/internal/adapter/persistence"
	"github.com/blockwatch/blockwatch/internal/domain"
	"github.com/blockwatch/blockwatch/internal/resolver"
	"github.com/blockwatch/blockwatch/internal/service/auth"
	"github.com/blockwatch/blockwatch/internal/service/ratelimit"
	"github.com/blockwatch/blockwatch/internal/usecase"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// stubFirewallClient accepts every operation so handler tests exercise the
// HTTP layer, not the simulated failure probability.
type stubFirewallClient struct{}

func (stubFirewallClient) AddEntry(context.Context, *domain.BlockingEntry, domain.Settings) error {
	return nil
}

func (stubFirewallClient) RemoveEntry(context.Context, *domain.BlockingEntry, domain.Settings) error {
	return nil
}

type apiFixture struct {
	ts *httptest.Server
}

func newAPIFixture(t *testing.T, passwordHash string) *apiFixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	entries := persistence.NewMemoryEntryRepository()
	audits := persistence.NewMemoryAuditRepository()
	settings := persistence.NewMemorySettingsRepository()

	entryUC := usecase.NewEntryUseCase(entries, audits, settings, stubFirewallClient{}, resolver.NewStaticResolver(), logger)
	edlUC := usecase.NewEDLUseCase(entries, settings)
	settingsUC := usecase.NewSettingsUseCase(settings)
	authSvc := auth.NewService("test-secret", time.Hour, passwordHash)
	limiter, err := ratelimit.NewService(ratelimit.Config{Enabled: false}, logger)
	require.NoError(t, err)

	srv := NewServer(ServerConfig{Host: "127.0.0.1", Port: "0"}, entryUC, edlUC, settingsUC, authSvc, limiter, logger)
	ts := httptest.NewServer(srv.server.Handler)
	t.Cleanup(ts.Close)
	return &apiFixture{ts: ts}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}, header http.Header) (*http.Response, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.ts.URL+path, &buf)
	require.NoError(t, err)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := f.ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), "body: %s", raw)
	}
	return resp, env
}

func (f *apiFixture) createEntry(t *testing.T, input string) domain.BlockingEntry {
	t.Helper()
	resp, env := f.do(t, http.MethodPost, "/api/v1/entries", map[string]string{
		"input":   input,
		"comment": "blocked in test",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var entry domain.BlockingEntry
	require.NoError(t, json.Unmarshal(env.Data, &entry))
	return entry
}

func TestHealthEndpoint(t *testing.T) {
	f := newAPIFixture(t, "")
	resp, err := f.ts.Client().Get(f.ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAndFetchEntry(t *testing.T) {
	f := newAPIFixture(t, "")

	entry := f.createEntry(t, "203.0.113.5")
	assert.Equal(t, domain.StatusActive, entry.Status)
	assert.Equal(t, domain.SyncSynced, entry.PaloStatus)
	assert.Equal(t, "operator", entry.CreatedBy)

	resp, env := f.do(t, http.MethodGet, "/api/v1/entries/"+entry.ID, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Status)

	resp, env = f.do(t, http.MethodGet, "/api/v1/entries", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var list []domain.BlockingEntry
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)
}

func TestCreateEntryInvalidInput(t *testing.T) {
	f := newAPIFixture(t, "")
	resp, env := f.do(t, http.MethodPost, "/api/v1/entries", map[string]string{
		"input":   "not a host",
		"comment": "c",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Status)
}

func TestGetUnknownEntry(t *testing.T) {
	f := newAPIFixture(t, "")
	resp, env := f.do(t, http.MethodGet, "/api/v1/entries/does-not-exist", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Entry not found", env.Message)
}

func TestDeleteEntryTwice(t *testing.T) {
	f := newAPIFixture(t, "")
	entry := f.createEntry(t, "203.0.113.5")

	resp, _ := f.do(t, http.MethodDelete, "/api/v1/entries/"+entry.ID, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env := f.do(t, http.MethodDelete, "/api/v1/entries/"+entry.ID, nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Entry already removed", env.Message)
}

func TestPatchEntryActions(t *testing.T) {
	f := newAPIFixture(t, "")
	entry := f.createEntry(t, "203.0.113.5")

	resp, env := f.do(t, http.MethodPatch, "/api/v1/entries/"+entry.ID, map[string]interface{}{
		"action": "extend",
		"months": 2,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var extended domain.BlockingEntry
	require.NoError(t, json.Unmarshal(env.Data, &extended))
	assert.Equal(t, entry.ExpiresAt.Add(2*domain.ExtensionMonth).Unix(), extended.ExpiresAt.Unix())

	resp, _ = f.do(t, http.MethodPatch, "/api/v1/entries/"+entry.ID, map[string]interface{}{
		"action": "resync",
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = f.do(t, http.MethodPatch, "/api/v1/entries/"+entry.ID, map[string]interface{}{
		"comment": "updated",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var patched domain.BlockingEntry
	require.NoError(t, json.Unmarshal(env.Data, &patched))
	assert.Equal(t, "updated", patched.Comment)

	resp, _ = f.do(t, http.MethodPatch, "/api/v1/entries/"+entry.ID, map[string]interface{}{
		"action": "explode",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEDLServesPlainTextList(t *testing.T) {
	f := newAPIFixture(t, "")
	f.createEntry(t, "2.2.2.2")
	f.createEntry(t, "1.1.1.1")

	resp, err := f.ts.Client().Get(f.ts.URL + "/ip.txt")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Cache-Control"), "no-cache")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "1.1.1.1\n2.2.2.2\n", string(body))
}

func TestEDLTokenEnforcement(t *testing.T) {
	f := newAPIFixture(t, "")
	f.createEntry(t, "1.1.1.1")

	resp, _ := f.do(t, http.MethodPost, "/api/v1/settings", map[string]string{
		"edl_token": "secret",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := f.ts.Client().Get(f.ts.URL + "/ip.txt?token=wrong")
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, raw.StatusCode)
	body, err := io.ReadAll(raw.Body)
	require.NoError(t, err)
	assert.Empty(t, body, "rejected requests expose no content")

	ok, err := f.ts.Client().Get(f.ts.URL + "/ip.txt?token=secret")
	require.NoError(t, err)
	defer ok.Body.Close()
	assert.Equal(t, http.StatusOK, ok.StatusCode)
}

func TestSettingsMergeOverAPI(t *testing.T) {
	f := newAPIFixture(t, "")

	resp, env := f.do(t, http.MethodPost, "/api/v1/settings", map[string]string{
		"edl_token": "secret",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var settings domain.Settings
	require.NoError(t, json.Unmarshal(env.Data, &settings))
	assert.Equal(t, "secret", settings.EDLToken)
	assert.True(t, settings.DryRun, "fields absent from the patch are retained")

	resp, env = f.do(t, http.MethodGet, "/api/v1/settings", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &settings))
	assert.Equal(t, "secret", settings.EDLToken)
}

func TestAuditEndpoint(t *testing.T) {
	f := newAPIFixture(t, "")
	entry := f.createEntry(t, "203.0.113.5")

	resp, env := f.do(t, http.MethodGet, "/api/v1/audit?entry_id="+entry.ID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var records []domain.AuditEntry
	require.NoError(t, json.Unmarshal(env.Data, &records))
	require.Len(t, records, 2)
	assert.Equal(t, domain.ActionSyncSuccess, records[0].Action)
	assert.Equal(t, domain.ActionCreate, records[1].Action)
}

func TestAuthGatesMutations(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	f := newAPIFixture(t, string(hash))

	// Reads stay open.
	resp, _ := f.do(t, http.MethodGet, "/api/v1/entries", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Mutations without a token are rejected.
	resp, _ = f.do(t, http.MethodPost, "/api/v1/entries", map[string]string{
		"input":   "203.0.113.5",
		"comment": "c",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Wrong password fails the login.
	resp, _ = f.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Right password yields a token that unlocks mutations, and the token
	// subject becomes the audit actor.
	resp, env := f.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"password": "hunter2"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login["token"])

	header := http.Header{}
	header.Set("Authorization", "Bearer "+login["token"])
	resp, env = f.do(t, http.MethodPost, "/api/v1/entries", map[string]string{
		"input":   "203.0.113.5",
		"comment": "c",
	}, header)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var entry domain.BlockingEntry
	require.NoError(t, json.Unmarshal(env.Data, &entry))
	assert.Equal(t, "admin", entry.CreatedBy)
}

func TestXActorHeaderBecomesActor(t *testing.T) {
	f := newAPIFixture(t, "")

	header := http.Header{}
	header.Set("X-Actor", "alice")
	resp, env := f.do(t, http.MethodPost, "/api/v1/entries", map[string]string{
		"input":   "203.0.113.5",
		"comment": "c",
	}, header)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var entry domain.BlockingEntry
	require.NoError(t, json.Unmarshal(env.Data, &entry))
	assert.Equal(t, "alice", entry.CreatedBy)
}
