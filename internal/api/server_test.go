package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waystone/internal/config"
	"waystone/internal/economy"
)

type fakeGuilds struct {
	mu     sync.Mutex
	guilds map[int64]economy.Guild
}

func (f *fakeGuilds) GetOrCreate(_ context.Context, guildID int64) (economy.Guild, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.guilds[guildID]
	if !ok {
		g = economy.Guild{ID: guildID, MaxLevel: economy.DefaultMaxLevel, XPAdjust: economy.DefaultXPAdjust}
		f.guilds[guildID] = g
	}
	return g, nil
}

func (f *fakeGuilds) Update(_ context.Context, g economy.Guild) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guilds[g.ID] = g
	return nil
}

func (f *fakeGuilds) ListWithResetWindow(context.Context, int, int) ([]economy.Guild, error) {
	return nil, nil
}

type fakeCharacters struct{}

func (fakeCharacters) ListActive(context.Context, int64) ([]economy.Character, error) {
	return nil, nil
}
func (fakeCharacters) ActiveByPlayer(context.Context, int64, int64) (economy.Character, error) {
	return economy.Character{}, economy.ErrNoActiveCharacter
}
func (fakeCharacters) Update(context.Context, economy.Character) error { return nil }

type fakeStipends struct{ rules []economy.StipendRule }

func (f *fakeStipends) List(context.Context, int64) ([]economy.StipendRule, error) {
	return f.rules, nil
}
func (f *fakeStipends) Upsert(context.Context, economy.StipendRule) error { return nil }
func (f *fakeStipends) Delete(context.Context, economy.StipendRule) error { return nil }

type fakeShops struct{}

func (fakeShops) List(context.Context, int64) ([]economy.Shop, error) { return nil, nil }
func (fakeShops) Update(context.Context, economy.Shop) error          { return nil }

type fakeLedger struct{ entries []economy.LedgerEntry }

func (f *fakeLedger) Append(_ context.Context, e economy.LedgerEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeLedger) ListForCharacter(_ context.Context, characterID int64, _ int) ([]economy.LedgerEntry, error) {
	var out []economy.LedgerEntry
	for _, e := range f.entries {
		if e.CharacterID == characterID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeRoles struct{}

func (fakeRoles) RoleName(context.Context, int64, int64) (string, error) {
	return "", economy.ErrStaleStipendRole
}
func (fakeRoles) RoleMembers(context.Context, int64, int64) ([]int64, error) { return nil, nil }

func newTestServer(t *testing.T) (*Server, *fakeGuilds) {
	t.Helper()
	guilds := &fakeGuilds{guilds: make(map[int64]economy.Guild)}
	stipends := &fakeStipends{}
	ledger := &fakeLedger{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := economy.NewEngine(economy.Deps{
		Guilds:     guilds,
		Characters: fakeCharacters{},
		Stipends:   stipends,
		Shops:      fakeShops{},
		Ledger:     ledger,
		Roles:      fakeRoles{},
	}, logger)
	cfg := config.BotConfig{AdminToken: "secret"}
	return New(cfg, logger, engine, guilds, stipends, ledger), guilds
}

func doRequest(t *testing.T, s *Server, method, path, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/v1/guilds/42", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/v1/guilds/42", "wrong", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuildStatusCreatesLazily(t *testing.T) {
	s, guilds := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/v1/guilds/42", "secret", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Guild economy.Guild `json:"guild"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.EqualValues(t, 42, out.Guild.ID)
	assert.Equal(t, economy.DefaultMaxLevel, out.Guild.MaxLevel)

	guilds.mu.Lock()
	_, created := guilds.guilds[42]
	guilds.mu.Unlock()
	assert.True(t, created)
}

func TestManualResetTrigger(t *testing.T) {
	s, guilds := newTestServer(t)
	guilds.guilds[7] = economy.Guild{ID: 7, MaxLevel: 20, XPAdjust: 1, WeekXP: 300,
		LastReset: time.Now().UTC().AddDate(0, 0, -7)}

	rec := doRequest(t, s, http.MethodPost, "/v1/guilds/7/reset", "secret", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var report economy.ResetReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.EqualValues(t, 300, report.WeeklyServerXP)
	assert.Equal(t, 0, report.Failures)

	guilds.mu.Lock()
	g := guilds.guilds[7]
	guilds.mu.Unlock()
	assert.EqualValues(t, 0, g.WeekXP)
	assert.EqualValues(t, 1, g.WeeksElapsed)
}

func TestScheduleValidation(t *testing.T) {
	s, guilds := newTestServer(t)

	rec := doRequest(t, s, http.MethodPut, "/v1/guilds/9/schedule", "secret", `{"day":2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodPut, "/v1/guilds/9/schedule", "secret", `{"day":8,"hour":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s, http.MethodPut, "/v1/guilds/9/schedule", "secret", `{"day":2,"hour":8}`)
	require.Equal(t, http.StatusOK, rec.Code)

	guilds.mu.Lock()
	g := guilds.guilds[9]
	guilds.mu.Unlock()
	require.NotNil(t, g.ResetDay)
	require.NotNil(t, g.ResetHour)
	assert.Equal(t, 2, *g.ResetDay)
	assert.Equal(t, 8, *g.ResetHour)

	rec = doRequest(t, s, http.MethodPut, "/v1/guilds/9/schedule", "secret", `{"day":null,"hour":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	guilds.mu.Lock()
	g = guilds.guilds[9]
	guilds.mu.Unlock()
	assert.Nil(t, g.ResetDay)
	assert.Nil(t, g.ResetHour)
}

func TestGuildIDValidation(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/v1/guilds/not-a-snowflake", "secret", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
