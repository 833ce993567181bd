package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/atalogics/pkg/atalogics/atalogicstest"
	"github.com/matzehuels/atalogics/pkg/errors"
	"github.com/matzehuels/atalogics/pkg/observability"
	"github.com/matzehuels/atalogics/pkg/session"
)

// testEnv is a fake API plus the config, cache and session directories
// the CLI runs against.
type testEnv struct {
	srv        *atalogicstest.Server
	configPath string
	cacheDir   string
	sessionDir string
}

func newTestEnv(t *testing.T, cacheType string) *testEnv {
	t.Helper()
	t.Cleanup(observability.Reset)

	dir := t.TempDir()
	env := &testEnv{
		srv:        atalogicstest.NewServer(t),
		configPath: filepath.Join(dir, "config.toml"),
		cacheDir:   filepath.Join(dir, "cache"),
		sessionDir: filepath.Join(dir, "sessions"),
	}
	config := fmt.Sprintf(`client_id = "client-id"
client_secret = "client-secret"
production_base_url = %q

[cache]
type = %q
dir = %q
`, env.srv.URL, cacheType, env.cacheDir)
	require.NoError(t, os.WriteFile(env.configPath, []byte(config), 0o600))
	return env
}

// run executes one command with a fresh CLI and returns its output.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	c.sessionDir = e.sessionDir

	var out bytes.Buffer
	c.SetOutput(&out)

	root := c.RootCommand()
	root.SetArgs(append([]string{"--config", e.configPath}, args...))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err)
	return out
}

// =============================================================================
// token
// =============================================================================

func TestTokenShow_StoresAndReusesToken(t *testing.T) {
	env := newTestEnv(t, "none")

	out := env.mustRun(t, "token", "show")
	assert.Contains(t, out, "bearer")
	assert.Contains(t, out, "****")
	assert.NotContains(t, out, "token-1")
	assert.Contains(t, out, "authenticated")
	assert.Contains(t, out, "Expires")

	out = env.mustRun(t, "token", "show", "--reveal")
	assert.Contains(t, out, "token-1")
	assert.Equal(t, 1, env.srv.TokenCalls(), "stored token is reused")
}

func TestTokenRefresh_StoresNewToken(t *testing.T) {
	env := newTestEnv(t, "none")

	out := env.mustRun(t, "token", "refresh")
	assert.Contains(t, out, "Token refreshed")
	assert.Contains(t, out, "7200s")

	out = env.mustRun(t, "token", "show", "--reveal")
	assert.Contains(t, out, "token-2")
	assert.Equal(t, 2, env.srv.TokenCalls())
}

func TestTokenClear_RemovesSession(t *testing.T) {
	env := newTestEnv(t, "none")
	env.mustRun(t, "token", "show")

	store, err := session.NewCLIStore(env.sessionDir, "client-id", false)
	require.NoError(t, err)
	require.FileExists(t, store.Path())

	out := env.mustRun(t, "token", "clear")
	assert.Contains(t, out, "Removed stored token")
	assert.NoFileExists(t, store.Path())

	env.mustRun(t, "token", "show")
	assert.Equal(t, 2, env.srv.TokenCalls(), "a cleared token is fetched again")
}

func TestNoSession_AlwaysFetchesToken(t *testing.T) {
	env := newTestEnv(t, "none")

	env.mustRun(t, "--no-session", "token", "show")
	env.mustRun(t, "--no-session", "token", "show")

	assert.Equal(t, 2, env.srv.TokenCalls())
	entries, _ := os.ReadDir(env.sessionDir)
	assert.Empty(t, entries)
}

func TestStoredTokenRejected_RefreshesAndStores(t *testing.T) {
	env := newTestEnv(t, "none")
	env.mustRun(t, "token", "show")

	env.srv.Handle(http.MethodGet, "/api/v3/cities/SALZBURG",
		atalogicstest.Reply{Status: 401, Body: `{"error":"expired"}`},
		atalogicstest.Reply{Status: 200, Body: `{"key":"SALZBURG","delivery_areas":[]}`},
	)
	env.mustRun(t, "cities", "SALZBURG")

	out := env.mustRun(t, "token", "show", "--reveal")
	assert.Contains(t, out, "token-2", "the refreshed token is stored")
	assert.Equal(t, 2, env.srv.TokenCalls())
}

func TestMissingCredentials(t *testing.T) {
	env := newTestEnv(t, "none")
	require.NoError(t, os.WriteFile(env.configPath, []byte("sandbox_mode = true\n"), 0o600))

	_, err := env.run(t, "token", "show")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))
}

// =============================================================================
// address
// =============================================================================

const addressCheckPath = "/api/v2/addresses/single/check"

var addressArgs = []string{"--street", "Main St", "--number", "5", "--postal-code", "5020", "--city", "Salzburg"}

func TestAddressCheck(t *testing.T) {
	env := newTestEnv(t, "file")
	env.srv.Handle(http.MethodPost, addressCheckPath, atalogicstest.Reply{Status: 200, Body: `{"success":true,"existent":true}`})

	out := env.mustRun(t, append([]string{"address", "check"}, addressArgs...)...)
	assert.Contains(t, out, "Address exists and is deliverable")

	reqs := env.srv.Requests(http.MethodPost, addressCheckPath)
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{"street":"Main St","number":"5","postal_code":"5020","city":"Salzburg"}`, string(reqs[0].Body))

	out = env.mustRun(t, append([]string{"address", "check", "--json"}, addressArgs...)...)
	assert.Contains(t, out, `"existent": true`)
	assert.Equal(t, 1, env.srv.Calls(http.MethodPost, addressCheckPath), "second check is served from the file cache")
}

func TestAddressCheck_NotFoundPrintsResponse(t *testing.T) {
	env := newTestEnv(t, "none")
	env.srv.Handle(http.MethodPost, addressCheckPath, atalogicstest.Reply{Status: 404, Body: `{"error":["unknown street"]}`})

	out := env.mustRun(t, append([]string{"address", "check"}, addressArgs...)...)
	assert.Contains(t, out, "HTTP 404")
	assert.Contains(t, out, "unknown street")
}

func TestAddressCheck_Position(t *testing.T) {
	env := newTestEnv(t, "none")
	env.srv.Handle(http.MethodPost, addressCheckPath, atalogicstest.Reply{Status: 200, Body: `{"success":true,"existent":true}`})

	env.mustRun(t, append([]string{"address", "check", "--lat", "47.8", "--lng", "13.04"}, addressArgs...)...)

	reqs := env.srv.Requests(http.MethodPost, addressCheckPath)
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{"street":"Main St","number":"5","postal_code":"5020","city":"Salzburg","lat":47.8,"lng":13.04}`, string(reqs[0].Body))
}

func TestAddressCheck_InRange(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"in range", `{"success":true,"existent":true}`, "is in the delivery range"},
		{"outside", `{"success":false,"existent":true}`, "is outside the delivery range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "none")
			env.srv.Handle(http.MethodPost, addressCheckPath, atalogicstest.Reply{Status: 200, Body: tt.body})

			out := env.mustRun(t, append([]string{"address", "check", "--in-range"}, addressArgs...)...)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestAddressMulti(t *testing.T) {
	env := newTestEnv(t, "none")
	env.srv.Handle(http.MethodPost, "/api/v2/addresses/multi/check", atalogicstest.Reply{Status: 200, Body: `{"success":true,"same_area":true}`})

	file := filepath.Join(t.TempDir(), "addresses.json")
	require.NoError(t, os.WriteFile(file, []byte(`[
		{"street":"Main St","number":"5","postal_code":"5020","city":"Salzburg"},
		{"street":"Linzer Gasse","number":"10","postal_code":"5020","city":"Salzburg","lat":47.8,"lng":13.04}
	]`), 0o600))

	out := env.mustRun(t, "address", "multi", file)
	assert.Contains(t, out, `"same_area": true`)

	reqs := env.srv.Requests(http.MethodPost, "/api/v2/addresses/multi/check")
	require.Len(t, reqs, 1)
	assert.Contains(t, string(reqs[0].Body), `"lat":47.8`)
}

func TestAddressMulti_InvalidFile(t *testing.T) {
	env := newTestEnv(t, "none")
	file := filepath.Join(t.TempDir(), "addresses.json")
	require.NoError(t, os.WriteFile(file, []byte(`[]`), 0o600))

	_, err := env.run(t, "address", "multi", file)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	assert.Zero(t, env.srv.TokenCalls(), "input is checked before connecting")
}

// =============================================================================
// timeslots
// =============================================================================

const slotBody = `{
	"catch_time_window":{"from":"2099-01-01T10:00:00Z","to":"2099-01-01T12:00:00Z","bookable_till":"2099-01-01T09:00:00Z"},
	"drop_time_window":{"from":"2099-01-01T14:00:00Z","to":"2099-01-01T16:00:00Z","bookable_till":"2099-01-01T09:00:00Z"}
}`

func TestTimeslots(t *testing.T) {
	env := newTestEnv(t, "none")
	env.srv.Handle(http.MethodPost, "/api/v2/next_timeslots", atalogicstest.Reply{Status: 200, Body: "[" + slotBody + "," + slotBody + "]"})

	out := env.mustRun(t, "timeslots", "--address", "Main St 5, 5020 Salzburg", "--from", "2099-01-01")
	assert.Contains(t, out, "Catch")
	assert.Contains(t, out, "Thu Jan 1 10:00")
	assert.Contains(t, out, "Bookable till")

	reqs := env.srv.Requests(http.MethodPost, "/api/v2/next_timeslots")
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{"address":"Main St 5, 5020 Salzburg","from":"2099-01-01"}`, string(reqs[0].Body))
}

func TestTimeslots_Empty(t *testing.T) {
	env := newTestEnv(t, "none")
	env.srv.Handle(http.MethodPost, "/api/v2/next_timeslots", atalogicstest.Reply{Status: 200, Body: `[]`})

	out := env.mustRun(t, "timeslots", "--lat", "47.8", "--lng", "13.04")
	assert.Contains(t, out, "No timeslots available")
}

func TestTimeslots_FailedResponse(t *testing.T) {
	env := newTestEnv(t, "none")
	env.srv.Handle(http.MethodPost, "/api/v2/next_timeslots", atalogicstest.Reply{Status: 400, Body: `{"error":"bad date"}`})

	_, err := env.run(t, "timeslots", "--address", "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeFailedResponse))
}

func TestTimeslots_RequiresLocation(t *testing.T) {
	env := newTestEnv(t, "none")

	_, err := env.run(t, "timeslots")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestTimeslots_Next(t *testing.T) {
	env := newTestEnv(t, "none")
	env.srv.Handle(http.MethodPost, "/api/v2/next_delivery_time", atalogicstest.Reply{Status: 200, Body: slotBody})

	out := env.mustRun(t, "timeslots", "--address", "Main St 5, 5020 Salzburg", "--next")
	assert.Contains(t, out, "Drop")
	assert.Contains(t, out, "Thu Jan 1 14:00")
}

// =============================================================================
// offers
// =============================================================================

func TestOffers(t *testing.T) {
	env := newTestEnv(t, "none")
	env.srv.Handle(http.MethodPost, "/api/v3/offers", atalogicstest.Reply{Status: 200, Body: `{"offers":[{
		"offer_key":"MjAyNi0xMC0yMCsrMTIrKzIwMjYtMTAtMjErKzE0",
		"catch_window":{"from":"2099-01-01T10:00:00Z","to":"2099-01-01T12:00:00Z","usable_till":"2099-01-01T09:00:00Z"},
		"drop_window":{"from":"2099-01-01T14:00:00Z","to":"2099-01-01T16:00:00Z","usable_till":"2099-01-01T09:00:00Z"},
		"price":{"amount":990,"currency":"EUR"}
	}]}`})

	out := env.mustRun(t, "offers", "--catch", "A", "--drop", "B")
	assert.Contains(t, out, "MjAyNi0xMC0yMCsrMTIrKzIwMjYtMTAtMjErKzE0")
	assert.Contains(t, out, "Usable till")
	assert.Contains(t, out, `"currency":"EUR"`)

	reqs := env.srv.Requests(http.MethodPost, "/api/v3/offers")
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{"catch_address":"A","drop_address":"B"}`, string(reqs[0].Body))
}

func TestOffers_None(t *testing.T) {
	env := newTestEnv(t, "none")
	env.srv.Handle(http.MethodPost, "/api/v3/offers", atalogicstest.Reply{Status: 200, Body: `{"offers":[]}`})

	out := env.mustRun(t, "offers", "--catch", "A", "--drop", "B")
	assert.Contains(t, out, "No offers available")
}

func TestOffersDecodeKey(t *testing.T) {
	env := newTestEnv(t, "none")

	out := env.mustRun(t, "offers", "decode-key", "MjAyNi0xMC0yMCsrMTIrKzIwMjYtMTAtMjErKzE0")
	assert.Contains(t, out, "2026-10-20")
	assert.Contains(t, out, "2026-10-21")
	assert.Contains(t, out, "14")
	assert.Zero(t, env.srv.TokenCalls(), "decoding needs no API access")

	_, err := env.run(t, "offers", "decode-key", "not base64!")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

// =============================================================================
// cities
// =============================================================================

func TestCities(t *testing.T) {
	env := newTestEnv(t, "none")
	env.srv.Handle(http.MethodGet, "/api/v3/cities/SALZBURG", atalogicstest.Reply{Status: 200, Body: `{"key":"SALZBURG","delivery_areas":[{"id":1},{"id":2}]}`})

	out := env.mustRun(t, "cities", "SALZBURG")
	assert.Contains(t, out, "SALZBURG")
	assert.Contains(t, out, "Areas")
	assert.Contains(t, out, `"id": 2`)
}

func TestCities_InvalidKey(t *testing.T) {
	env := newTestEnv(t, "none")

	_, err := env.run(t, "cities", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

// =============================================================================
// cache
// =============================================================================

func TestCacheKeysAndClear(t *testing.T) {
	env := newTestEnv(t, "file")
	env.srv.Handle(http.MethodPost, addressCheckPath, atalogicstest.Reply{Status: 200, Body: `{"success":true,"existent":true}`})
	env.mustRun(t, append([]string{"address", "check"}, addressArgs...)...)

	out := env.mustRun(t, "cache", "keys")
	assert.Contains(t, out, "V2_/addresses/single/check_Main St_5_5020_Salzburg")

	out = env.mustRun(t, "cache", "keys", "--api-version", "3")
	assert.Contains(t, out, "No cached keys")

	out = env.mustRun(t, "cache", "clear")
	assert.Contains(t, out, "Cleared 1 cached entries")

	out = env.mustRun(t, "cache", "keys")
	assert.Contains(t, out, "No cached keys")
}

func TestCacheKeys_Disabled(t *testing.T) {
	env := newTestEnv(t, "none")

	out := env.mustRun(t, "cache", "keys")
	assert.Contains(t, out, "Caching is disabled")
}

func TestCacheClear_FileOnly(t *testing.T) {
	env := newTestEnv(t, "memory")

	_, err := env.run(t, "cache", "clear")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))
}

func TestCachePath(t *testing.T) {
	env := newTestEnv(t, "file")

	out := env.mustRun(t, "cache", "path")
	assert.Equal(t, env.cacheDir+"\n", out)
}

func TestNoCacheFlag(t *testing.T) {
	env := newTestEnv(t, "file")
	env.srv.Handle(http.MethodPost, addressCheckPath, atalogicstest.Reply{Status: 200, Body: `{"success":true,"existent":true}`})

	env.mustRun(t, append([]string{"--no-cache", "address", "check"}, addressArgs...)...)
	env.mustRun(t, append([]string{"--no-cache", "address", "check"}, addressArgs...)...)

	assert.Equal(t, 2, env.srv.Calls(http.MethodPost, addressCheckPath))
}

// =============================================================================
// helpers
// =============================================================================

func TestMaskToken(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "****"},
		{"token-1", "****"},
		{"abcdefghijklmnop", "abcd…mnop"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, maskToken(tt.in), tt.in)
	}
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "Thu Jan 1 10:00", formatTime("2099-01-01T10:00:00Z"))
	assert.Equal(t, "soon", formatTime("soon"))
}

func TestStatsHooks(t *testing.T) {
	t.Cleanup(observability.Reset)

	var s stats
	s.register()

	ctx := context.Background()
	observability.HTTP().OnRequest(ctx, "GET", "api", "/cities/X")
	observability.HTTP().OnRequest(ctx, "GET", "api", "/cities/X")
	observability.Cache().OnCacheHit(ctx, "V3")
	observability.Auth().OnTokenRefresh(ctx, 0, nil)

	assert.EqualValues(t, 2, s.requests.Load())
	assert.EqualValues(t, 1, s.cacheHits.Load())
	assert.EqualValues(t, 1, s.refreshes.Load())

	var buf bytes.Buffer
	s.log(newLogger(&buf, LogDebug))
	assert.Contains(t, buf.String(), "requests=2")
}
