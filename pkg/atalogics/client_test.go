package atalogics

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/atalogics/pkg/atalogics/atalogicstest"
	"github.com/matzehuels/atalogics/pkg/auth"
	"github.com/matzehuels/atalogics/pkg/cache"
	"github.com/matzehuels/atalogics/pkg/errors"
	"github.com/matzehuels/atalogics/pkg/observability"
)

const offersPath = "/api/v3/offers"

func newTestClient(t *testing.T, srv *atalogicstest.Server, opts ...Option) (*Client, cache.Store) {
	t.Helper()
	store := cache.NewMemoryStore(100)
	opts = append([]Option{WithCacheStore(store), WithHTTPClient(srv.Client())}, opts...)
	c, err := New(context.Background(), srv.Config(), 3, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, store
}

func TestNew_FetchesTokenAndSetsHeader(t *testing.T) {
	srv := atalogicstest.NewServer(t)
	srv.Handle(http.MethodPost, offersPath, atalogicstest.Reply{Status: 200, Body: `{"offers":[]}`})
	c, _ := newTestClient(t, srv)

	assert.Equal(t, "token-1", c.AccessToken())
	assert.Equal(t, "bearer", c.TokenType())
	assert.Equal(t, auth.StateAuthenticated, c.State())

	_, err := c.Execute(context.Background(), http.MethodPost, "/offers", map[string]string{"a": "b"})
	require.NoError(t, err)

	reqs := srv.Requests(http.MethodPost, offersPath)
	require.Len(t, reqs, 1)
	assert.Equal(t, "bearer token-1", reqs[0].Header.Get("Authorization"))
	assert.Equal(t, "application/json", reqs[0].Header.Get("Content-Type"))
	assert.Equal(t, "application/json", reqs[0].Header.Get("Accept"))
	assert.Contains(t, reqs[0].Header.Get("User-Agent"), "atalogics-go/")
	assert.NotEmpty(t, reqs[0].Header.Get("X-Request-Id"))
	assert.JSONEq(t, `{"a":"b"}`, string(reqs[0].Body))
}

func TestNew_InvalidTokenPair(t *testing.T) {
	srv := atalogicstest.NewServer(t)

	_, err := New(context.Background(), srv.Config(), 3,
		WithHTTPClient(srv.Client()), WithCacheStore(cache.NewMemoryStore(10)), WithToken("abc", ""))

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidTokenPair))
	assert.Zero(t, srv.TokenCalls())
}

func TestNew_MissingCredentials(t *testing.T) {
	srv := atalogicstest.NewServer(t)
	cfg := srv.Config()
	cfg.ClientSecret = ""

	_, err := New(context.Background(), cfg, 3, WithHTTPClient(srv.Client()))

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))
	assert.Contains(t, err.Error(), "missing client secret")
	assert.Zero(t, srv.TokenCalls())
}

func TestNew_PresetToken(t *testing.T) {
	srv := atalogicstest.NewServer(t)
	c, _ := newTestClient(t, srv, WithToken("saved", "Bearer"))

	assert.Equal(t, "saved", c.AccessToken())
	assert.Zero(t, srv.TokenCalls())
}

func TestExecute_CacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	srv := atalogicstest.NewServer(t)
	srv.Handle(http.MethodPost, offersPath, atalogicstest.Reply{Status: 200, Body: `{"offers":[{"id":1}]}`})
	c, store := newTestClient(t, srv)

	first, err := c.Execute(ctx, http.MethodPost, "/offers", nil, WithCacheKey("/offers_k"))
	require.NoError(t, err)
	second, err := c.Execute(ctx, http.MethodPost, "/offers", nil, WithCacheKey("/offers_k"))
	require.NoError(t, err)

	assert.Equal(t, 1, srv.Calls(http.MethodPost, offersPath))
	assert.Equal(t, first.Code, second.Code)
	assert.JSONEq(t, string(first.Body), string(second.Body))

	raw, ok, err := store.Get(ctx, "V3_/offers_k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[200,{"offers":[{"id":1}]}]`, raw)
}

func TestExecute_ExpiredEntryIsRefetchedAndOverwritten(t *testing.T) {
	ctx := context.Background()
	srv := atalogicstest.NewServer(t)
	srv.Handle(http.MethodPost, offersPath, atalogicstest.Reply{Status: 200, Body: `{"new":"response"}`})
	c, store := newTestClient(t, srv)
	require.NoError(t, store.Set(ctx, "V3_/offers_bar", `[200,{"old":true}]`))

	resp, err := c.Execute(ctx, http.MethodPost, "/offers", nil,
		WithCacheKey("/offers_bar"),
		WithExpiry(func(*Response) bool { return true }))
	require.NoError(t, err)

	assert.JSONEq(t, `{"new":"response"}`, string(resp.Body))
	assert.False(t, resp.Cached)
	assert.Equal(t, 1, srv.Calls(http.MethodPost, offersPath))
	raw, _, _ := store.Get(ctx, "V3_/offers_bar")
	assert.Equal(t, `[200,{"new":"response"}]`, raw)
}

func TestExecute_FreshEntrySkipsNetwork(t *testing.T) {
	ctx := context.Background()
	srv := atalogicstest.NewServer(t)
	c, store := newTestClient(t, srv)
	require.NoError(t, store.Set(ctx, "V3_/cities/SALZBURG", `[200,{"key":"SALZBURG"}]`))

	resp, err := c.Execute(ctx, http.MethodGet, "/cities/SALZBURG", nil,
		WithCacheKey("/cities/SALZBURG"),
		WithExpiry(func(*Response) bool { return false }))
	require.NoError(t, err)

	assert.Equal(t, 200, resp.Code)
	assert.True(t, resp.Cached)
	assert.Zero(t, srv.Calls(http.MethodGet, "/api/v3/cities/SALZBURG"))
}

func TestExecute_CorruptEntryIsRefetched(t *testing.T) {
	ctx := context.Background()
	srv := atalogicstest.NewServer(t)
	srv.Handle(http.MethodGet, "/api/v3/cities/SALZBURG", atalogicstest.Reply{Status: 200, Body: `{"key":"SALZBURG"}`})
	c, store := newTestClient(t, srv)
	require.NoError(t, store.Set(ctx, "V3_/cities/SALZBURG", `{"broken":`))

	resp, err := c.Execute(ctx, http.MethodGet, "/cities/SALZBURG", nil, WithCacheKey("/cities/SALZBURG"))
	require.NoError(t, err)

	assert.Equal(t, 200, resp.Code)
	assert.Equal(t, 1, srv.Calls(http.MethodGet, "/api/v3/cities/SALZBURG"))
	raw, _, _ := store.Get(ctx, "V3_/cities/SALZBURG")
	assert.Equal(t, `[200,{"key":"SALZBURG"}]`, raw)
}

func TestExecute_FailedResponsesAreNotCached(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   errors.Code
	}{
		{"bad request", 400, ""},
		{"not found", 404, ""},
		{"server error", 500, errors.ErrCodeAPI},
		{"unexpected", 422, errors.ErrCodeGeneric},
		{"accepted", 202, errors.ErrCodeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			srv := atalogicstest.NewServer(t)
			srv.Handle(http.MethodPost, offersPath, atalogicstest.Reply{Status: tt.status, Body: `{"error":"x"}`})
			c, store := newTestClient(t, srv)

			resp, err := c.Execute(ctx, http.MethodPost, "/offers", nil, WithCacheKey("/offers_k"))
			if tt.code == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.status, resp.Code)
			} else {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.code), "err = %v", err)
				assert.Equal(t, tt.status, errors.Status(err))
			}

			keys, err := store.Keys(ctx, "*")
			require.NoError(t, err)
			assert.Empty(t, keys)
			assert.Equal(t, 1, srv.Calls(http.MethodPost, offersPath), "no retry")
		})
	}
}

func TestExecute_ErrorCarriesRequestContext(t *testing.T) {
	srv := atalogicstest.NewServer(t)
	srv.Handle(http.MethodPost, offersPath, atalogicstest.Reply{Status: 500, Body: `{"error":"boom"}`})
	c, _ := newTestClient(t, srv)

	_, err := c.Execute(context.Background(), http.MethodPost, "/offers", nil)

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.MethodPost, e.Method)
	assert.Equal(t, "/offers", e.Path)
	assert.Equal(t, 500, e.Status)
	assert.Equal(t, `{"error":"boom"}`, string(e.Body))
}

func TestExecute_RefreshesOnceAndRetries(t *testing.T) {
	for _, status := range []int{401, 403} {
		srv := atalogicstest.NewServer(t)
		srv.Handle(http.MethodPost, offersPath,
			atalogicstest.Reply{Status: status, Body: `{"error":"expired"}`},
			atalogicstest.Reply{Status: 200, Body: `{"offers":[]}`},
		)
		c, _ := newTestClient(t, srv)

		var got []string
		c.OnAccessTokenChange(func(token, tokenType string, expiresIn int) {
			got = append(got, token)
			assert.Equal(t, "bearer", tokenType)
			assert.Equal(t, 7200, expiresIn)
		})

		resp, err := c.Execute(context.Background(), http.MethodPost, "/offers", nil)
		require.NoError(t, err)

		assert.Equal(t, 200, resp.Code)
		assert.Equal(t, 2, srv.TokenCalls(), "initial token and one refresh")
		assert.Equal(t, []string{"token-2"}, got, "callback fires on automatic refresh")

		reqs := srv.Requests(http.MethodPost, offersPath)
		require.Len(t, reqs, 2)
		assert.Equal(t, "bearer token-1", reqs[0].Header.Get("Authorization"))
		assert.Equal(t, "bearer token-2", reqs[1].Header.Get("Authorization"))
		assert.Equal(t, reqs[0].Header.Get("X-Request-Id"), reqs[1].Header.Get("X-Request-Id"))
	}
}

func TestExecute_SecondRejectionFails(t *testing.T) {
	srv := atalogicstest.NewServer(t)
	srv.Handle(http.MethodPost, offersPath, atalogicstest.Reply{Status: 401, Body: `{"error":"nope"}`})
	c, store := newTestClient(t, srv)

	_, err := c.Execute(context.Background(), http.MethodPost, "/offers", nil, WithCacheKey("/offers_k"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeAuthenticationFailed))
	assert.Equal(t, 2, srv.Calls(http.MethodPost, offersPath))
	assert.Equal(t, 2, srv.TokenCalls(), "exactly one refresh")
	keys, _ := store.Keys(context.Background(), "*")
	assert.Empty(t, keys)
}

func TestExecute_NoAutoRefresh(t *testing.T) {
	srv := atalogicstest.NewServer(t)
	srv.Handle(http.MethodPost, offersPath, atalogicstest.Reply{Status: 401})
	cfg := srv.Config()
	cfg.AutoRefresh = false
	c, err := New(context.Background(), cfg, 3, WithHTTPClient(srv.Client()), WithCacheStore(cache.NewMemoryStore(10)))
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), http.MethodPost, "/offers", nil)

	assert.True(t, errors.Is(err, errors.ErrCodeAuthenticationFailed))
	assert.Equal(t, 1, srv.Calls(http.MethodPost, offersPath))
	assert.Equal(t, 1, srv.TokenCalls())
}

func TestExecute_RefreshFailureIsReturned(t *testing.T) {
	srv := atalogicstest.NewServer(t)
	srv.Handle(http.MethodPost, offersPath, atalogicstest.Reply{Status: 401})
	c, _ := newTestClient(t, srv)
	srv.FailTokens(atalogicstest.Reply{Status: 500, Body: `{"error":"down"}`})

	_, err := c.Execute(context.Background(), http.MethodPost, "/offers", nil)

	assert.True(t, errors.Is(err, errors.ErrCodeAPI))
	assert.Equal(t, 1, srv.Calls(http.MethodPost, offersPath))
	assert.Equal(t, "token-1", c.AccessToken(), "previous token kept")
}

func TestRefreshAccessToken_InvokesCallback(t *testing.T) {
	srv := atalogicstest.NewServer(t)
	c, _ := newTestClient(t, srv)

	calls := 0
	c.OnAccessTokenChange(func(string, string, int) { calls += 100 })
	c.OnAccessTokenChange(func(token, _ string, _ int) {
		calls++
		assert.Equal(t, "token-2", token)
	})

	token, err := c.RefreshAccessToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "token-2", token)
	assert.Equal(t, 1, calls, "last registered callback wins")
	assert.Equal(t, "token-2", c.AccessToken())
}

func TestExecute_NonJSONBody(t *testing.T) {
	srv := atalogicstest.NewServer(t)
	srv.Handle(http.MethodPost, offersPath, atalogicstest.Reply{Status: 404, Body: "Not Found"})
	c, _ := newTestClient(t, srv)

	resp, err := c.Execute(context.Background(), http.MethodPost, "/offers", nil)
	require.NoError(t, err)

	var s string
	require.NoError(t, resp.Decode(&s))
	assert.Equal(t, "Not Found", s)
}

func TestExecute_EmptyBodyMatchesCachedBody(t *testing.T) {
	ctx := context.Background()
	srv := atalogicstest.NewServer(t)
	srv.Handle(http.MethodPost, offersPath, atalogicstest.Reply{Status: 201})
	c, store := newTestClient(t, srv)

	fresh, err := c.Execute(ctx, http.MethodPost, "/offers", nil, WithCacheKey("/offers_empty"))
	require.NoError(t, err)
	cached, err := c.Execute(ctx, http.MethodPost, "/offers", nil, WithCacheKey("/offers_empty"))
	require.NoError(t, err)

	assert.False(t, fresh.Cached)
	assert.True(t, cached.Cached)
	assert.Equal(t, string(fresh.Body), string(cached.Body))
	assert.Equal(t, "null", string(fresh.Body))

	var v map[string]any
	assert.NoError(t, fresh.Decode(&v))
	assert.NoError(t, cached.Decode(&v))

	raw, _, _ := store.Get(ctx, "V3_/offers_empty")
	assert.Equal(t, `[201,null]`, raw)
}

// cacheCounter counts cache hook events.
type cacheCounter struct {
	observability.NoopCacheHooks
	hits, misses int
}

func (c *cacheCounter) OnCacheHit(context.Context, string)  { c.hits++ }
func (c *cacheCounter) OnCacheMiss(context.Context, string) { c.misses++ }

func TestExecute_EveryNetworkFallthroughIsAMiss(t *testing.T) {
	counter := &cacheCounter{}
	observability.SetCacheHooks(counter)
	t.Cleanup(func() { observability.SetCacheHooks(observability.NoopCacheHooks{}) })

	ctx := context.Background()
	srv := atalogicstest.NewServer(t)
	srv.Handle(http.MethodPost, offersPath, atalogicstest.Reply{Status: 200, Body: `{"offers":[]}`})
	c, store := newTestClient(t, srv)

	// absent
	_, err := c.Execute(ctx, http.MethodPost, "/offers", nil, WithCacheKey("/offers_a"))
	require.NoError(t, err)
	// corrupt
	require.NoError(t, store.Set(ctx, "V3_/offers_b", `{"broken":`))
	_, err = c.Execute(ctx, http.MethodPost, "/offers", nil, WithCacheKey("/offers_b"))
	require.NoError(t, err)
	// expired by predicate
	_, err = c.Execute(ctx, http.MethodPost, "/offers", nil,
		WithCacheKey("/offers_a"),
		WithExpiry(func(*Response) bool { return true }))
	require.NoError(t, err)
	// fresh
	_, err = c.Execute(ctx, http.MethodPost, "/offers", nil, WithCacheKey("/offers_b"))
	require.NoError(t, err)

	assert.Equal(t, 3, srv.Calls(http.MethodPost, offersPath))
	assert.Equal(t, 3, counter.misses)
	assert.Equal(t, 1, counter.hits)
}

func TestResponseDecode(t *testing.T) {
	r := &Response{Code: 200, Body: json.RawMessage(`{"success":true}`)}
	var v struct{ Success bool }
	require.NoError(t, r.Decode(&v))
	assert.True(t, v.Success)
	assert.True(t, r.OK())

	assert.Error(t, (&Response{Code: 200}).Decode(&v))
}

func TestClientNow(t *testing.T) {
	fixed := time.Date(2017, 6, 7, 12, 0, 0, 0, time.UTC)
	srv := atalogicstest.NewServer(t)
	c, _ := newTestClient(t, srv, WithClock(func() time.Time { return fixed }))
	assert.Equal(t, fixed, c.Now())
	assert.Equal(t, 3, c.Version())
}
