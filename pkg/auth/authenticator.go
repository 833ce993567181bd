// Package auth implements the OAuth2 client-credentials flow of the
// ATALOGICS API.
//
// An [Authenticator] obtains a token from {base}/oauth/token, keeps it in a
// [TokenStore] and renders the Authorization header for every request.
// Tokens are only replaced when the server rejects one; the advertised
// expires_in is kept for callers but never acted upon.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/atalogics/pkg/buildinfo"
	"github.com/matzehuels/atalogics/pkg/config"
	"github.com/matzehuels/atalogics/pkg/errors"
	"github.com/matzehuels/atalogics/pkg/httputil"
	"github.com/matzehuels/atalogics/pkg/observability"
)

const grantType = "client_credentials"

// Authenticator manages the access token of one set of credentials.
type Authenticator struct {
	cfg    config.Config
	doer   httputil.Doer
	store  TokenStore
	group  singleflight.Group
	logger *log.Logger
	now    func() time.Time

	onRefresh func(*Token)
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithLogger sets the logger for token lifecycle messages.
func WithLogger(logger *log.Logger) Option {
	return func(a *Authenticator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithClock overrides the time source used for IssuedAt.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

// WithRefreshHook sets fn to run once per installed token, after the swap.
// Callers that share a refresh do not run it again.
func WithRefreshHook(fn func(*Token)) Option {
	return func(a *Authenticator) { a.onRefresh = fn }
}

// New creates an Authenticator. A nil doer uses an HTTP client with the
// configured timeout.
func New(cfg config.Config, doer httputil.Doer, opts ...Option) *Authenticator {
	if doer == nil {
		doer = httputil.NewHTTPClient(cfg.Timeout())
	}
	a := &Authenticator{
		cfg:    cfg,
		doer:   doer,
		logger: log.New(io.Discard),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Initialize installs a preset token pair, or fetches a token when none is
// given. Supplying only one half of the pair fails without network access.
func (a *Authenticator) Initialize(ctx context.Context, token, tokenType string) error {
	if err := errors.ValidateTokenPair(token, tokenType); err != nil {
		return err
	}
	if token != "" {
		a.store.Swap(&Token{AccessToken: token, TokenType: tokenType, IssuedAt: a.now()})
		a.logger.Debug("using preset access token", "type", tokenType)
		return nil
	}
	_, err := a.RefreshToken(ctx)
	return err
}

// Refresh fetches a new token and returns its access token.
func (a *Authenticator) Refresh(ctx context.Context) (string, error) {
	tok, err := a.RefreshToken(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// RefreshToken fetches a new token and installs it. Concurrent calls share
// one round trip. On failure the previous token stays in place.
//
// The shared round trip is bounded by the configured timeout, not by the
// context of the caller that started it: a caller whose ctx ends returns
// early while the others keep waiting.
func (a *Authenticator) RefreshToken(ctx context.Context) (*Token, error) {
	ch := a.group.DoChan("refresh", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Timeout())
		defer cancel()
		return a.refresh(rctx)
	})

	select {
	case <-ctx.Done():
		return nil, errors.Wrap(errors.ErrCodeNetwork, ctx.Err(), "token request")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Token), nil
	}
}

// tokenRequest is the client-credentials grant body.
type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	GrantType    string `json:"grant_type"`
}

func (a *Authenticator) refresh(ctx context.Context) (tok *Token, err error) {
	start := time.Now()
	defer func() {
		observability.Auth().OnTokenRefresh(ctx, time.Since(start), err)
	}()

	if err := errors.ValidateCredentials(a.cfg.ClientID, a.cfg.ClientSecret); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(tokenRequest{
		ClientID:     a.cfg.ClientID,
		ClientSecret: a.cfg.ClientSecret,
		GrantType:    grantType,
	})
	if err != nil {
		return nil, err
	}

	// The URL is derived per call so a sandbox switch takes effect at once.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.TokenURL(), bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "build token request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	resp, err := a.doer.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "token request")
	}
	body, err := httputil.ReadBody(resp)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "token response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.FromResponse(errors.ErrCodeAuthenticationFailed, http.MethodPost, config.TokenPath, resp.StatusCode, body)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, errors.FromResponse(errors.ErrCodeAPI, http.MethodPost, config.TokenPath, resp.StatusCode, body)
	}

	var t Token
	if err := json.Unmarshal(body, &t); err != nil {
		return nil, errors.Wrap(errors.ErrCodeAPI, err, "decode token response")
	}
	if t.AccessToken == "" {
		return nil, errors.New(errors.ErrCodeAPI, "token response has no access_token")
	}
	t.IssuedAt = a.now()

	a.store.Swap(&t)
	a.logger.Debug("access token refreshed", "type", t.TokenType, "expires_in", t.ExpiresIn)
	if a.onRefresh != nil {
		a.onRefresh(&t)
	}
	return &t, nil
}

// Token returns the current token, or nil before initialization.
func (a *Authenticator) Token() *Token {
	return a.store.Load()
}

// Header returns the Authorization header value, or "" without a token.
func (a *Authenticator) Header() string {
	if t := a.store.Load(); t != nil {
		return t.Header()
	}
	return ""
}

// State reports whether a token is held.
func (a *Authenticator) State() State {
	if a.store.Load() != nil {
		return StateAuthenticated
	}
	return StateUnauthenticated
}
