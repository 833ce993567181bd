package atalogics

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/atalogics/pkg/auth"
	"github.com/matzehuels/atalogics/pkg/cache"
	"github.com/matzehuels/atalogics/pkg/config"
	"github.com/matzehuels/atalogics/pkg/httputil"
)

// Client is the version-independent part of an API client.
type Client struct {
	cfg        config.Config
	version    int
	auth       *auth.Authenticator
	dispatcher *Dispatcher
	cache      *cache.Layer
	logger     *log.Logger
	now        func() time.Time

	mu       sync.Mutex
	onChange TokenCallback
}

// New validates cfg, opens the configured cache store and obtains a token
// (unless one is preset with [WithToken]).
func New(ctx context.Context, cfg config.Config, version int, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}
	if o.doer == nil {
		o.doer = httputil.NewHTTPClient(cfg.Timeout())
	}
	if o.store == nil {
		store, err := cache.NewFromConfig(ctx, cfg.Cache, o.logger)
		if err != nil {
			return nil, err
		}
		o.store = store
	}

	c := &Client{
		cfg:     cfg,
		version: version,
		cache:   cache.NewLayer(o.store, cache.WithLogger(o.logger)).Namespace(fmt.Sprintf("V%d_", version)),
		logger:  o.logger,
		now:     o.now,
	}
	c.auth = auth.New(cfg, o.doer, auth.WithLogger(o.logger), auth.WithRefreshHook(c.notify))
	c.dispatcher = &Dispatcher{
		cfg:         cfg,
		version:     version,
		doer:        o.doer,
		auth:        c.auth,
		cache:       c.cache,
		autoRefresh: cfg.AutoRefresh,
		logger:      o.logger,
		refresh: func(ctx context.Context) error {
			_, err := c.RefreshAccessToken(ctx)
			return err
		},
	}

	if err := c.auth.Initialize(ctx, o.token, o.tokenType); err != nil {
		_ = o.store.Close()
		return nil, err
	}
	return c, nil
}

// Execute sends a request through the client's dispatcher.
func (c *Client) Execute(ctx context.Context, method, path string, body any, opts ...CallOption) (*Response, error) {
	return c.dispatcher.Execute(ctx, method, path, body, opts...)
}

// RefreshAccessToken fetches a new token and returns the access token.
// The registered callback runs once per new token, however many callers
// shared the refresh.
func (c *Client) RefreshAccessToken(ctx context.Context) (string, error) {
	tok, err := c.auth.RefreshToken(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

func (c *Client) notify(tok *auth.Token) {
	c.mu.Lock()
	cb := c.onChange
	c.mu.Unlock()
	if cb != nil {
		cb(tok.AccessToken, tok.TokenType, tok.ExpiresIn)
	}
}

// OnAccessTokenChange registers cb to run after every token refresh,
// including automatic ones. Only one callback is kept; the last wins.
func (c *Client) OnAccessTokenChange(cb TokenCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = cb
}

// AccessToken returns the current access token.
func (c *Client) AccessToken() string {
	if t := c.auth.Token(); t != nil {
		return t.AccessToken
	}
	return ""
}

// TokenType returns the current token type.
func (c *Client) TokenType() string {
	if t := c.auth.Token(); t != nil {
		return t.TokenType
	}
	return ""
}

// Token returns the current token, or nil.
func (c *Client) Token() *auth.Token { return c.auth.Token() }

// State reports whether the client holds a token.
func (c *Client) State() auth.State { return c.auth.State() }

// Version returns the API version this client talks to.
func (c *Client) Version() int { return c.version }

// Cache returns the client's namespaced cache layer.
func (c *Client) Cache() *cache.Layer { return c.cache }

// Logger returns the client's logger.
func (c *Client) Logger() *log.Logger { return c.logger }

// Now returns the current time as seen by expiry predicates.
func (c *Client) Now() time.Time { return c.now() }

// Close releases the cache store.
func (c *Client) Close() error {
	return c.cache.Close()
}
