package atalogics

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/atalogics/pkg/cache"
	"github.com/matzehuels/atalogics/pkg/httputil"
)

// CallOption configures a single [Dispatcher.Execute] call.
type CallOption func(*callOptions)

type callOptions struct {
	cacheKey string
	expired  func(*Response) bool
	ttl      time.Duration
}

// WithCacheKey makes the call cacheable under key (before namespacing).
func WithCacheKey(key string) CallOption {
	return func(o *callOptions) { o.cacheKey = key }
}

// WithExpiry sets a predicate that marks a cached response stale.
func WithExpiry(expired func(*Response) bool) CallOption {
	return func(o *callOptions) { o.expired = expired }
}

// WithTTL sets how long a stored response lives. Default is cache.DefaultTTL.
func WithTTL(ttl time.Duration) CallOption {
	return func(o *callOptions) { o.ttl = ttl }
}

// TokenCallback receives a token after every refresh.
type TokenCallback func(token, tokenType string, expiresIn int)

// Option configures a [Client].
type Option func(*options)

type options struct {
	doer      httputil.Doer
	store     cache.Store
	logger    *log.Logger
	token     string
	tokenType string
	now       func() time.Time
}

// WithHTTPClient sets the HTTP transport. Default is an http.Client with
// the configured timeout.
func WithHTTPClient(doer httputil.Doer) Option {
	return func(o *options) { o.doer = doer }
}

// WithCacheStore sets the response cache store, overriding the one
// described by the configuration.
func WithCacheStore(store cache.Store) Option {
	return func(o *options) { o.store = store }
}

// WithLogger sets the logger. Default discards.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithToken presets the access token pair, skipping the initial refresh.
// Both values must be set, or neither.
func WithToken(token, tokenType string) Option {
	return func(o *options) {
		o.token = token
		o.tokenType = tokenType
	}
}

// WithClock overrides the time source used by expiry predicates.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}
