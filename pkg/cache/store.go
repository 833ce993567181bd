// Package cache provides the response cache of the atalogics clients.
//
// A [Store] is the external key/value service holding cached responses
// (Redis, MongoDB, a local directory, or process memory). A [Layer] sits on
// top of a store and knows the wire format of a cached response, the rule
// that only 2xx/3xx responses are cached, and per-version key namespaces.
//
// Absence of a store is not an error: a [NullStore] silently disables
// caching.
package cache

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// Store is a string key/value store with per-key expiry.
//
// The method set mirrors the Redis commands the client needs: Set stores a
// value without expiry, Expire attaches one afterwards. Keys takes a glob
// pattern where '*' matches any run of characters and '?' one character;
// an empty pattern matches every key.
type Store interface {
	// Get returns the value for key. A missing key is ("", false, nil).
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, clearing any previous expiry.
	Set(ctx context.Context, key, value string) error

	// Expire removes key once ttl has elapsed.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Keys lists live keys matching pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Close releases resources held by the store.
	Close() error
}

// globRegexp converts a Keys pattern into an anchored regular expression.
func globRegexp(pattern string) *regexp.Regexp {
	if pattern == "" {
		pattern = "*"
	}
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
