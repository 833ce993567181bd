package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/atalogics/pkg/observability"
)

// DefaultTTL is the lifetime of a cached response unless the caller asks
// for another.
const DefaultTTL = 24 * time.Hour

// Entry is a cached HTTP response: the status code and the JSON body.
type Entry struct {
	Code int
	Body json.RawMessage
}

// ExpiryFunc reports whether a cached entry is stale even though the store
// still holds it, typically because a date inside the body has passed.
type ExpiryFunc func(Entry) bool

// Layer is a read-through cache of API responses over a [Store].
type Layer struct {
	store  Store
	prefix string
	logger *log.Logger
}

// LayerOption configures a Layer.
type LayerOption func(*Layer)

// WithLogger sets the logger used for cache diagnostics.
func WithLogger(logger *log.Logger) LayerOption {
	return func(l *Layer) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLayer creates a cache layer over store. A nil store disables caching.
func NewLayer(store Store, opts ...LayerOption) *Layer {
	if store == nil {
		store = NewNullStore()
	}
	l := &Layer{store: store, logger: discardLogger()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Namespace returns a layer over the same store whose keys are prefixed
// with prefix. Namespaces nest: Namespace("a").Namespace("b") prefixes "ab".
func (l *Layer) Namespace(prefix string) *Layer {
	return &Layer{store: l.store, prefix: l.prefix + prefix, logger: l.logger}
}

// Enabled reports whether responses are stored at all.
func (l *Layer) Enabled() bool {
	_, null := l.store.(*NullStore)
	return !null
}

// Store returns the underlying store.
func (l *Layer) Store() Store { return l.store }

// Key returns the store key for key in this namespace.
func (l *Layer) Key(key string) string { return l.prefix + key }

// Get looks key up. A missing key is a miss with a nil error. A payload
// that is not a [code, body] pair returns an error wrapping [ErrCorrupted].
func (l *Layer) Get(ctx context.Context, key string) (Entry, bool, error) {
	full := l.Key(key)
	raw, ok, err := l.store.Get(ctx, full)
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache get %q: %w", full, err)
	}
	if !ok || raw == "" {
		return Entry{}, false, nil
	}

	entry, err := decodeEntry(raw)
	if err != nil {
		return Entry{}, false, corrupted(full, err)
	}
	return entry, true, nil
}

// Put stores a response under key for ttl (DefaultTTL when ttl <= 0).
// Only 2xx and 3xx responses are stored; anything else is ignored.
func (l *Layer) Put(ctx context.Context, key string, code int, body json.RawMessage, ttl time.Duration) error {
	if !l.Enabled() || !Cacheable(code) {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	raw, err := encodeEntry(code, body)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	full := l.Key(key)
	if err := l.store.Set(ctx, full, raw); err != nil {
		return fmt.Errorf("cache set %q: %w", full, err)
	}
	if err := l.store.Expire(ctx, full, ttl); err != nil {
		return fmt.Errorf("cache expire %q: %w", full, err)
	}
	l.logger.Debug("cache stored", "key", full, "status", code, "ttl", ttl)
	observability.Cache().OnCacheSet(ctx, l.Name(), len(raw))
	return nil
}

// IsExpired applies pred to entry. A nil predicate never expires.
func (l *Layer) IsExpired(entry Entry, pred ExpiryFunc) bool {
	return pred != nil && pred(entry)
}

// Keys lists keys in this namespace matching pattern. Returned keys carry
// the namespace prefix.
func (l *Layer) Keys(ctx context.Context, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	return l.store.Keys(ctx, l.prefix+pattern)
}

// Close closes the underlying store.
func (l *Layer) Close() error {
	return l.store.Close()
}

// Name is the namespace reported to cache hooks: the prefix without its
// trailing underscore, or "default".
func (l *Layer) Name() string {
	if l.prefix == "" {
		return "default"
	}
	return strings.TrimSuffix(l.prefix, "_")
}

// Cacheable reports whether a response with the given status may be stored:
// its decimal form must begin with '2' or '3'.
func Cacheable(code int) bool {
	s := strconv.Itoa(code)
	return s[0] == '2' || s[0] == '3'
}

func encodeEntry(code int, body json.RawMessage) (string, error) {
	if len(body) == 0 {
		body = json.RawMessage("null")
	}
	data, err := json.Marshal([]any{code, body})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeEntry(raw string) (Entry, error) {
	var pair []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &pair); err != nil {
		return Entry{}, err
	}
	if len(pair) != 2 {
		return Entry{}, fmt.Errorf("want 2 elements, got %d", len(pair))
	}
	var code int
	if err := json.Unmarshal(pair[0], &code); err != nil {
		return Entry{}, fmt.Errorf("status code: %w", err)
	}
	if code < 100 || code > 999 {
		return Entry{}, fmt.Errorf("status code %d out of range", code)
	}
	return Entry{Code: code, Body: pair[1]}, nil
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}
