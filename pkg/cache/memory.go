package cache

import (
	"context"
	"time"

	"github.com/maypok86/otter/v2"
)

// persistent is the otter lifetime of a key that has no expiry yet.
const persistent = 100 * 365 * 24 * time.Hour

// memoryEntry carries its own deadline so Get never serves a value past
// Expire, independent of when otter evicts it.
type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore is an in-process store backed by otter. It is bounded by
// entry count and suits single-process use and tests.
type MemoryStore struct {
	cache *otter.Cache[string, memoryEntry]
}

// NewMemoryStore creates a memory store holding at most maxSize entries.
func NewMemoryStore(maxSize int) *MemoryStore {
	cache := otter.Must(&otter.Options[string, memoryEntry]{
		MaximumSize:      maxSize,
		ExpiryCalculator: otter.ExpiryWriting[string, memoryEntry](persistent),
	})
	return &MemoryStore{cache: cache}
}

// Get retrieves a value from the store.
func (m *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	entry, ok := m.cache.GetIfPresent(key)
	if !ok {
		return "", false, nil
	}
	if entry.expired(time.Now()) {
		m.cache.Invalidate(key)
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set stores a value without expiry.
func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	m.cache.Set(key, memoryEntry{value: value})
	return nil
}

// Expire sets the expiry of an existing key. Missing keys are ignored.
func (m *MemoryStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	entry, ok := m.cache.GetIfPresent(key)
	if !ok {
		return nil
	}
	entry.expiresAt = time.Now().Add(ttl)
	m.cache.Set(key, entry)
	m.cache.SetExpiresAfter(key, ttl)
	return nil
}

// Keys lists live keys matching pattern.
func (m *MemoryStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	re := globRegexp(pattern)
	now := time.Now()
	var keys []string
	for key, entry := range m.cache.All() {
		if !entry.expired(now) && re.MatchString(key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Close drops every entry.
func (m *MemoryStore) Close() error {
	m.cache.InvalidateAll()
	return nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
