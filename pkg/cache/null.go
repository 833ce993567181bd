package cache

import (
	"context"
	"time"
)

// NullStore is a no-op store that never stores anything.
// A Layer over a NullStore is disabled.
type NullStore struct{}

// NewNullStore creates a null store.
func NewNullStore() Store {
	return &NullStore{}
}

// Get always returns a miss.
func (s *NullStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, nil
}

// Set does nothing.
func (s *NullStore) Set(ctx context.Context, key, value string) error {
	return nil
}

// Expire does nothing.
func (s *NullStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}

// Keys always returns no keys.
func (s *NullStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	return nil, nil
}

// Close does nothing.
func (s *NullStore) Close() error {
	return nil
}

// Ensure NullStore implements Store.
var _ Store = (*NullStore)(nil)
