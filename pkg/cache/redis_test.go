package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore(t *testing.T) {
	s, _ := newTestRedis(t)
	storeContract(t, s)
}

func TestRedisStoreExpire(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedis(t)

	_ = s.Set(ctx, "k", "v")
	if err := s.Expire(ctx, "k", time.Hour); err != nil {
		t.Fatalf("Expire error: %v", err)
	}
	if ttl := mr.TTL("k"); ttl != time.Hour {
		t.Errorf("TTL = %v, want 1h", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if _, hit, _ := s.Get(ctx, "k"); hit {
		t.Error("entry should be gone after its ttl")
	}
}

func TestRedisStoreSetClearsTTL(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedis(t)

	_ = s.Set(ctx, "k", "v")
	_ = s.Expire(ctx, "k", time.Minute)
	_ = s.Set(ctx, "k", "w")

	ttl, err := s.TTL(ctx, "k")
	if err != nil {
		t.Fatalf("TTL error: %v", err)
	}
	if ttl > 0 {
		t.Errorf("TTL after Set = %v, want none", ttl)
	}
}

func TestNewRedisStoreBadURL(t *testing.T) {
	if _, err := NewRedisStore(context.Background(), "not a url"); err == nil {
		t.Error("expected error for invalid url")
	}
}

func TestNewRedisStoreURL(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore error: %v", err)
	}
	defer s.Close()
	storeContract(t, s)
}
