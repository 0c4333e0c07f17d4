package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T, opts ...RedisOption) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	c := NewRedisCacheFromClient(backend.NewClient(&backend.Options{Addr: mr.Addr()}), opts...)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t, WithPrefix("test:"))

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	if _, hit, err := c.Get(ctx, "layout:abc"); err != nil || hit {
		t.Fatalf("Get on empty cache = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "layout:abc", []byte("doc"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !mr.Exists("test:layout:abc") {
		t.Error("key should be stored with the configured prefix")
	}

	data, hit, err := c.Get(ctx, "layout:abc")
	if err != nil || !hit || string(data) != "doc" {
		t.Fatalf("Get = %q, %v, %v; want doc, true, nil", data, hit, err)
	}

	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "layout:abc"); hit {
		t.Error("entry still present after Delete")
	}
}

func TestRedisCacheTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t, WithTTL(time.Hour))

	if err := c.Set(ctx, "a", []byte("1"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := mr.TTL("noderelax:a"); got != time.Hour {
		t.Errorf("default TTL = %v, want 1h", got)
	}

	if err := c.Set(ctx, "b", []byte("2"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "b"); hit {
		t.Error("expired entry should be a miss")
	}
	if _, hit, _ := c.Get(ctx, "a"); !hit {
		t.Error("entry with default TTL expired too early")
	}
}

func TestRedisCacheUnavailable(t *testing.T) {
	defer func(d time.Duration) { retryDelay = d }(retryDelay)
	retryDelay = time.Millisecond

	ctx := context.Background()
	c, mr := newTestRedis(t)
	mr.Close()

	if err := c.Ping(ctx); err == nil {
		t.Error("Ping should fail after the server is gone")
	}
	if _, _, err := c.Get(ctx, "a"); err == nil {
		t.Error("Get should fail after the server is gone")
	}
}
