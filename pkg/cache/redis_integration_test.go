//go:build integration

package cache

import (
	"bytes"
	"context"
	"testing"
	"time"
)

// These tests need a reachable Redis at localhost:6379, for example:
//
//	docker run --rm -p 6379:6379 redis:7

func newIntegrationRedis(t *testing.T, ctx context.Context) *RedisCache {
	t.Helper()
	c, err := NewRedisCache(ctx, RedisConfig{Addr: "localhost:6379"})
	if err != nil {
		t.Fatalf("NewRedisCache() error: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRedisCache_Integration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := newIntegrationRedis(t, ctx)
	key := "vuru:test:" + time.Now().Format("150405.000000")
	defer c.Delete(ctx, key)

	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v; want clean miss", ok, err)
	}

	want := []byte(`{"hello":"redis"}`)
	if err := c.Set(ctx, key, want, time.Minute); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	got, ok, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !ok {
		t.Fatal("Get() reported a miss after Set")
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Get() = %q, want %q", got, want)
	}

	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, ok, _ := c.Get(ctx, key); ok {
		t.Error("Get() after Delete still hits")
	}
}

func TestRedisCache_Expiry_Integration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := newIntegrationRedis(t, ctx)
	key := "vuru:test:expiry:" + time.Now().Format("150405.000000")

	if err := c.Set(ctx, key, []byte("x"), 50*time.Millisecond); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Errorf("Get(expired) = ok %v, err %v; want clean miss", ok, err)
	}
}
