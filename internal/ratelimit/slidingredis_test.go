package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSlidingWindowAllow(t *testing.T) {
	mr, client := newTestRedis(t)
	limiter := SlidingWindow{Client: client, Prefix: "test:"}

	ctx := context.Background()
	window := 2 * time.Second
	max := 2

	for i := 0; i < max; i++ {
		d, err := limiter.Allow(ctx, "key", window, max)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !d.Allowed {
			t.Fatalf("expected request %d to be allowed", i)
		}
		if d.Remaining != max-(i+1) {
			t.Fatalf("unexpected remaining: %d", d.Remaining)
		}
	}

	d, err := limiter.Allow(ctx, "key", window, max)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if d.Allowed {
		t.Fatal("expected third request to be rejected")
	}
	if d.Remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", d.Remaining)
	}
	if d.ResetAt.After(time.Now().Add(window)) {
		t.Fatalf("reset should be bounded by the window, got %v", d.ResetAt)
	}

	mr.FastForward(window)

	d, err = limiter.Allow(ctx, "key", window, max)
	if err != nil {
		t.Fatalf("allow after window: %v", err)
	}
	if !d.Allowed {
		t.Fatal("expected request after window to be allowed")
	}
}

func TestSlidingWindowKeysAreIndependent(t *testing.T) {
	_, client := newTestRedis(t)
	limiter := SlidingWindow{Client: client, Prefix: "test:"}
	ctx := context.Background()

	if d, _ := limiter.Allow(ctx, "a", time.Minute, 1); !d.Allowed {
		t.Fatal("expected first a allowed")
	}
	if d, _ := limiter.Allow(ctx, "b", time.Minute, 1); !d.Allowed {
		t.Fatal("expected first b allowed")
	}
	if d, _ := limiter.Allow(ctx, "a", time.Minute, 1); d.Allowed {
		t.Fatal("expected second a rejected")
	}
}

func TestFixedWindowAllow(t *testing.T) {
	_, client := newTestRedis(t)
	limiter, err := NewFixedWindow(client, "fixed")
	if err != nil {
		t.Fatalf("new fixed window: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := limiter.Allow(ctx, "key", time.Minute, 3)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !d.Allowed {
			t.Fatalf("expected request %d allowed", i)
		}
	}
	d, err := limiter.Allow(ctx, "key", time.Minute, 3)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if d.Allowed || d.Remaining != 0 {
		t.Fatalf("expected fourth request rejected, got %+v", d)
	}
}
