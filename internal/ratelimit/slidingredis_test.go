package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiter(t *testing.T) (Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Limiter{Client: client, Prefix: "ratelimit:login:"}, mr
}

func TestLimiterSlidingWindow(t *testing.T) {
	limiter, mr := newLimiter(t)

	ctx := context.Background()
	window := 2 * time.Second
	max := 2

	for i := 0; i < max; i++ {
		allowed, remaining, _, err := limiter.Allow(ctx, "10.0.0.7", window, max)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !allowed {
			t.Fatalf("login attempt %d should pass", i+1)
		}
		if remaining != max-(i+1) {
			t.Fatalf("unexpected remaining after attempt %d: %d", i+1, remaining)
		}
	}

	allowed, remaining, _, err := limiter.Allow(ctx, "10.0.0.7", window, max)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if allowed {
		t.Fatal("attempt over the limit should be rejected")
	}
	if remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", remaining)
	}

	// Entries fall out of the window and capacity comes back.
	mr.FastForward(window)

	allowed, _, _, err = limiter.Allow(ctx, "10.0.0.7", window, max)
	if err != nil {
		t.Fatalf("allow after window: %v", err)
	}
	if !allowed {
		t.Fatal("attempt after the window elapsed should pass")
	}
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	limiter, _ := newLimiter(t)
	ctx := context.Background()

	allowed, _, _, err := limiter.Allow(ctx, "10.0.0.1", time.Second, 1)
	if err != nil || !allowed {
		t.Fatalf("first ip should pass: allowed=%v err=%v", allowed, err)
	}
	allowed, _, _, err = limiter.Allow(ctx, "10.0.0.2", time.Second, 1)
	if err != nil || !allowed {
		t.Fatalf("second ip should not share the first ip's window: allowed=%v err=%v", allowed, err)
	}
}

func TestLimiterNilClientDisabled(t *testing.T) {
	var limiter Limiter

	allowed, _, _, err := limiter.Allow(context.Background(), "10.0.0.1", time.Second, 1)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !allowed {
		t.Fatal("limiter without a client must not block anything")
	}
}
