package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newLimiter(t *testing.T, limit int, window time.Duration) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewLimiter(client, "register", limit, window), mr
}

func TestLimiterAllowsUpToLimit(t *testing.T) {
	l, _ := newLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ok, err := l.Allow(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !ok {
			t.Fatalf("request %d rejected, want allowed", i)
		}
	}
	ok, err := l.Allow(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Fatal("request over the limit allowed")
	}

	// other clients have their own window
	if ok, _ := l.Allow(ctx, "10.0.0.2"); !ok {
		t.Fatal("different key rejected")
	}
}

func TestLimiterWindowExpires(t *testing.T) {
	l, mr := newLimiter(t, 1, time.Minute)
	ctx := context.Background()

	if ok, _ := l.Allow(ctx, "ip"); !ok {
		t.Fatal("first request rejected")
	}
	if ok, _ := l.Allow(ctx, "ip"); ok {
		t.Fatal("second request allowed inside window")
	}

	mr.FastForward(time.Minute + time.Second)

	if ok, _ := l.Allow(ctx, "ip"); !ok {
		t.Fatal("request rejected after window expired")
	}
}

func TestLimiterRedisDown(t *testing.T) {
	l, mr := newLimiter(t, 1, time.Minute)
	mr.Close()

	if _, err := l.Allow(context.Background(), "ip"); err == nil {
		t.Fatal("expected error when redis is unreachable")
	}
}
