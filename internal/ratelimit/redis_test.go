package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisLimiter(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	l := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	key := "POST /api/auth/register|10.0.0.2"

	first := l.Allow(key, 2)
	if !first.Allowed || first.Remaining != 1 {
		t.Fatalf("unexpected first decision: %+v", first)
	}
	second := l.Allow(key, 2)
	if !second.Allowed || second.Remaining != 0 {
		t.Fatalf("unexpected second decision: %+v", second)
	}
	third := l.Allow(key, 2)
	if third.Allowed {
		t.Fatalf("third call must be denied: %+v", third)
	}

	mr.FastForward(2 * time.Minute)
	reset := l.Allow(key, 2)
	if !reset.Allowed || reset.Remaining != 1 {
		t.Fatalf("expected a fresh window after expiry, got %+v", reset)
	}
}

func TestRedisLimiterFallsBack(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close() // redis now unreachable

	l := NewRedis(client, time.Minute)
	if d := l.Allow("k", 1); !d.Allowed {
		t.Fatalf("first call should fall back to memory and pass: %+v", d)
	}
	if d := l.Allow("k", 1); d.Allowed {
		t.Fatalf("fallback must still count: %+v", d)
	}
}

func TestRedisLimiterNilClient(t *testing.T) {
	l := NewRedis(nil, time.Minute)
	if d := l.Allow("k", 1); !d.Allowed {
		t.Fatalf("nil client should use the fallback: %+v", d)
	}
}
