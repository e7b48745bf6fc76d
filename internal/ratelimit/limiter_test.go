package ratelimit

import (
	"testing"
	"time"
)

func TestMemoryLimiter(t *testing.T) {
	l := NewMemory(50 * time.Millisecond)
	key := "POST /api/auth/login|10.0.0.1"

	first := l.Allow(key, 2)
	if !first.Allowed || first.Remaining != 1 {
		t.Fatalf("unexpected first decision: %+v", first)
	}
	second := l.Allow(key, 2)
	if !second.Allowed || second.Remaining != 0 {
		t.Fatalf("unexpected second decision: %+v", second)
	}
	third := l.Allow(key, 2)
	if third.Allowed || third.Remaining != 0 {
		t.Fatalf("third call must be denied: %+v", third)
	}

	time.Sleep(70 * time.Millisecond)
	reset := l.Allow(key, 2)
	if !reset.Allowed || reset.Remaining != 1 {
		t.Fatalf("expected a fresh window, got %+v", reset)
	}
}

func TestMemoryLimiterKeysIsolated(t *testing.T) {
	l := NewMemory(time.Minute)
	l.Allow("a", 1)
	if d := l.Allow("a", 1); d.Allowed {
		t.Fatalf("key a should be exhausted: %+v", d)
	}
	if d := l.Allow("b", 1); !d.Allowed {
		t.Fatalf("key b should be untouched: %+v", d)
	}
}

func TestMemoryLimiterLimitFloor(t *testing.T) {
	l := NewMemory(time.Minute)
	if d := l.Allow("k", 0); !d.Allowed {
		t.Fatalf("limit <= 0 should floor to 1, got %+v", d)
	}
	if d := l.Allow("k", 0); d.Allowed {
		t.Fatalf("second call under floored limit must be denied, got %+v", d)
	}
}
