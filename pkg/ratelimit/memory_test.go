package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)}
}

func mustAllow(t *testing.T, l Limiter, key string) bool {
	t.Helper()
	ok, err := l.Allow(context.Background(), key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return ok
}

func TestMemoryLimiter_Quota(t *testing.T) {
	clock := newClock()
	l := NewMemoryLimiter(MemoryConfig{Limit: 5, Window: time.Minute, Now: clock.Now})

	for i := 0; i < 5; i++ {
		if !mustAllow(t, l, "respond:1.2.3.4:tok") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if mustAllow(t, l, "respond:1.2.3.4:tok") {
		t.Fatal("sixth request within the window should be rejected")
	}
	if !mustAllow(t, l, "respond:5.6.7.8:tok") {
		t.Fatal("other keys must not share the quota")
	}
}

func TestMemoryLimiter_SlidingWindow(t *testing.T) {
	clock := newClock()
	l := NewMemoryLimiter(MemoryConfig{Limit: 2, Window: time.Minute, Now: clock.Now})

	mustAllow(t, l, "k")
	clock.Advance(30 * time.Second)
	mustAllow(t, l, "k")
	if mustAllow(t, l, "k") {
		t.Fatal("expected rejection at quota")
	}

	clock.Advance(31 * time.Second)
	if !mustAllow(t, l, "k") {
		t.Fatal("first hit should have slid out of the window")
	}
	if mustAllow(t, l, "k") {
		t.Fatal("second hit is still inside the window")
	}
}

func TestMemoryLimiter_CapacityEvictsOldest(t *testing.T) {
	clock := newClock()
	l := NewMemoryLimiter(MemoryConfig{Limit: 1, Window: time.Hour, Capacity: 3, CleanupThreshold: 100, Now: clock.Now})

	for i := 0; i < 3; i++ {
		mustAllow(t, l, fmt.Sprintf("k%d", i))
		clock.Advance(time.Second)
	}
	mustAllow(t, l, "k3")

	if l.Len() != 3 {
		t.Fatalf("expected 3 tracked keys, got %d", l.Len())
	}
	if !mustAllow(t, l, "k0") {
		t.Fatal("k0 was evicted and should start a fresh window")
	}
	if mustAllow(t, l, "k2") {
		t.Fatal("k2 should still be tracked and at quota")
	}
}

func TestMemoryLimiter_CleanupPastThreshold(t *testing.T) {
	clock := newClock()
	l := NewMemoryLimiter(MemoryConfig{Limit: 1, Window: time.Minute, CleanupThreshold: 2, Now: clock.Now})

	for i := 0; i < 3; i++ {
		mustAllow(t, l, fmt.Sprintf("old%d", i))
	}
	clock.Advance(2 * time.Minute)
	mustAllow(t, l, "fresh")

	if l.Len() != 1 {
		t.Fatalf("expected expired keys to be swept, %d remain", l.Len())
	}
}

func TestMemoryLimiter_ZeroLimitAllows(t *testing.T) {
	l := NewMemoryLimiter(MemoryConfig{})
	for i := 0; i < 100; i++ {
		if !mustAllow(t, l, "k") {
			t.Fatal("a zero limit disables limiting")
		}
	}
}

func TestMemoryLimiter_Concurrent(t *testing.T) {
	l := NewMemoryLimiter(MemoryConfig{Limit: 50, Window: time.Minute})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := l.Allow(context.Background(), "shared")
			if ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("expected exactly 50 allowed, got %d", allowed)
	}
}
