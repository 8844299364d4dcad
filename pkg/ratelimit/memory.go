package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultCapacity         = 10000
	DefaultCleanupThreshold = 1000
)

type MemoryConfig struct {
	Limit  int
	Window time.Duration
	// Capacity bounds the number of tracked keys. When full, the key seen
	// least recently is evicted.
	Capacity int
	// CleanupThreshold is the key count above which a call sweeps expired
	// keys before recording itself.
	CleanupThreshold int
	Now              func() time.Time
}

type entry struct {
	hits     []time.Time
	lastSeen time.Time
}

// MemoryLimiter is a sliding-window limiter held in process memory. It owns
// no goroutines; expired keys are swept on the request path once the map
// grows past the cleanup threshold.
type MemoryLimiter struct {
	mu               sync.Mutex
	entries          map[string]*entry
	limit            int
	window           time.Duration
	capacity         int
	cleanupThreshold int
	now              func() time.Time
}

func NewMemoryLimiter(cfg MemoryConfig) *MemoryLimiter {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.CleanupThreshold <= 0 {
		cfg.CleanupThreshold = DefaultCleanupThreshold
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &MemoryLimiter{
		entries:          make(map[string]*entry),
		limit:            cfg.Limit,
		window:           cfg.Window,
		capacity:         cfg.Capacity,
		cleanupThreshold: cfg.CleanupThreshold,
		now:              cfg.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) > l.cleanupThreshold {
		l.sweep(now)
	}

	e, ok := l.entries[key]
	if !ok {
		if len(l.entries) >= l.capacity {
			l.evictOldest()
		}
		e = &entry{}
		l.entries[key] = e
	}

	e.hits = l.prune(e.hits, now)
	e.lastSeen = now
	if len(e.hits) >= l.limit {
		return false, nil
	}
	e.hits = append(e.hits, now)
	return true, nil
}

// Len reports the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *MemoryLimiter) prune(hits []time.Time, now time.Time) []time.Time {
	valid := hits[:0]
	for _, ts := range hits {
		if now.Sub(ts) < l.window {
			valid = append(valid, ts)
		}
	}
	return valid
}

func (l *MemoryLimiter) sweep(now time.Time) {
	for key, e := range l.entries {
		if now.Sub(e.lastSeen) >= l.window {
			delete(l.entries, key)
		}
	}
}

func (l *MemoryLimiter) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for key, e := range l.entries {
		if !found || e.lastSeen.Before(oldest) {
			oldestKey, oldest, found = key, e.lastSeen, true
		}
	}
	if found {
		delete(l.entries, oldestKey)
	}
}
