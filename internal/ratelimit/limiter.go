// Package ratelimit provides per-client admission control for AI-mode
// search requests.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter decides whether a request from the given client key is admitted.
// The in-memory SlidingWindow is single-instance by nature; multi-instance
// deployments should plug in an implementation backed by a shared store.
type Limiter interface {
	Allow(key string) bool
}

// SlidingWindow admits at most limit requests per client key within a
// trailing window. State is process-local and non-persistent: the limiter
// dampens abuse, it is not billing-grade accounting.
type SlidingWindow struct {
	mu     sync.Mutex
	window time.Duration
	limit  int
	hits   map[string][]time.Time
	now    func() time.Time
}

// NewSlidingWindow creates a limiter with the given trailing window and
// admission ceiling.
func NewSlidingWindow(window time.Duration, limit int) *SlidingWindow {
	return &SlidingWindow{
		window: window,
		limit:  limit,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow records the request and reports whether it is admitted. Every call
// also prunes keys whose recorded requests have all expired, so memory stays
// bounded without a background sweep.
func (l *SlidingWindow) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	for k, ts := range l.hits {
		if len(ts) == 0 || !ts[len(ts)-1].After(cutoff) {
			delete(l.hits, k)
		}
	}

	recent := make([]time.Time, 0, len(l.hits[key])+1)
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	recent = append(recent, now)
	l.hits[key] = recent

	return len(recent) <= l.limit
}
