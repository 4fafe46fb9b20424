package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(window time.Duration, limit int) (*SlidingWindow, *time.Time) {
	l := NewSlidingWindow(window, limit)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowUpToLimit(t *testing.T) {
	l, now := newTestLimiter(60*time.Second, 10)

	for i := 0; i < 10; i++ {
		*now = now.Add(time.Second)
		assert.True(t, l.Allow("1.2.3.4"), "request %d should be admitted", i+1)
	}

	*now = now.Add(time.Second)
	assert.False(t, l.Allow("1.2.3.4"), "11th request within the window should be denied")
}

func TestAdmissionResumesAfterExpiry(t *testing.T) {
	l, now := newTestLimiter(60*time.Second, 10)

	for i := 0; i < 10; i++ {
		l.Allow("1.2.3.4")
	}
	assert.False(t, l.Allow("1.2.3.4"))

	// Once the earlier timestamps fall outside the window, admission resumes.
	*now = now.Add(61 * time.Second)
	assert.True(t, l.Allow("1.2.3.4"))
}

func TestKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(60*time.Second, 2)

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))

	assert.True(t, l.Allow("b"))
}

func TestExpiredKeysArePruned(t *testing.T) {
	l, now := newTestLimiter(60*time.Second, 10)

	l.Allow("a")
	l.Allow("b")
	l.Allow("c")

	*now = now.Add(2 * time.Minute)
	l.Allow("d")

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.hits, 1, "keys with only expired timestamps should be dropped")
	assert.Contains(t, l.hits, "d")
}

func TestConcurrentAdmission(t *testing.T) {
	l := NewSlidingWindow(60*time.Second, 10)

	var wg sync.WaitGroup
	admitted := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			admitted <- l.Allow("shared")
		}()
	}
	wg.Wait()
	close(admitted)

	count := 0
	for ok := range admitted {
		if ok {
			count++
		}
	}
	assert.Equal(t, 10, count, "exactly the ceiling should be admitted under contention")
}
