package llm

import (
	"sync"
	"time"
)

// windowSlack is added to computed waits so the oldest timestamp has
// actually left the window when the caller retries.
const windowSlack = 100 * time.Millisecond

// WindowLimiter is a strict sliding-window rate limiter. For each key
// (a model identifier, or a single fixed key for an HTTP API) it records the
// timestamps of the last quota requests; Acquire suspends the caller until
// issuing one more request would keep at most quota timestamps inside any
// trailing window.
//
// Unlike a token bucket, the limiter never lets a burst exceed the quota
// within a trailing window, which is the contract free-tier model quotas
// are enforced against.
type WindowLimiter struct {
	quota  int
	window time.Duration

	mu     sync.Mutex
	stamps map[string][]time.Time

	// injectable for deterministic tests
	now   func() time.Time
	sleep func(time.Duration)
}

// NewWindowLimiter creates a limiter allowing quota acquisitions per key
// within any trailing window.
func NewWindowLimiter(quota int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		quota:  quota,
		window: window,
		stamps: make(map[string][]time.Time),
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Acquire blocks until a request for key may be issued, then records it.
// A quota of zero or less disables limiting.
func (l *WindowLimiter) Acquire(key string) {
	if l.quota <= 0 {
		return
	}

	for {
		l.mu.Lock()
		now := l.now()
		stamps := l.pruneLocked(key, now)

		if len(stamps) < l.quota {
			l.stamps[key] = append(stamps, now)
			l.mu.Unlock()
			return
		}

		wait := l.window - now.Sub(stamps[0]) + windowSlack
		l.mu.Unlock()
		l.sleep(wait)
	}
}

// InWindow reports how many requests for key are currently inside the window.
func (l *WindowLimiter) InWindow(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	stamps := l.pruneLocked(key, l.now())
	l.stamps[key] = stamps
	return len(stamps)
}

// Remaining reports how many requests for key may still be issued before
// Acquire would block.
func (l *WindowLimiter) Remaining(key string) int {
	if l.quota <= 0 {
		return 0
	}
	remaining := l.quota - l.InWindow(key)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// pruneLocked drops timestamps older than the window. Callers hold l.mu.
func (l *WindowLimiter) pruneLocked(key string, now time.Time) []time.Time {
	stamps := l.stamps[key]
	cutoff := now.Add(-l.window)
	for len(stamps) > 0 && !stamps[0].After(cutoff) {
		stamps = stamps[1:]
	}
	return stamps
}
