package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter decides whether an authenticated caller may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, id *Identity) error
}

const rateLimitWindow = time.Minute

// InProcessLimiter is a sliding-window limiter keyed by subject, with
// per-tier requests-per-minute limits. State lives in process memory, so
// limits apply per instance.
type InProcessLimiter struct {
	mu           sync.Mutex
	tierLimits   map[string]int
	defaultLimit int
	windows      map[string][]time.Time
	now          func() time.Time
}

// NewInProcessLimiter creates a limiter. tierLimits maps tier names to
// requests per minute; defaultLimit applies to unknown tiers. A limit of
// zero or less means unlimited.
func NewInProcessLimiter(tierLimits map[string]int, defaultLimit int) *InProcessLimiter {
	return &InProcessLimiter{
		tierLimits:   tierLimits,
		defaultLimit: defaultLimit,
		windows:      make(map[string][]time.Time),
		now:          time.Now,
	}
}

// Allow implements RateLimiter.
func (l *InProcessLimiter) Allow(ctx context.Context, id *Identity) error {
	limit, ok := l.tierLimits[id.Tier]
	if !ok {
		limit = l.defaultLimit
	}
	if limit <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-rateLimitWindow)
	window := l.windows[id.Subject]

	kept := window[:0]
	for _, ts := range window {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= limit {
		l.windows[id.Subject] = kept
		return ErrTooManyRequests
	}
	l.windows[id.Subject] = append(kept, now)
	return nil
}
