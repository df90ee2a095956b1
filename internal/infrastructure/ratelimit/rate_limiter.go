package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)


// Limit is a token bucket shape: Burst tokens refilled at PerMinute per minute.
type Limit struct {
	PerMinute int
	Burst     int
}

func (l Limit) every() rate.Limit {
	if l.PerMinute <= 0 {
		return rate.Inf
	}
	return rate.Every(time.Minute / time.Duration(l.PerMinute))
}

// burst is at least 1 for a finite rate; a zero bucket would refuse everything.
func (l Limit) burst() int {
	if l.PerMinute > 0 && l.Burst < 1 {
		return 1
	}
	return l.Burst
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one bucket per (key, action) pair.
type RateLimiter struct {
	limits   map[string]Limit
	fallback Limit
	buckets  map[string]*bucket
	mutex    sync.Mutex
	now      func() time.Time
}

// NewRateLimiter creates a limiter with per-action limits. Actions not listed
// use fallback.
func NewRateLimiter(limits map[string]Limit, fallback Limit) *RateLimiter {
	cp := make(map[string]Limit, len(limits))
	for action, l := range limits {
		cp[action] = l
	}
	return &RateLimiter{
		limits:   cp,
		fallback: fallback,
		buckets:  make(map[string]*bucket),
		now:      time.Now,
	}
}

func (rl *RateLimiter) limitFor(action string) Limit {
	if l, ok := rl.limits[action]; ok {
		return l
	}
	return rl.fallback
}

// Allow consumes a token for key/action. When the bucket is empty it returns
// false and how long until the next token.
func (rl *RateLimiter) Allow(key, action string) (bool, time.Duration) {
	now := rl.now()

	rl.mutex.Lock()
	b, ok := rl.buckets[key+":"+action]
	if !ok {
		l := rl.limitFor(action)
		b = &bucket{limiter: rate.NewLimiter(l.every(), l.burst())}
		rl.buckets[key+":"+action] = b
	}
	b.lastSeen = now
	rl.mutex.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	delay := r.DelayFrom(now)
	if delay == 0 {
		return true, 0
	}
	// Give the token back; the caller is refused rather than queued.
	r.CancelAt(now)
	return false, delay
}

// Tokens reports the tokens currently left for key/action.
func (rl *RateLimiter) Tokens(key, action string) float64 {
	rl.mutex.Lock()
	b, ok := rl.buckets[key+":"+action]
	rl.mutex.Unlock()
	if !ok {
		return float64(rl.limitFor(action).burst())
	}
	return b.limiter.TokensAt(rl.now())
}

// Cleanup drops buckets idle for longer than idle.
func (rl *RateLimiter) Cleanup(idle time.Duration) {
	now := rl.now()

	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > idle {
			delete(rl.buckets, key)
		}
	}
}

// StartCleanupRoutine prunes idle buckets until ctx is done.
func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.Cleanup(time.Hour)
			case <-ctx.Done():
				return
			}
		}
	}()
}
