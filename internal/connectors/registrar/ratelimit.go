package registrar

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultRequestsPerSecond is the proactive throttle rate.
	DefaultRequestsPerSecond = 2.0

	// DefaultBurst is the token-bucket burst size.
	DefaultBurst = 1

	// DefaultCooldown is applied when the upstream signals overload
	// without a Retry-After header.
	DefaultCooldown = 30 * time.Second

	// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
	HeaderRetryAfter = "Retry-After"
)

// RateLimiter implements dual-strategy rate limiting for the registrar API:
// a proactive token bucket plus a reactive cooldown window entered whenever
// the upstream answers 429.
type RateLimiter struct {
	bucket *rate.Limiter

	mu            sync.Mutex
	cooldownUntil time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second with the
// given burst. Non-positive arguments fall back to the defaults.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &RateLimiter{
		bucket: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Wait blocks until it's safe to make a request: first the token bucket,
// then any active cooldown window.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	until := r.cooldownUntil
	r.mu.Unlock()

	if wait := time.Until(until); wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil
}

// Cooldown tightens the effective budget: no request starts before the
// window elapses. Overlapping cooldowns keep the later deadline.
func (r *RateLimiter) Cooldown(d time.Duration) {
	if d <= 0 {
		d = DefaultCooldown
	}
	until := time.Now().Add(d)

	r.mu.Lock()
	if until.After(r.cooldownUntil) {
		r.cooldownUntil = until
	}
	r.mu.Unlock()
}

// CooldownRemaining returns how long the current cooldown window has left.
func (r *RateLimiter) CooldownRemaining() time.Duration {
	r.mu.Lock()
	until := r.cooldownUntil
	r.mu.Unlock()

	if remaining := time.Until(until); remaining > 0 {
		return remaining
	}
	return 0
}

// SetRate retunes the bucket at runtime (config hot reload).
func (r *RateLimiter) SetRate(rps float64, burst int) {
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	r.bucket.SetLimit(rate.Limit(rps))
	r.bucket.SetBurst(burst)
}

// ParseRetryAfter extracts the upstream's requested backoff from a response.
// Returns 0 when the header is missing or unparseable.
func ParseRetryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get(HeaderRetryAfter)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
