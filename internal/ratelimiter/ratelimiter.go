package ratelimiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// unlimited is used instead of rate.Inf, which does not play well with burst accounting.
const unlimited = 1_000_000_000

// RateLimiter provides request rate limiting using the token bucket algorithm.
//
// It wraps golang.org/x/time/rate. Tokens are added at a constant rate, each
// request consumes one, and the burst size bounds how many requests can be
// served back to back.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a new RateLimiter with the specified rate and burst capacity.
//
// A requestsPerSecond of 0 disables limiting.
func New(requestsPerSecond, burst uint) *RateLimiter {
	if requestsPerSecond == 0 {
		requestsPerSecond = unlimited
		burst = requestsPerSecond
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst)),
	}
}

// Allow reports whether a request may proceed now, consuming a token if so.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or the context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// AllowN checks if n tokens are available and consumes them atomically.
func (r *RateLimiter) AllowN(n uint) bool {
	return r.limiter.AllowN(time.Now(), int(n))
}

// Tokens returns the current number of available tokens.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}

// KeyedLimiter keeps one RateLimiter per key (typically a username) so a
// single noisy user cannot exhaust the budget of everyone else.
//
// Buckets that have not been used for idleTTL are evicted lazily on access.
type KeyedLimiter struct {
	mu       sync.Mutex
	rps      uint
	burst    uint
	idleTTL  time.Duration
	buckets  map[string]*keyedBucket
	lastScan time.Time
	now      func() time.Time
}

type keyedBucket struct {
	limiter  *RateLimiter
	lastSeen time.Time
}

// NewKeyed creates a KeyedLimiter handing out buckets of the given rate and burst.
// A requestsPerSecond of 0 disables limiting for every key.
func NewKeyed(requestsPerSecond, burst uint, idleTTL time.Duration) *KeyedLimiter {
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &KeyedLimiter{
		rps:     requestsPerSecond,
		burst:   burst,
		idleTTL: idleTTL,
		buckets: make(map[string]*keyedBucket),
		now:     time.Now,
	}
}

// Allow reports whether the request for key may proceed now.
func (k *KeyedLimiter) Allow(key string) bool {
	if k.rps == 0 {
		return true
	}
	return k.bucket(key).Allow()
}

// Len returns the number of tracked keys.
func (k *KeyedLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}

func (k *KeyedLimiter) bucket(key string) *RateLimiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	if now.Sub(k.lastScan) >= k.idleTTL {
		for name, b := range k.buckets {
			if now.Sub(b.lastSeen) >= k.idleTTL {
				delete(k.buckets, name)
			}
		}
		k.lastScan = now
	}

	b, ok := k.buckets[key]
	if !ok {
		b = &keyedBucket{limiter: New(k.rps, k.burst)}
		k.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}
