// Package ratelimit implements per-client admission control with a token
// bucket per key. Buckets refill continuously and cap at a fixed burst, so
// a quiet client can issue a short burst but sustained traffic is held to
// the refill rate.
package ratelimit

import (
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/puzpuzpuz/xsync/v3"
)

const (
	DefaultBurst      = 5
	DefaultRefillRate = 0.1 // tokens per second
)

// Decision is the outcome of one admission check, carrying everything the
// HTTP layer needs for rate-limit response headers.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetEpoch int64
	RetryAfter time.Duration
}

// Limiter tracks one token bucket per client key. Check is atomic per key;
// keys never contend with each other.
type Limiter struct {
	burst   int
	refill  rate.Limit
	buckets *xsync.MapOf[string, *rate.Limiter]
}

func NewLimiter(burst int, refillPerSec float64) *Limiter {
	if burst <= 0 {
		burst = DefaultBurst
	}
	if refillPerSec <= 0 {
		refillPerSec = DefaultRefillRate
	}
	return &Limiter{
		burst:   burst,
		refill:  rate.Limit(refillPerSec),
		buckets: xsync.NewMapOf[string, *rate.Limiter](),
	}
}

// Check consumes one token for key if available and reports the bucket
// state either way.
func (l *Limiter) Check(key string) Decision {
	bucket, _ := l.buckets.LoadOrCompute(key, func() *rate.Limiter {
		return rate.NewLimiter(l.refill, l.burst)
	})

	now := time.Now()
	allowed := bucket.AllowN(now, 1)
	remaining := int(bucket.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}

	d := Decision{
		Allowed:   allowed,
		Limit:     l.burst,
		Remaining: remaining,
	}
	if !allowed {
		// time until one full token has refilled
		deficit := 1 - bucket.TokensAt(now)
		d.RetryAfter = time.Duration(math.Ceil(deficit/float64(l.refill))) * time.Second
	}

	// when a full bucket is next available
	missing := float64(l.burst) - bucket.TokensAt(now)
	if missing < 0 {
		missing = 0
	}
	d.ResetEpoch = now.Add(time.Duration(missing / float64(l.refill) * float64(time.Second))).Unix()
	return d
}
