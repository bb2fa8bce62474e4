package crawler

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// MaxRequestsPerSecond is the largest request budget a Limiter accepts.
const MaxRequestsPerSecond = 10000

// Limiter is a token bucket shared by every task of a crawl. It holds
// max(1, rps) tokens, refills at that many tokens per second and starts half
// full.
type Limiter struct {
	bucket   *rate.Limiter
	capacity int
}

// NewLimiter builds a limiter for rps requests per second. Values below one
// are treated as one.
func NewLimiter(rps int) (*Limiter, error) {
	if rps > MaxRequestsPerSecond {
		return nil, fmt.Errorf("%w: %d requests per second exceeds %d", ErrRateLimiter, rps, MaxRequestsPerSecond)
	}
	capacity := max(1, rps)
	bucket := rate.NewLimiter(rate.Limit(capacity), capacity)
	if !bucket.AllowN(time.Now(), capacity-capacity/2) {
		return nil, fmt.Errorf("%w: cannot set initial fill", ErrRateLimiter)
	}
	return &Limiter{bucket: bucket, capacity: capacity}, nil
}

// Capacity returns the bucket size.
func (l *Limiter) Capacity() int {
	return l.capacity
}

// Spread is the extra pause inserted after every admitted visit so a round
// does not burst up to capacity on every refill.
func (l *Limiter) Spread() time.Duration {
	return time.Second / time.Duration(l.capacity)
}

// TryConsume takes a token if one is available. Otherwise it returns how
// long the caller has to wait for the next one; no token is taken.
func (l *Limiter) TryConsume() (time.Duration, bool) {
	r := l.bucket.Reserve()
	if !r.OK() {
		return l.Spread(), false
	}
	delay := r.Delay()
	if delay > 0 {
		r.Cancel()
		return delay, false
	}
	return 0, true
}

// Wait takes a token through TryConsume, sleeping as long as it says a
// token is away, then pauses for Spread. It returns early with ctx's error
// when ctx is done; a token already taken stays consumed.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		delay, ok := l.TryConsume()
		if ok {
			delay = l.Spread()
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
			if ok {
				return nil
			}
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}
