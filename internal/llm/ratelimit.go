package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultRateLimit is the number of requests per minute when unconfigured.
const DefaultRateLimit = 15

// rateLimiter implements a token bucket that refills one token every
// minute/capacity.
type rateLimiter struct {
	clock      clockwork.Clock
	lastRefill time.Time
	interval   time.Duration
	tokens     int
	capacity   int
	mu         sync.Mutex
}

// newRateLimiter creates a new rate limiter with the specified requests per minute.
func newRateLimiter(requestsPerMinute int, clock clockwork.Clock) *rateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRateLimit
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &rateLimiter{
		clock:      clock,
		tokens:     requestsPerMinute,
		capacity:   requestsPerMinute,
		interval:   time.Minute / time.Duration(requestsPerMinute),
		lastRefill: clock.Now(),
	}
}

// wait blocks until a token is available or the context is canceled.
func (rl *rateLimiter) wait(ctx context.Context) error {
	for {
		delay, ok := rl.tryAcquire()
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
		case <-rl.clock.After(delay):
		}
	}
}

// tryAcquire takes a token if one is available. Otherwise it returns how long
// until the next refill.
func (rl *rateLimiter) tryAcquire() (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	if rl.tokens > 0 {
		rl.tokens--
		return 0, true
	}
	return rl.interval - rl.clock.Since(rl.lastRefill), false
}

// refill adds the tokens earned since lastRefill. Callers hold mu.
func (rl *rateLimiter) refill() {
	elapsed := rl.clock.Since(rl.lastRefill)
	earned := int(elapsed / rl.interval)
	if earned <= 0 {
		return
	}

	rl.tokens += earned
	if rl.tokens > rl.capacity {
		rl.tokens = rl.capacity
	}
	rl.lastRefill = rl.lastRefill.Add(time.Duration(earned) * rl.interval)
}
