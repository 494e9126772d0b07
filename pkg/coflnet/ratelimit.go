package coflnet

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket sized to the request budget the API is
// assumed to tolerate. One token is consumed per request and the bucket is
// refilled once per second.
type RateLimiter struct {
	requests chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter(requestsPerSecond int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}

	rl := &RateLimiter{
		requests: make(chan struct{}, requestsPerSecond),
		done:     make(chan struct{}),
	}

	// Fill the initial bucket
	for i := 0; i < requestsPerSecond; i++ {
		rl.requests <- struct{}{}
	}

	go rl.refillBucket(requestsPerSecond)

	return rl
}

func (rl *RateLimiter) refillBucket(requestsPerSecond int) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			for i := 0; i < requestsPerSecond; i++ {
				select {
				case rl.requests <- struct{}{}:
				default:
					// Bucket is full
				}
			}
		}
	}
}

// Wait blocks until a request slot frees up or the context ends.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	select {
	case <-rl.requests:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop shuts down the refill goroutine. Callers must not Wait after Stop.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.done)
	})
}
