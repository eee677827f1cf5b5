package fetcher

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter bounds concurrent requests per host and spaces them to the
// configured requests per minute.
type RateLimiter struct {
	maxConcurrent  int
	rpm            int
	hostSemaphores map[string]*hostLimiter
	mu             sync.Mutex
}

type hostLimiter struct {
	sem    chan struct{}
	pacing *rate.Limiter
}

func NewRateLimiter(maxConcurrent, rpm int) *RateLimiter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &RateLimiter{
		maxConcurrent:  maxConcurrent,
		rpm:            rpm,
		hostSemaphores: make(map[string]*hostLimiter),
	}
}

func (rl *RateLimiter) limiterFor(host string) *hostLimiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.hostSemaphores[host]
	if !exists {
		limit := rate.Inf
		if rl.rpm > 0 {
			limit = rate.Every(time.Minute / time.Duration(rl.rpm))
		}
		limiter = &hostLimiter{
			sem:    make(chan struct{}, rl.maxConcurrent),
			pacing: rate.NewLimiter(limit, 1),
		}
		rl.hostSemaphores[host] = limiter
	}
	return limiter
}

// Wait blocks until a request to host may start. The returned release must
// be called when the request is done.
func (rl *RateLimiter) Wait(ctx context.Context, host string) (func(), error) {
	limiter := rl.limiterFor(host)

	select {
	case limiter.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	release := func() { <-limiter.sem }

	if err := limiter.pacing.Wait(ctx); err != nil {
		release()
		return nil, err
	}
	return release, nil
}
