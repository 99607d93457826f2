package youtube

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter spaces out Google API calls. After a quota error it refuses
// further calls until the backoff passes or Reset is called, so the rest of
// the run fails fast.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	now     func() time.Time
}

func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		now:     time.Now,
	}
}

// Wait blocks for a token. It returns ErrQuotaExceeded immediately while backing off.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()
	if r.now().Before(retryAt) {
		return ErrQuotaExceeded
	}
	return r.limiter.Wait(ctx)
}

// RecordQuotaError starts a backoff window; zero means one hour.
func (r *RateLimiter) RecordQuotaError(backoff time.Duration) {
	if r == nil {
		return
	}
	if backoff <= 0 {
		backoff = time.Hour
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryAt = r.now().Add(backoff)
}

// Reset clears a recorded quota error. Callers reset at the start of each run.
func (r *RateLimiter) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryAt = time.Time{}
}
