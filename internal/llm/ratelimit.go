package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimited paces calls to another Completer and bounds each call with a
// timeout. It does not retry.
type RateLimited struct {
	next    Completer
	limiter *rate.Limiter
	timeout time.Duration
}

// NewRateLimited allows requestsPerMinute calls per minute (burst of one).
// A zero timeout leaves call duration to the caller's context.
func NewRateLimited(next Completer, requestsPerMinute int, timeout time.Duration) *RateLimited {
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, 1), timeout: timeout}
}

// Complete implements Completer.
func (r *RateLimited) Complete(ctx context.Context, req Request) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.next.Complete(ctx, req)
}
