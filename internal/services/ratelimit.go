package services

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited wraps a TextCompleter so calls wait for a token bucket.
type RateLimited struct {
	next    TextCompleter
	limiter *rate.Limiter
}

// NewRateLimited allows perMinute calls per minute with a burst of one.
// A non-positive perMinute disables limiting and returns next unchanged.
func NewRateLimited(next TextCompleter, perMinute int) TextCompleter {
	if perMinute <= 0 {
		return next
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
	}
}

func (r *RateLimited) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return r.next.Complete(ctx, prompt, maxTokens, temperature)
}
