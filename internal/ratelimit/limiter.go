package ratelimit

import "context"

// RateLimiter caps the call rate of a named operation.
type RateLimiter interface {
	Allow(ctx context.Context, operation string) (bool, error)
	Wait(ctx context.Context, operation string) error
}
