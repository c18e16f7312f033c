package repository

import "context"

// RateLimitStore tracks request allowances per client key.
type RateLimitStore interface {
	Allow(ctx context.Context, key string) (bool, error)
	Close() error
}
