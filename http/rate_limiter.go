package http

import (
	"context"
	"log/slog"

	"github.com/TrashScientist/contract-features/repository"
)

// RejectionRecorder is told about every rejected request.
type RejectionRecorder interface {
	RateLimited(ctx context.Context)
}

type RateLimiter struct {
	store    repository.RateLimitStore
	recorder RejectionRecorder
	logger   *slog.Logger
}

func NewRateLimiter(store repository.RateLimitStore, recorder RejectionRecorder, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{store: store, recorder: recorder, logger: logger}
}

// Allow reports whether the client may proceed. Store failures let the
// request through.
func (r *RateLimiter) Allow(ctx context.Context, ip string) bool {
	ok, err := r.store.Allow(ctx, ip)
	if err != nil {
		r.logger.Warn("rate limit store unavailable, allowing request", "ip", ip, "error", err)
		return true
	}
	if !ok && r.recorder != nil {
		r.recorder.RateLimited(ctx)
	}
	return ok
}

func (r *RateLimiter) Stop() {
	if err := r.store.Close(); err != nil {
		r.logger.Warn("error closing rate limit store", "error", err)
	}
}
