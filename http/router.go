package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

type RouterConfig struct {
	Features *FeatureHandler
	System   *SystemHandler
	Limiter  *RateLimiter // nil disables rate limiting
	Logger   *slog.Logger
}

func NewRouter(cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestID, AccessLog(cfg.Logger))

	limit := func(h http.HandlerFunc) http.Handler {
		if cfg.Limiter == nil {
			return h
		}
		return RateLimitMiddleware(cfg.Limiter, h)
	}

	r.HandleFunc("/", cfg.System.Info).Methods(http.MethodGet)
	r.HandleFunc("/health", cfg.System.Health).Methods(http.MethodGet)

	r.Handle("/calculate-features", limit(cfg.Features.CalculateFeatures)).Methods(http.MethodPost)
	r.Handle("/batch-calculate-features", limit(cfg.Features.BatchCalculateFeatures)).Methods(http.MethodPost)

	return r
}
