package middlewares

import (
	"math"
	"net/http"
	"strconv"

	httperrors "github.com/kobecorporation/kbsaas/internal/http/errors"
	"github.com/kobecorporation/kbsaas/internal/http/helpers"
	"github.com/kobecorporation/kbsaas/internal/metrics"
	"github.com/kobecorporation/kbsaas/internal/observability/logger"
	"github.com/kobecorporation/kbsaas/internal/rate"
)

// RateKeyFunc define cómo generar la clave de rate limiting.
type RateKeyFunc func(r *http.Request) string

// IPKey limita por IP del cliente.
func IPKey(trustProxy bool) RateKeyFunc {
	return func(r *http.Request) string { return helpers.ClientIP(r, trustProxy) }
}

// RateLimitConfig configura WithRateLimit. Bucket etiqueta la métrica; cada
// bucket usa su propio Limiter.
type RateLimitConfig struct {
	Bucket  string
	Limiter rate.Limiter
	KeyFunc RateKeyFunc
}

// WithRateLimit rechaza con 429 y Retry-After al superar el límite. Un error
// del limiter deja pasar el request.
func WithRateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPKey(false)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := cfg.Limiter.Allow(r.Context(), cfg.KeyFunc(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter failed", logger.String("bucket", cfg.Bucket), logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				metrics.RateLimited.WithLabelValues(cfg.Bucket).Inc()
				if secs := int(math.Ceil(res.RetryAfter.Seconds())); secs > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(secs))
				}
				httperrors.WriteError(w, r, httperrors.ErrRateLimitExceeded)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
