package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"staticfund-api/internal/metrics"
	"staticfund-api/internal/ratelimit"
	"staticfund-api/pkg/logging/logging"
)

// RateLimit applies l per client IP. Backend errors let the request
// through so a Redis outage does not take the API down.
func RateLimit(l ratelimit.Limiter) func(http.Handler) http.Handler {
	policy := l.Policy()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := clientKey(r)

			d, err := l.Allow(ctx, key)
			if err != nil {
				logging.L(ctx).Warn("rate limiter unavailable, allowing request",
					zap.String("policy", policy.Name),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("RateLimit-Reset", strconv.Itoa(ceilSeconds(d.ResetAfter)))

			if !d.Allowed {
				metrics.RateLimitedTotal.WithLabelValues(policy.Name).Inc()
				logging.L(ctx).Info("rate limited", zap.String("policy", policy.Name))
				h.Set("Retry-After", strconv.Itoa(ceilSeconds(d.ResetAfter)))
				writeError(w, http.StatusTooManyRequests, policy.Message)
				return
			}

			if !policy.SkipSuccessful {
				next.ServeHTTP(w, r)
				return
			}

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)
			if sw.status < http.StatusBadRequest {
				if err := l.Refund(ctx, key); err != nil {
					logging.L(ctx).Warn("rate limit refund failed",
						zap.String("policy", policy.Name),
						zap.Error(err),
					)
				}
			}
		})
	}
}

// clientKey is the client IP without port. RealIP runs first, so proxied
// requests are keyed by the forwarded address.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
