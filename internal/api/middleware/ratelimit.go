package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/example/fairway-commerce/internal/api/respond"
	"github.com/example/fairway-commerce/internal/apperr"
	"github.com/example/fairway-commerce/internal/infrastructure/ratelimit"
)

// Limiter counts requests per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Decision, error)
}

// RateLimit refuses requests over the quota with RATE_LIMITED. Authenticated
// callers are counted per user, everyone else per client IP. When the
// limiter itself fails the request is let through.
func RateLimit(limiter Limiter, logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logger.With(zap.String("component", "ratelimit"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + ClientIP(r)
			if claims, ok := GetUserFromContext(r.Context()); ok {
				key = "user:" + claims.UserID
			}

			d, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("rate limiter unavailable, allowing request", zap.String("key", key), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				retry := int(math.Ceil(d.RetryAfter.Seconds()))
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				respond.Error(w, apperr.RateLimited().WithDetails(map[string]any{"retryAfterSeconds": retry}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
