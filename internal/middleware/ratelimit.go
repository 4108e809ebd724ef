package middleware

import (
	"fmt"
	"net/http"
	"time"

	"logistics/pkg/logger"
	"logistics/pkg/ratelimit"
)

// RateLimit applies limiter to every request, keyed by keyExtractor. A
// limiter error fails open, matching the teacher's RateLimitInterceptor.
func RateLimit(limiter ratelimit.Limiter, keyExtractor ratelimit.KeyExtractor) func(http.Handler) http.Handler {
	if keyExtractor == nil {
		keyExtractor = ratelimit.DefaultKeyExtractor
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			md := map[string]string{"x-forwarded-for": r.Header.Get("X-Forwarded-For"), "remote-addr": r.RemoteAddr}
			key := keyExtractor(r.Context(), r.URL.Path, md)

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Log.Warn("rate limit check failed", "error", err, "key", key)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				info, infoErr := limiter.GetInfo(r.Context(), key)
				if infoErr != nil {
					info = &ratelimit.LimitInfo{Limit: 0, ResetAt: time.Now().Add(time.Minute)}
				}

				w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", info.ResetAt.Format(time.RFC3339))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"code":"RATE_LIMITED","message":"rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
