package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// INCR the window counter and start its expiry on the first hit
var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RateLimiter is a fixed window request limiter backed by Redis
type RateLimiter struct {
	redis    *redis.Client
	limit    int64
	window   time.Duration
	prefix   string
	failOpen bool
}

// NewRateLimiter creates a new rate limiter. A nil client disables limiting.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration, prefix string, failOpen bool) *RateLimiter {
	return &RateLimiter{
		redis:    client,
		limit:    limit,
		window:   window,
		prefix:   prefix,
		failOpen: failOpen,
	}
}

// Middleware limits requests per authenticated user, or per client IP when
// the request carries no user
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.redis == nil {
			next.ServeHTTP(w, r)
			return
		}

		subject := GetClientIP(r)
		if userID, ok := GetUserID(r.Context()); ok {
			subject = userID.String()
		}
		key := fmt.Sprintf("%s%s", rl.prefix, subject)

		ttlSeconds := int64(rl.window.Seconds())
		if ttlSeconds < 1 {
			ttlSeconds = 1
		}

		count, err := rateLimitScript.Run(r.Context(), rl.redis, []string{key}, ttlSeconds).Int64()
		if err != nil {
			log.Error().Err(err).Str("key", key).Msg("Rate limit Redis error")
			if rl.failOpen {
				next.ServeHTTP(w, r)
				return
			}
			respondError(w, "Rate limiting temporarily unavailable", http.StatusServiceUnavailable)
			return
		}

		if count > rl.limit {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", ttlSeconds))
			respondError(w, "Too many requests, please try again later", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetClientIP extracts the client IP from the request, respecting X-Forwarded-For
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// The first address is the client
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
