package auth

import (
	"log/slog"
	"net/http"

	"github.com/taskpilot-dev/taskpilot/pkg/observability"
)

// DefaultBypassPaths lists endpoints that skip authentication.
var DefaultBypassPaths = []string{"/healthz", "/metrics"}

// Middleware enforces the auth chain and an optional rate limiter on every
// request whose path is not in the bypass list.
func Middleware(chain *Chain, limiter RateLimiter, bypassPaths []string) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassPaths))
	for _, p := range bypassPaths {
		bypass[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			result := chain.Authenticate(r.Context(), r)
			if result.Decision != Accept || result.Identity == nil || result.Identity.Subject == "" {
				slog.Warn("authentication failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", result.Err)
				writeAuthError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if limiter != nil {
				if err := limiter.Allow(r.Context(), result.Identity); err != nil {
					slog.Warn("rate limit exceeded",
						"subject", result.Identity.Subject,
						"tier", result.Identity.Tier)
					observability.RecordRateLimitRejection(result.Identity.Tier)
					writeAuthError(w, http.StatusTooManyRequests, "rate limit exceeded")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), result.Identity)))
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"` + message + `"}}`))
}
