package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"

	"github.com/tinselhq/tinsel/internal/config"
	"github.com/tinselhq/tinsel/internal/model"
)

// LoginRateLimit gates login attempts: a fixed ceiling of 5 per window,
// keyed by client address. Exceeding it returns 429 with the login-specific
// machine code. Standard X-RateLimit-* headers are emitted by httprate.
func LoginRateLimit(window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		config.LoginMax,
		window,
		httprate.WithKeyFuncs(clientKey),
		httprate.WithLimitHandler(rateLimitHandler(model.CodeAuthRateLimitExceeded)),
	)
}

// APIRateLimit gates general API traffic with its own, more lenient ceiling
// and window, independent of the login limiter.
func APIRateLimit(max int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		max,
		window,
		httprate.WithKeyFuncs(clientKey),
		httprate.WithLimitHandler(rateLimitHandler(model.CodeRateLimitExceeded)),
	)
}

// clientKey derives the rate-limit bucket key: the first address of a
// forwarded-for chain (trusting one reverse-proxy hop), else the direct
// connection address, else a shared "unknown" bucket.
func clientKey(r *http.Request) (string, error) {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if addr := strings.TrimSpace(first); addr != "" {
			return addr, nil
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host, nil
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr, nil
	}
	return "unknown", nil
}

func rateLimitHandler(code string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusTooManyRequests, "Too many requests, please try again later", code)
	}
}
