package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/cleancommute/cleancommute/internal/api/models"
)

// RateLimitConfig bounds request volume per client over a sliding window.
type RateLimitConfig struct {
	RequestLimit int
	WindowLength time.Duration
}

// Per-route-group limits. Reads are cheap, comparisons fan out to the
// routing provider, and writes land in Postgres.
var (
	StandardRateLimit  = RateLimitConfig{RequestLimit: 100, WindowLength: time.Minute}
	ExpensiveRateLimit = RateLimitConfig{RequestLimit: 30, WindowLength: time.Minute}
	WriteRateLimit     = RateLimitConfig{RequestLimit: 20, WindowLength: time.Minute}
)

// RateLimitByIP limits requests per client IP. chi's RealIP middleware runs
// earlier in the chain, so behind a proxy the address already reflects
// X-Forwarded-For.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(limitExceededHandler(cfg)),
	)
}

// limitExceededHandler builds the 429 response for a limit config. httprate
// does not expose the exact reset time, so Retry-After reports the full
// window as a conservative upper bound.
func limitExceededHandler(cfg RateLimitConfig) http.HandlerFunc {
	retryAfter := strconv.Itoa(int(cfg.WindowLength.Seconds()))

	return func(w http.ResponseWriter, r *http.Request) {
		problem := models.NewTooManyRequests(
			GetRequestID(r.Context()),
			"Rate limit exceeded. Please try again later.",
		)
		problem.Instance = r.URL.Path

		w.Header().Set("Retry-After", retryAfter)
		problem.Write(w)
	}
}
