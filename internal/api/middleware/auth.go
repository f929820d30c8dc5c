package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/cleancommute/cleancommute/internal/api/models"
)

// APIKey creates authentication middleware that validates the X-API-Key
// header against the configured key using a constant-time comparison.
//
// When no key is configured all requests pass through unauthenticated.
// This is intended for local development only.
func APIKey(key string, logger zerolog.Logger) func(http.Handler) http.Handler {
	if key == "" {
		logger.Warn().Msg("API key authentication disabled: no key configured")
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	expected := []byte(key)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get("X-API-Key")
			if provided == "" {
				writeUnauthorized(w, r, "missing API key")
				return
			}

			if subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
				writeUnauthorized(w, r, "invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeUnauthorized writes a 401 Unauthorized response.
// This is implemented directly here to avoid import cycle with response package.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	traceID := GetRequestID(r.Context())
	problem := models.NewUnauthorized(traceID, detail)
	problem.Instance = r.URL.Path
	problem.Write(w)
}
