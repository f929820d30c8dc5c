// Package middleware provides HTTP middleware for the CleanCommute API.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// ctxKeyRequestID keys the request ID in a request context.
type ctxKeyRequestID struct{}

// maxInboundIDLength caps client-supplied request IDs so a hostile header
// cannot bloat logs or response headers.
const maxInboundIDLength = 64

// RequestID tags every request with an identifier, echoed in the
// X-Request-Id response header and stored in the context for logging and
// problem responses. A sane client-supplied ID is kept so callers can
// correlate retries across systems; anything else is replaced.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if !validInboundID(id) {
			id = newRequestID()
		}

		w.Header().Set("X-Request-Id", id)

		ctx := context.WithValue(r.Context(), ctxKeyRequestID{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID stored by RequestID, or "" when the
// middleware did not run.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKeyRequestID{}).(string); ok {
		return id
	}
	return ""
}

func newRequestID() string {
	// 22 chars of a v4 UUID is plenty of entropy for correlation.
	return "req_" + uuid.New().String()[:22]
}

// validInboundID reports whether a client-supplied ID is safe to propagate
// into logs and headers.
func validInboundID(id string) bool {
	if id == "" || len(id) > maxInboundIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
