package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cleancommute/cleancommute/internal/api/middleware"
)

// serveRequestID runs a request through the RequestID middleware and returns
// the ID the handler saw in its context plus the recorder.
func serveRequestID(req *http.Request) (string, *httptest.ResponseRecorder) {
	var ctxID string
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = middleware.GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return ctxID, rec
}

func TestRequestID_GeneratesID(t *testing.T) {
	ctxID, rec := serveRequestID(httptest.NewRequest(http.MethodGet, "/v1/commutes", http.NoBody))

	assert.True(t, strings.HasPrefix(ctxID, "req_"), "context ID %q should carry the req_ prefix", ctxID)
	assert.Equal(t, ctxID, rec.Header().Get("X-Request-Id"), "header and context must agree")
}

func TestRequestID_KeepsClientSuppliedID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/commutes", http.NoBody)
	req.Header.Set("X-Request-Id", "retry-7f3a.2")

	ctxID, rec := serveRequestID(req)

	assert.Equal(t, "retry-7f3a.2", ctxID)
	assert.Equal(t, "retry-7f3a.2", rec.Header().Get("X-Request-Id"))
}

func TestRequestID_ReplacesHostileIDs(t *testing.T) {
	tests := []struct {
		name    string
		inbound string
	}{
		{"control characters", "abc\r\ndef"},
		{"spaces", "not a request id"},
		{"too long", strings.Repeat("a", 65)},
		{"non-ascii", "réquest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/commutes", http.NoBody)
			req.Header.Set("X-Request-Id", tt.inbound)

			ctxID, rec := serveRequestID(req)

			assert.NotEqual(t, tt.inbound, ctxID)
			assert.True(t, strings.HasPrefix(ctxID, "req_"))
			assert.Equal(t, ctxID, rec.Header().Get("X-Request-Id"))
		})
	}
}

func TestRequestID_MaxLengthIDAccepted(t *testing.T) {
	inbound := strings.Repeat("b", 64)
	req := httptest.NewRequest(http.MethodGet, "/v1/commutes", http.NoBody)
	req.Header.Set("X-Request-Id", inbound)

	ctxID, _ := serveRequestID(req)

	assert.Equal(t, inbound, ctxID)
}

func TestGetRequestID_EmptyWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/commutes", http.NoBody)
	assert.Empty(t, middleware.GetRequestID(req.Context()))
}

func TestRequestID_GeneratedIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		ctxID, _ := serveRequestID(httptest.NewRequest(http.MethodGet, "/v1/commutes", http.NoBody))

		assert.False(t, seen[ctxID], "duplicate request ID %s", ctxID)
		seen[ctxID] = true
	}
}
