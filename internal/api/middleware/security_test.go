package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cleancommute/cleancommute/internal/api/middleware"
)

func serveOK(mw func(http.Handler) http.Handler, req *http.Request) *httptest.ResponseRecorder {
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSecurityHeaders_SetsFullHeaderSet(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/commutes", http.NoBody)
	rec := serveOK(middleware.SecurityHeaders, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	want := map[string]string{
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
		"Content-Security-Policy":   "default-src 'none'; frame-ancestors 'none'",
		"Referrer-Policy":           "strict-origin-when-cross-origin",
		"Permissions-Policy":        "geolocation=(), camera=(), microphone=()",
	}
	for name, value := range want {
		assert.Equal(t, value, rec.Header().Get(name), name)
	}
}

func TestSecurityHeaders_KeepsHandlerHeaders(t *testing.T) {
	handler := middleware.SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("ETag", `"v42"`)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/commutes", http.NoBody))

	assert.Equal(t, `"v42"`, rec.Header().Get("ETag"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRequireTLS_OffByDefault(t *testing.T) {
	t.Setenv("REQUIRE_TLS", "")

	req := httptest.NewRequest(http.MethodGet, "/v1/commutes", http.NoBody)
	req.Header.Set("X-Forwarded-Proto", "http")
	rec := serveOK(middleware.RequireTLS, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireTLS_RejectsForwardedPlainHTTP(t *testing.T) {
	t.Setenv("REQUIRE_TLS", "true")

	req := httptest.NewRequest(http.MethodGet, "/v1/commutes", http.NoBody)
	req.Header.Set("X-Forwarded-Proto", "http")
	rec := serveOK(middleware.RequireTLS, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "tls-required")
	assert.Contains(t, rec.Body.String(), "This endpoint requires HTTPS")
}

func TestRequireTLS_AllowsForwardedHTTPS(t *testing.T) {
	t.Setenv("REQUIRE_TLS", "true")

	req := httptest.NewRequest(http.MethodGet, "/v1/commutes", http.NoBody)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := serveOK(middleware.RequireTLS, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireTLS_AllowsDirectConnections(t *testing.T) {
	t.Setenv("REQUIRE_TLS", "true")

	// No X-Forwarded-Proto means no proxy in front, e.g. local development.
	req := httptest.NewRequest(http.MethodGet, "/v1/commutes", http.NoBody)
	rec := serveOK(middleware.RequireTLS, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireTLS_DecidesAtWrapTime(t *testing.T) {
	t.Setenv("REQUIRE_TLS", "")

	handler := middleware.RequireTLS(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Flipping the env var after the chain is built has no effect.
	t.Setenv("REQUIRE_TLS", "true")

	req := httptest.NewRequest(http.MethodGet, "/v1/commutes", http.NoBody)
	req.Header.Set("X-Forwarded-Proto", "http")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
