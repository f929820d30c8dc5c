package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cleancommute/cleancommute/internal/api/middleware"
	"github.com/cleancommute/cleancommute/internal/api/models"
	"github.com/cleancommute/cleancommute/internal/api/response"
)

// tracedRequest returns a request whose context carries a request ID, as it
// would after the RequestID middleware ran.
func tracedRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()

	var traced *http.Request
	middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		traced = r
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, path, http.NoBody))

	return traced
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) models.Problem {
	t.Helper()

	var problem models.Problem
	if err := json.NewDecoder(rec.Body).Decode(&problem); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	return problem
}

func TestJSON(t *testing.T) {
	req := tracedRequest(t, http.MethodGet, "/v1/commutes")
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, map[string]string{"message": "hello"})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if id := rec.Header().Get("X-Request-Id"); !strings.HasPrefix(id, "req_") {
		t.Errorf("X-Request-Id = %q, want a generated ID", id)
	}
}

func TestJSON_NoRequestIDOutsideMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/commutes", http.NoBody)
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, map[string]string{"message": "hello"})

	if id := rec.Header().Get("X-Request-Id"); id != "" {
		t.Errorf("X-Request-Id = %q, want empty without the middleware", id)
	}
}

func TestJSON_NilDataHasNoBody(t *testing.T) {
	req := tracedRequest(t, http.MethodGet, "/v1/commutes")
	rec := httptest.NewRecorder()

	response.JSON(rec, req, http.StatusOK, nil)

	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "" {
		t.Errorf("Content-Type = %q, want unset without a body", ct)
	}
}

func TestCreated(t *testing.T) {
	req := tracedRequest(t, http.MethodPost, "/v1/commutes")
	rec := httptest.NewRecorder()

	response.Created(rec, req, "/v1/commutes/abc123", map[string]string{"id": "abc123"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/v1/commutes/abc123" {
		t.Errorf("Location = %q, want /v1/commutes/abc123", loc)
	}
	if !strings.Contains(rec.Body.String(), "abc123") {
		t.Error("body should carry the created resource")
	}
}

func TestAccepted(t *testing.T) {
	req := tracedRequest(t, http.MethodPost, "/v1/admin/warmup")
	rec := httptest.NewRecorder()

	response.Accepted(rec, req, "/v1/admin/warmup/status", map[string]string{"status": "pending"})

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/v1/admin/warmup/status" {
		t.Errorf("Location = %q, want the status URL", loc)
	}
}

func TestNoContent(t *testing.T) {
	req := tracedRequest(t, http.MethodDelete, "/v1/commutes/abc123")
	rec := httptest.NewRecorder()

	response.NoContent(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty for 204", rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("expected the correlation header on 204 responses")
	}
}

func TestProblemHelpers(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter, r *http.Request)
		status     int
		typeSuffix string
	}{
		{
			"unauthorized",
			func(w http.ResponseWriter, r *http.Request) { response.Unauthorized(w, r, "missing API key") },
			http.StatusUnauthorized, "unauthorized",
		},
		{
			"forbidden",
			func(w http.ResponseWriter, r *http.Request) { response.Forbidden(w, r, "clears are disabled") },
			http.StatusForbidden, "forbidden",
		},
		{
			"not found",
			func(w http.ResponseWriter, r *http.Request) { response.NotFound(w, r, "commute not found") },
			http.StatusNotFound, "not-found",
		},
		{
			"conflict",
			func(w http.ResponseWriter, r *http.Request) { response.Conflict(w, r, "commute already exists") },
			http.StatusConflict, "conflict",
		},
		{
			"internal error",
			func(w http.ResponseWriter, r *http.Request) { response.InternalError(w, r, "estimate failed") },
			http.StatusInternalServerError, "internal-error",
		},
		{
			"service unavailable",
			func(w http.ResponseWriter, r *http.Request) { response.ServiceUnavailable(w, r, "database down") },
			http.StatusServiceUnavailable, "service-unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tracedRequest(t, http.MethodGet, "/v1/commutes/abc123")
			rec := httptest.NewRecorder()

			tt.write(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("Content-Type = %q, want application/problem+json", ct)
			}

			problem := decodeProblem(t, rec)
			if problem.Status != tt.status {
				t.Errorf("problem.Status = %d, want %d", problem.Status, tt.status)
			}
			if !strings.HasSuffix(problem.Type, tt.typeSuffix) {
				t.Errorf("problem.Type = %q, want suffix %q", problem.Type, tt.typeSuffix)
			}
			if problem.Instance != "/v1/commutes/abc123" {
				t.Errorf("problem.Instance = %q, want the request path", problem.Instance)
			}
			if problem.TraceID == "" {
				t.Error("problem.TraceID must be set")
			}
		})
	}
}

func TestBadRequest_FieldErrors(t *testing.T) {
	req := tracedRequest(t, http.MethodPost, "/v1/commutes")
	rec := httptest.NewRecorder()

	response.BadRequest(rec, req, "validation failed", []models.FieldError{
		{Field: "mode", Message: "must be a known travel mode", Code: "invalid_enum"},
	})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	problem := decodeProblem(t, rec)
	if len(problem.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(problem.Errors))
	}
	if problem.Errors[0].Field != "mode" {
		t.Errorf("field = %q, want mode", problem.Errors[0].Field)
	}
}

func TestTooManyRequests_RateLimitHeaders(t *testing.T) {
	req := tracedRequest(t, http.MethodGet, "/v1/commutes/compare")
	rec := httptest.NewRecorder()

	response.TooManyRequestsWithInfo(rec, req, "rate limit exceeded", &response.RateLimitInfo{
		Limit:      30,
		Remaining:  0,
		ResetAt:    1704067200,
		RetryAfter: 45,
	})

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}

	want := map[string]string{
		"X-RateLimit-Limit":     "30",
		"X-RateLimit-Remaining": "0",
		"X-RateLimit-Reset":     "1704067200",
		"Retry-After":           "45",
	}
	for name, value := range want {
		if got := rec.Header().Get(name); got != value {
			t.Errorf("%s = %q, want %q", name, got, value)
		}
	}
}

func TestTooManyRequests_OmitsHeadersWithoutInfo(t *testing.T) {
	req := tracedRequest(t, http.MethodGet, "/v1/commutes/compare")
	rec := httptest.NewRecorder()

	response.TooManyRequests(rec, req, "rate limit exceeded")

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	for _, name := range []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"} {
		if got := rec.Header().Get(name); got != "" {
			t.Errorf("%s = %q, want unset", name, got)
		}
	}
}

func TestJSON_KeepsClientRequestID(t *testing.T) {
	var traced *http.Request
	handler := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		traced = r
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/commutes", http.NoBody)
	req.Header.Set("X-Request-Id", "client-request-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	response.JSON(rec, traced, http.StatusOK, map[string]string{"status": "ok"})

	if got := rec.Header().Get("X-Request-Id"); got != "client-request-123" {
		t.Errorf("X-Request-Id = %q, want the client's ID", got)
	}
}
