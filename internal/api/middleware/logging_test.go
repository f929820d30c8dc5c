package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/cleancommute/cleancommute/internal/api/middleware"
)

// serveLogged runs one request through RequestLogger and returns the
// decoded log line.
func serveLogged(t *testing.T, path string, inner http.HandlerFunc) map[string]interface{} {
	t.Helper()

	var buf bytes.Buffer
	log := zerolog.New(&buf)

	handler := middleware.RequestLogger(log)(inner)
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestRequestLogger_LogsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	handler := middleware.RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"cmt_1"}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/commutes", http.NoBody)
	req.Header.Set("User-Agent", "cleancommute-cli/1.0")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "request completed", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "POST", entry["method"])
	assert.Equal(t, "/v1/commutes", entry["path"])
	assert.Equal(t, float64(201), entry["status"])
	assert.Equal(t, float64(14), entry["bytes"])
	assert.Equal(t, "cleancommute-cli/1.0", entry["user_agent"])
	assert.NotEmpty(t, entry["duration"])
}

func TestRequestLogger_LevelsByStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
	}{
		{"server error logs at error", http.StatusBadGateway, "error"},
		{"client error logs at warn", http.StatusNotFound, "warn"},
		{"success logs at info", http.StatusOK, "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := serveLogged(t, "/v1/samples", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, float64(tt.status), entry["status"])
		})
	}
}

func TestRequestLogger_HealthProbesLogAtDebug(t *testing.T) {
	for _, path := range []string{"/healthz", "/readyz"} {
		entry := serveLogged(t, path, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		assert.Equal(t, "debug", entry["level"], path)
	}
}

func TestRequestLogger_FailedHealthProbeEscalates(t *testing.T) {
	entry := serveLogged(t, "/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.Equal(t, "error", entry["level"])
}

func TestRequestLogger_IncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	handler := middleware.RequestID(
		middleware.RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})),
	)

	req := httptest.NewRequest(http.MethodGet, "/v1/metadata/modes", http.NoBody)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	requestID, ok := entry["request_id"].(string)
	assert.True(t, ok)
	assert.Contains(t, requestID, "req_")
}

func TestRequestLogger_IncludesTraceAndSpanIDs(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer func() { _ = tp.Shutdown(context.Background()) }()

	var buf bytes.Buffer
	log := zerolog.New(&buf)

	handler := middleware.Tracing("test-service")(
		middleware.RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})),
	)

	req := httptest.NewRequest(http.MethodGet, "/v1/routes/compare", http.NoBody)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	traceID, ok := entry["trace_id"].(string)
	assert.True(t, ok)
	assert.Len(t, traceID, 32)

	spanID, ok := entry["span_id"].(string)
	assert.True(t, ok)
	assert.Len(t, spanID, 16)
}

func TestRequestLogger_OmitsTraceFieldsWithoutSpan(t *testing.T) {
	entry := serveLogged(t, "/v1/commutes", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	assert.NotContains(t, entry, "trace_id")
	assert.NotContains(t, entry, "span_id")
}

func TestRequestLogger_DefaultStatusCode(t *testing.T) {
	entry := serveLogged(t, "/v1/commutes", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok")) // implicit 200
	})
	assert.Equal(t, float64(200), entry["status"])
}
