package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleancommute/cleancommute/internal/api/models"
)

func TestNewProblem(t *testing.T) {
	p := models.NewProblem(models.ProblemTypeValidation, "Validation error", http.StatusBadRequest, "req_test123")

	assert.Equal(t, models.ProblemTypeValidation, p.Type)
	assert.Equal(t, "Validation error", p.Title)
	assert.Equal(t, http.StatusBadRequest, p.Status)
	assert.Equal(t, "req_test123", p.TraceID)
	assert.Empty(t, p.Detail)
	assert.Empty(t, p.Instance)
	assert.Nil(t, p.Errors)
}

func TestProblemConstructors(t *testing.T) {
	tests := []struct {
		name       string
		problem    *models.Problem
		wantType   string
		wantTitle  string
		wantStatus int
		wantDetail string
	}{
		{
			"bad request",
			models.NewBadRequest("req_1", "invalid data", nil),
			models.ProblemTypeValidation, "Validation error", http.StatusBadRequest, "invalid data",
		},
		{
			"unauthorized",
			models.NewUnauthorized("req_1", "missing API key"),
			models.ProblemTypeUnauthorized, "Unauthorized", http.StatusUnauthorized, "missing API key",
		},
		{
			"forbidden",
			models.NewForbidden("req_1", "clears are disabled"),
			models.ProblemTypeForbidden, "Forbidden", http.StatusForbidden, "clears are disabled",
		},
		{
			"not found",
			models.NewNotFound("req_1", "commute not found"),
			models.ProblemTypeNotFound, "Not found", http.StatusNotFound, "commute not found",
		},
		{
			"conflict",
			models.NewConflict("req_1", "duplicate entry"),
			models.ProblemTypeConflict, "Conflict", http.StatusConflict, "duplicate entry",
		},
		{
			"too many requests",
			models.NewTooManyRequests("req_1", "rate limit exceeded"),
			models.ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests, "rate limit exceeded",
		},
		{
			"internal error",
			models.NewInternalError("req_1", "database error"),
			models.ProblemTypeInternal, "Internal server error", http.StatusInternalServerError, "database error",
		},
		{
			"service unavailable",
			models.NewServiceUnavailable("req_1", "provider circuit open"),
			models.ProblemTypeUnavailable, "Service unavailable", http.StatusServiceUnavailable, "provider circuit open",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.problem.Type)
			assert.Equal(t, tt.wantTitle, tt.problem.Title)
			assert.Equal(t, tt.wantStatus, tt.problem.Status)
			assert.Equal(t, tt.wantDetail, tt.problem.Detail)
			assert.Equal(t, "req_1", tt.problem.TraceID)
		})
	}
}

func TestNewBadRequest_CarriesFieldErrors(t *testing.T) {
	p := models.NewBadRequest("req_1", "validation failed", []models.FieldError{
		{Field: "origin.lat", Message: "must be between -90 and 90", Code: "out_of_range"},
		{Field: "mode", Message: "required", Code: "required"},
	})

	require.Len(t, p.Errors, 2)
	assert.Equal(t, "origin.lat", p.Errors[0].Field)
	assert.Equal(t, "out_of_range", p.Errors[0].Code)
}

func TestProblem_Write(t *testing.T) {
	p := models.NewBadRequest("req_test123", "invalid input", []models.FieldError{
		{Field: "mode", Message: "must be a known travel mode"},
	})
	p.Instance = "/v1/commutes"

	w := httptest.NewRecorder()
	p.Write(w)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Equal(t, "req_test123", w.Header().Get("X-Request-Id"))

	var result models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	assert.Equal(t, models.ProblemTypeValidation, result.Type)
	assert.Equal(t, "invalid input", result.Detail)
	assert.Equal(t, "/v1/commutes", result.Instance)
	assert.Equal(t, "req_test123", result.TraceID)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "mode", result.Errors[0].Field)
}

func TestProblem_Write_OmitsEmptyCorrelationHeader(t *testing.T) {
	p := models.NewNotFound("", "commute not found")

	w := httptest.NewRecorder()
	p.Write(w)

	assert.Equal(t, http.StatusNotFound, w.Code)
	_, present := w.Header()["X-Request-Id"]
	assert.False(t, present, "no correlation header without a trace ID")
}
