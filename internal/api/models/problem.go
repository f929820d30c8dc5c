package models

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC 7807 error response. Every API error is written in this
// shape with Content-Type application/problem+json.
type Problem struct {
	Type     string       `json:"type"`               // URI identifying the problem class
	Title    string       `json:"title"`              // short human-readable summary
	Status   int          `json:"status"`             // HTTP status code
	Detail   string       `json:"detail,omitempty"`   // occurrence-specific explanation
	Instance string       `json:"instance,omitempty"` // request path that produced the error
	TraceID  string       `json:"traceId"`            // correlation ID for debugging
	Errors   []FieldError `json:"errors,omitempty"`   // field-level validation errors
}

// FieldError pins a validation failure to a request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Problem type URIs. These are identifiers, not links, and stay stable
// across releases so clients can switch on them.
const (
	ProblemTypeValidation       = "https://api.cleancommute.dev/problems/validation-error"
	ProblemTypeUnauthorized     = "https://api.cleancommute.dev/problems/unauthorized"
	ProblemTypeForbidden        = "https://api.cleancommute.dev/problems/forbidden"
	ProblemTypeNotFound         = "https://api.cleancommute.dev/problems/not-found"
	ProblemTypeConflict         = "https://api.cleancommute.dev/problems/conflict"
	ProblemTypeTooManyRequests  = "https://api.cleancommute.dev/problems/too-many-requests"
	ProblemTypeUnsupportedMedia = "https://api.cleancommute.dev/problems/unsupported-media-type"
	ProblemTypeInternal         = "https://api.cleancommute.dev/problems/internal-error"
	ProblemTypeUnavailable      = "https://api.cleancommute.dev/problems/service-unavailable"
)

// NewProblem creates a Problem with the required fields.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return &Problem{
		Type:    problemType,
		Title:   title,
		Status:  status,
		TraceID: traceID,
	}
}

// Write sends the problem with its status code and correlation header.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		w.Header().Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func detailed(problemType, title string, status int, traceID, detail string) *Problem {
	p := NewProblem(problemType, title, status, traceID)
	p.Detail = detail
	return p
}

// NewBadRequest creates a 400 validation problem with field errors.
func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	p := detailed(ProblemTypeValidation, "Validation error", http.StatusBadRequest, traceID, detail)
	p.Errors = errors
	return p
}

// NewUnauthorized creates a 401 problem.
func NewUnauthorized(traceID, detail string) *Problem {
	return detailed(ProblemTypeUnauthorized, "Unauthorized", http.StatusUnauthorized, traceID, detail)
}

// NewForbidden creates a 403 problem.
func NewForbidden(traceID, detail string) *Problem {
	return detailed(ProblemTypeForbidden, "Forbidden", http.StatusForbidden, traceID, detail)
}

// NewNotFound creates a 404 problem.
func NewNotFound(traceID, detail string) *Problem {
	return detailed(ProblemTypeNotFound, "Not found", http.StatusNotFound, traceID, detail)
}

// NewConflict creates a 409 problem.
func NewConflict(traceID, detail string) *Problem {
	return detailed(ProblemTypeConflict, "Conflict", http.StatusConflict, traceID, detail)
}

// NewTooManyRequests creates a 429 problem.
func NewTooManyRequests(traceID, detail string) *Problem {
	return detailed(ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests, traceID, detail)
}

// NewInternalError creates a 500 problem.
func NewInternalError(traceID, detail string) *Problem {
	return detailed(ProblemTypeInternal, "Internal server error", http.StatusInternalServerError, traceID, detail)
}

// NewServiceUnavailable creates a 503 problem.
func NewServiceUnavailable(traceID, detail string) *Problem {
	return detailed(ProblemTypeUnavailable, "Service unavailable", http.StatusServiceUnavailable, traceID, detail)
}
