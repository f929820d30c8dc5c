package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cleancommute/cleancommute/internal/api/models"
	"github.com/cleancommute/cleancommute/internal/api/response"
	"github.com/cleancommute/cleancommute/internal/sample"
)

// SampleHandler handles sample record endpoints.
type SampleHandler struct {
	service *sample.Service
}

// NewSampleHandler creates a new SampleHandler.
func NewSampleHandler(service *sample.Service) *SampleHandler {
	return &SampleHandler{service: service}
}

// CreateSample handles POST /v1/samples - store a sample record.
func (h *SampleHandler) CreateSample(w http.ResponseWriter, r *http.Request) {
	var input models.SampleCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	created, err := h.service.Create(r.Context(), &input)
	if err != nil {
		var validationErr *sample.ValidationError
		if errors.As(err, &validationErr) {
			response.BadRequest(w, r, "validation failed", validationErr.Errors)
			return
		}
		response.InternalError(w, r, "failed to store sample")
		return
	}

	location := fmt.Sprintf("/v1/samples/%s", created.ID)
	response.Created(w, r, location, created)
}

// GetSample handles GET /v1/samples/{sampleId} - fetch a single sample.
func (h *SampleHandler) GetSample(w http.ResponseWriter, r *http.Request) {
	sampleID := chi.URLParam(r, "sampleId")

	record, err := h.service.Get(r.Context(), sampleID)
	if err != nil {
		if errors.Is(err, sample.ErrSampleNotFound) {
			response.NotFound(w, r, fmt.Sprintf("sample %s not found", sampleID))
			return
		}
		response.InternalError(w, r, "failed to get sample")
		return
	}

	response.JSON(w, r, http.StatusOK, record)
}

// ListSamples handles GET /v1/samples - list stored samples, newest first.
func (h *SampleHandler) ListSamples(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		response.BadRequest(w, r, "validation failed", []models.FieldError{
			{Field: "limit", Message: "must be an integer"},
		})
		return
	}
	cursor := r.URL.Query().Get("cursor")

	page, err := h.service.List(r.Context(), limit, cursor)
	if err != nil {
		response.InternalError(w, r, "failed to list samples")
		return
	}

	response.JSON(w, r, http.StatusOK, page)
}
