package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cleancommute/cleancommute/internal/api/models"
	"github.com/cleancommute/cleancommute/internal/api/response"
	"github.com/cleancommute/cleancommute/internal/commute"
)

// CommuteHandler handles commute record endpoints.
type CommuteHandler struct {
	service *commute.Service
}

// NewCommuteHandler creates a new CommuteHandler.
func NewCommuteHandler(service *commute.Service) *CommuteHandler {
	return &CommuteHandler{service: service}
}

// CreateCommute handles POST /v1/commutes - record a commute with its estimate.
func (h *CommuteHandler) CreateCommute(w http.ResponseWriter, r *http.Request) {
	var input models.CommuteCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	created, err := h.service.Create(r.Context(), &input)
	if err != nil {
		var validationErr *commute.ValidationError
		if errors.As(err, &validationErr) {
			response.BadRequest(w, r, "validation failed", validationErr.Errors)
			return
		}
		response.InternalError(w, r, "failed to record commute")
		return
	}

	location := fmt.Sprintf("/v1/commutes/%s", created.ID)
	response.Created(w, r, location, created)
}

// ListCommutes handles GET /v1/commutes - list recorded commutes, newest first.
func (h *CommuteHandler) ListCommutes(w http.ResponseWriter, r *http.Request) {
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
		response.InternalError(w, r, "failed to list commutes")
		return
	}

	response.JSON(w, r, http.StatusOK, page)
}

// GetCommute handles GET /v1/commutes/{commuteId} - fetch a single commute.
func (h *CommuteHandler) GetCommute(w http.ResponseWriter, r *http.Request) {
	commuteID := chi.URLParam(r, "commuteId")

	record, err := h.service.Get(r.Context(), commuteID)
	if err != nil {
		if errors.Is(err, commute.ErrCommuteNotFound) {
			response.NotFound(w, r, fmt.Sprintf("commute %s not found", commuteID))
			return
		}
		response.InternalError(w, r, "failed to get commute")
		return
	}

	response.JSON(w, r, http.StatusOK, record)
}

// DeleteCommute handles DELETE /v1/commutes/{commuteId} - delete a commute.
func (h *CommuteHandler) DeleteCommute(w http.ResponseWriter, r *http.Request) {
	commuteID := chi.URLParam(r, "commuteId")

	if err := h.service.Delete(r.Context(), commuteID); err != nil {
		if errors.Is(err, commute.ErrCommuteNotFound) {
			response.NotFound(w, r, fmt.Sprintf("commute %s not found", commuteID))
			return
		}
		response.InternalError(w, r, "failed to delete commute")
		return
	}

	response.NoContent(w, r)
}

// parseLimit reads the limit query parameter. A missing limit returns 0,
// which the service replaces with the default page size.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
