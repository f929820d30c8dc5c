package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cleancommute/cleancommute/internal/api/models"
	"github.com/cleancommute/cleancommute/internal/api/response"
	"github.com/cleancommute/cleancommute/internal/routing"
)

// RouteHandler handles routing-backed comparison endpoints.
type RouteHandler struct {
	comparison *routing.Comparison
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(comparison *routing.Comparison) *RouteHandler {
	return &RouteHandler{comparison: comparison}
}

// CompareRoutes handles POST /v1/routes/compare - rank travel modes between
// two points using real route legs where the provider can supply them.
func (h *RouteHandler) CompareRoutes(w http.ResponseWriter, r *http.Request) {
	var input models.RouteCompareRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	result, err := h.comparison.Compare(r.Context(), &input)
	if err != nil {
		var validationErr *routing.ValidationError
		if errors.As(err, &validationErr) {
			response.BadRequest(w, r, "validation failed", validationErr.Errors)
			return
		}
		response.InternalError(w, r, "failed to compare routes")
		return
	}

	// Comparisons are deterministic for a short window; let clients reuse them.
	w.Header().Set("Cache-Control", "private, max-age=60")
	response.JSON(w, r, http.StatusOK, result)
}
