package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cleancommute/cleancommute/internal/api/models"
	"github.com/cleancommute/cleancommute/internal/api/response"
	"github.com/cleancommute/cleancommute/internal/emissions"
)

// EmissionsHandler handles emission estimate endpoints.
type EmissionsHandler struct{}

// NewEmissionsHandler creates a new EmissionsHandler.
func NewEmissionsHandler() *EmissionsHandler {
	return &EmissionsHandler{}
}

// Estimate handles POST /v1/emissions/estimate - estimate emissions for a single trip.
func (h *EmissionsHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var input models.EstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	est, err := emissions.Calculate(input.DistanceKm, input.Mode, input.Passengers)
	if err != nil {
		if errors.Is(err, emissions.ErrInvalidDistance) {
			response.BadRequest(w, r, "validation failed", []models.FieldError{
				{Field: "distance_km", Message: "must be a positive number"},
			})
			return
		}
		response.InternalError(w, r, "failed to compute estimate")
		return
	}

	response.JSON(w, r, http.StatusOK, estimateToAPI(est))
}

// Compare handles POST /v1/emissions/compare - rank all modes for a distance.
func (h *EmissionsHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var input models.CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	options, err := emissions.CompareModes(input.DistanceKm, input.Passengers)
	if err != nil {
		if errors.Is(err, emissions.ErrInvalidDistance) {
			response.BadRequest(w, r, "validation failed", []models.FieldError{
				{Field: "distance_km", Message: "must be a positive number"},
			})
			return
		}
		response.InternalError(w, r, "failed to compare modes")
		return
	}

	resp := models.CompareResponse{
		Options: make([]models.EmissionEstimate, 0, len(options)),
	}
	for _, est := range options {
		resp.Options = append(resp.Options, estimateToAPI(est))
	}

	response.JSON(w, r, http.StatusOK, resp)
}

// estimateToAPI converts a computed estimate to its wire form.
func estimateToAPI(est emissions.Estimate) models.EmissionEstimate {
	return models.EmissionEstimate{
		Mode:          est.Mode.String(),
		DistanceKm:    est.DistanceKm,
		Passengers:    est.Passengers,
		FactorKgPerKm: est.FactorKgPerKm,
		KgCO2e:        est.KgCO2e,
	}
}
