package handler

import (
	"net/http"

	"github.com/cleancommute/cleancommute/internal/api/models"
	"github.com/cleancommute/cleancommute/internal/api/response"
	"github.com/cleancommute/cleancommute/internal/emissions"
)

// MetadataHandler handles metadata endpoints.
type MetadataHandler struct{}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler() *MetadataHandler {
	return &MetadataHandler{}
}

// ListModes handles GET /v1/metadata/modes - the travel mode enumeration
// with emission factors, in canonical table order.
func (h *MetadataHandler) ListModes(w http.ResponseWriter, r *http.Request) {
	modes := emissions.Modes()

	resp := models.ModesResponse{
		Modes: make([]models.ModeInfo, 0, len(modes)),
	}
	for _, m := range modes {
		resp.Modes = append(resp.Modes, models.ModeInfo{
			Mode:          m.String(),
			FactorKgPerKm: m.FactorKgPerKm(),
			PerVehicle:    m.PerVehicle(),
		})
	}

	// The factor table only changes with a deploy.
	w.Header().Set("Cache-Control", "public, max-age=3600")
	response.JSON(w, r, http.StatusOK, resp)
}
