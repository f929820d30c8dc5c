package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/cleancommute/cleancommute/internal/api/models"
	"github.com/cleancommute/cleancommute/internal/api/response"
	"github.com/cleancommute/cleancommute/internal/commute"
	"github.com/cleancommute/cleancommute/internal/featureflags"
	"github.com/cleancommute/cleancommute/internal/sample"
)

// AdminHandler handles destructive and operational admin endpoints.
type AdminHandler struct {
	commutes *commute.Service
	samples  *sample.Service
	flags    *featureflags.Service
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(commutes *commute.Service, samples *sample.Service, flags *featureflags.Service) *AdminHandler {
	return &AdminHandler{
		commutes: commutes,
		samples:  samples,
		flags:    flags,
	}
}

// ClearCommutes handles POST /v1/admin/commutes:clear - delete all commutes.
// Refused unless the allow_clear feature flag is enabled.
func (h *AdminHandler) ClearCommutes(w http.ResponseWriter, r *http.Request) {
	if !h.flags.AllowClear(r.Context()) {
		response.Forbidden(w, r, "clear operations are disabled")
		return
	}

	result, err := h.commutes.Clear(r.Context())
	if err != nil {
		response.InternalError(w, r, "failed to clear commutes")
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

// ClearSamples handles POST /v1/admin/samples:clear - delete all samples.
// Refused unless the allow_clear feature flag is enabled.
func (h *AdminHandler) ClearSamples(w http.ResponseWriter, r *http.Request) {
	if !h.flags.AllowClear(r.Context()) {
		response.Forbidden(w, r, "clear operations are disabled")
		return
	}

	result, err := h.samples.Clear(r.Context())
	if err != nil {
		response.InternalError(w, r, "failed to clear samples")
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

// ListFeatureFlags handles GET /v1/admin/feature-flags - list all flags.
func (h *AdminHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	flags := h.flags.GetAllFlags(r.Context())

	keys := make([]string, 0, len(flags))
	for key := range flags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	list := models.FeatureFlagList{
		Items: make([]models.FeatureFlag, 0, len(keys)),
	}
	for _, key := range keys {
		list.Items = append(list.Items, flagToAPI(flags[key]))
	}

	response.JSON(w, r, http.StatusOK, list)
}

// UpdateFeatureFlag handles PUT /v1/admin/feature-flags/{key} - toggle a flag.
func (h *AdminHandler) UpdateFeatureFlag(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	existing := h.flags.GetFlag(r.Context(), key)
	if existing == nil {
		response.NotFound(w, r, fmt.Sprintf("feature flag %s not found", key))
		return
	}

	var input models.FeatureFlagUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	updated := &featureflags.Flag{
		Key:         key,
		Enabled:     input.Enabled,
		Description: existing.Description,
	}
	if err := h.flags.SetFlag(r.Context(), updated); err != nil {
		response.InternalError(w, r, "failed to update feature flag")
		return
	}

	response.JSON(w, r, http.StatusOK, flagToAPI(updated))
}

// flagToAPI converts a feature flag to its wire form.
func flagToAPI(f *featureflags.Flag) models.FeatureFlag {
	return models.FeatureFlag{
		Key:         f.Key,
		Enabled:     f.Enabled,
		Description: f.Description,
		UpdatedAt:   models.Timestamp(f.UpdatedAt),
	}
}
