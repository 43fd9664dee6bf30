package http

import (
	"encoding/json"
	"net/http"

	"github.com/blockwatch/blockwatch/internal/domain"
	"github.com/blockwatch/blockwatch/internal/usecase"
	"github.com/gorilla/mux"
)

// SettingsHandler handles HTTP requests for the settings singleton.
type SettingsHandler struct {
	settings *usecase.SettingsUseCase
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(settings *usecase.SettingsUseCase) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// RegisterRoutes registers settings routes.
func (h *SettingsHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/settings", h.GetSettings).Methods("GET")
	router.HandleFunc("/settings", h.UpdateSettings).Methods("POST")
}

// GetSettings returns the current settings.
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Settings retrieved", settings)
}

// UpdateSettings merges the supplied fields into the stored settings;
// unspecified fields are retained.
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch domain.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	settings, err := h.settings.Update(r.Context(), patch)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Settings updated", settings)
}
