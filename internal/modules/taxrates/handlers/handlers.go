// Package handlers provides HTTP handlers for tax-rate lookups.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/taxfolio/internal/modules/taxrates"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles tax-rate HTTP requests
type Handler struct {
	provider   *taxrates.Provider
	repository *taxrates.Repository
	log        zerolog.Logger
}

// NewHandler creates a new tax-rates handler
func NewHandler(provider *taxrates.Provider, repository *taxrates.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		provider:   provider,
		repository: repository,
		log:        log.With().Str("handler", "taxrates").Logger(),
	}
}

// HandleGetRates handles GET /api/tax/rates/{location}
func (h *Handler) HandleGetRates(w http.ResponseWriter, r *http.Request) {
	location := chi.URLParam(r, "location")

	rates, err := h.provider.GetRates(location)
	if err != nil {
		h.log.Error().Err(err).Str("location", location).Msg("Failed to get tax rates")
		http.Error(w, "Failed to get tax rates", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": rates,
		"metadata": map[string]interface{}{
			"requested_location": location,
			"resolved_location":  rates.Location,
			"timestamp":          time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleListJurisdictions handles GET /api/tax/jurisdictions
func (h *Handler) HandleListJurisdictions(w http.ResponseWriter, r *http.Request) {
	locations, err := h.repository.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jurisdictions")
		http.Error(w, "Failed to list jurisdictions", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"jurisdictions": locations,
			"count":         len(locations),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
