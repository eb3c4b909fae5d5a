// Package handlers provides HTTP handlers for the strategy registry.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/taxfolio/internal/domain"
	"github.com/aristath/taxfolio/internal/modules/strategies"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles strategy registry HTTP requests
type Handler struct {
	repo *strategies.Repository
	log  zerolog.Logger
}

// NewHandler creates a new strategies handler
func NewHandler(repo *strategies.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "strategies").Logger(),
	}
}

// HandleList handles GET /api/strategies
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list strategies")
		http.Error(w, "Failed to list strategies", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": list,
		"metadata": map[string]interface{}{
			"count":     len(list),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGet handles GET /api/strategies/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	strategy, err := h.repo.GetByID(id)
	if err != nil {
		h.log.Error().Err(err).Str("strategy_id", id).Msg("Failed to load strategy")
		http.Error(w, "Failed to load strategy", http.StatusInternalServerError)
		return
	}
	if strategy == nil {
		http.Error(w, "Strategy not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": strategy,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleSave handles PUT /api/strategies/{id}
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var strategy domain.RebalancingStrategy
	if err := json.NewDecoder(r.Body).Decode(&strategy); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	strategy.ID = chi.URLParam(r, "id")

	if err := h.repo.Save(strategy); err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			http.Error(w, validationErr.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Msg("Failed to save strategy")
		http.Error(w, "Failed to save strategy", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": strategy,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
