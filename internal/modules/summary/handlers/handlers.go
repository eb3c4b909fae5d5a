// Package handlers provides the HTTP handler for the tax-optimization
// summary.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/taxfolio/internal/domain"
	"github.com/aristath/taxfolio/internal/modules/summary"
	"github.com/aristath/taxfolio/internal/modules/taxrates"
	"github.com/rs/zerolog"
)

// Handler handles tax-summary HTTP requests
type Handler struct {
	service *summary.Service
	rates   *taxrates.Provider
	log     zerolog.Logger
}

// NewHandler creates a new summary handler
func NewHandler(service *summary.Service, rates *taxrates.Provider, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		rates:   rates,
		log:     log.With().Str("handler", "summary").Logger(),
	}
}

// BuildSummaryRequest is the request body for a summary build
type BuildSummaryRequest struct {
	PortfolioID      string                     `json:"portfolio_id"`
	Location         string                     `json:"location"`
	Holdings         []domain.Holding           `json:"holdings"`
	Strategy         domain.RebalancingStrategy `json:"strategy"`
	MinLossThreshold float64                    `json:"min_loss_threshold"`
	History          []domain.TradeEvent        `json:"history,omitempty"`
	AsOf             time.Time                  `json:"as_of,omitempty"`
}

// HandleBuild handles POST /api/tax/summary
func (h *Handler) HandleBuild(w http.ResponseWriter, r *http.Request) {
	var req BuildSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.AsOf.IsZero() {
		req.AsOf = time.Now().UTC()
	}

	rates, err := h.rates.GetRates(req.Location)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to resolve tax rates")
		http.Error(w, "Failed to resolve tax rates", http.StatusInternalServerError)
		return
	}

	result, err := h.service.Build(summary.BuildRequest{
		PortfolioID:      req.PortfolioID,
		Holdings:         req.Holdings,
		Rates:            rates,
		Strategy:         req.Strategy,
		MinLossThreshold: req.MinLossThreshold,
		History:          req.History,
		AsOf:             req.AsOf,
	})
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			http.Error(w, validationErr.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Msg("Failed to build tax summary")
		http.Error(w, "Failed to build tax summary", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"location":  rates.Location,
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
