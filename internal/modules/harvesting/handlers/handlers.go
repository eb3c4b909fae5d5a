// Package handlers provides HTTP handlers for tax-loss harvesting scans.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/taxfolio/internal/domain"
	"github.com/aristath/taxfolio/internal/modules/harvesting"
	"github.com/aristath/taxfolio/internal/modules/taxrates"
	"github.com/rs/zerolog"
)

// Handler handles harvesting HTTP requests
type Handler struct {
	scanner *harvesting.Scanner
	rates   *taxrates.Provider
	log     zerolog.Logger
}

// NewHandler creates a new harvesting handler
func NewHandler(scanner *harvesting.Scanner, rates *taxrates.Provider, log zerolog.Logger) *Handler {
	return &Handler{
		scanner: scanner,
		rates:   rates,
		log:     log.With().Str("handler", "harvesting").Logger(),
	}
}

// ScanRequest represents a harvesting scan request
type ScanRequest struct {
	Location         string              `json:"location"`
	Holdings         []domain.Holding    `json:"holdings"`
	MinLossThreshold float64             `json:"min_loss_threshold"`
	History          []domain.TradeEvent `json:"history,omitempty"`
	AsOf             time.Time           `json:"as_of,omitempty"`
}

// HandleScan handles POST /api/tax/harvesting/scan
func (h *Handler) HandleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
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

	opportunities, err := h.scanner.Scan(req.Holdings, rates, req.MinLossThreshold, req.History, req.AsOf)
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			http.Error(w, validationErr.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Msg("Harvesting scan failed")
		http.Error(w, "Harvesting scan failed", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"opportunities": opportunities,
			"count":         len(opportunities),
		},
		"metadata": map[string]interface{}{
			"location":  rates.Location,
			"as_of":     req.AsOf.Format(time.RFC3339),
			"timestamp": time.Now().Format(time.RFC3339),
			"note":      "Wash-sale flags are heuristic; they only reflect the supplied trade history",
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
