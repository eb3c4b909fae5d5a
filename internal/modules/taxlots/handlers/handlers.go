// Package handlers provides HTTP handlers for capital-gains computations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/taxfolio/internal/domain"
	"github.com/aristath/taxfolio/internal/modules/taxlots"
	"github.com/aristath/taxfolio/internal/modules/taxrates"
	"github.com/rs/zerolog"
)

// Handler handles capital-gains HTTP requests
type Handler struct {
	calculator *taxlots.Calculator
	rates      *taxrates.Provider
	log        zerolog.Logger
}

// NewHandler creates a new capital-gains handler
func NewHandler(calculator *taxlots.Calculator, rates *taxrates.Provider, log zerolog.Logger) *Handler {
	return &Handler{
		calculator: calculator,
		rates:      rates,
		log:        log.With().Str("handler", "capital_gains").Logger(),
	}
}

// ComputeSaleRequest represents a request to compute a lot-matched sale
type ComputeSaleRequest struct {
	Location      string           `json:"location"`
	Ticker        string           `json:"ticker"`
	Shares        float64          `json:"shares"`
	SalePrice     float64          `json:"sale_price"`
	SaleDate      time.Time        `json:"sale_date"`
	Method        domain.LotMethod `json:"method"`
	SpecificOrder []string         `json:"specific_order,omitempty"`
	Lots          []domain.TaxLot  `json:"lots"`
}

// HandleComputeSale handles POST /api/tax/capital-gains
func (h *Handler) HandleComputeSale(w http.ResponseWriter, r *http.Request) {
	var req ComputeSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Method == "" {
		req.Method = domain.LotMethodFIFO
	}
	if req.SaleDate.IsZero() {
		req.SaleDate = time.Now().UTC()
	}

	rates, err := h.rates.GetRates(req.Location)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to resolve tax rates")
		http.Error(w, "Failed to resolve tax rates", http.StatusInternalServerError)
		return
	}

	result, err := h.calculator.ComputeSale(taxlots.SaleRequest{
		Ticker:        req.Ticker,
		Shares:        req.Shares,
		SalePrice:     req.SalePrice,
		SaleDate:      req.SaleDate,
		Method:        req.Method,
		SpecificOrder: req.SpecificOrder,
	}, req.Lots, rates)
	if err != nil {
		var validationErr *domain.ValidationError
		var insufficientErr *domain.InsufficientLotSharesError
		switch {
		case errors.As(err, &validationErr):
			http.Error(w, validationErr.Error(), http.StatusBadRequest)
		case errors.As(err, &insufficientErr):
			http.Error(w, insufficientErr.Error(), http.StatusUnprocessableEntity)
		default:
			h.log.Error().Err(err).Msg("Failed to compute sale")
			http.Error(w, "Failed to compute sale", http.StatusInternalServerError)
		}
		return
	}

	response := map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"location":  rates.Location,
			"timestamp": time.Now().Format(time.RFC3339),
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
