// Package handlers provides HTTP handlers for rebalancing analysis and
// trigger evaluation.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/taxfolio/internal/domain"
	"github.com/aristath/taxfolio/internal/modules/rebalancing"
	"github.com/rs/zerolog"
)

// Handler handles rebalancing HTTP requests
type Handler struct {
	service *rebalancing.Service
	log     zerolog.Logger
}

// NewHandler creates a new rebalancing handler
func NewHandler(service *rebalancing.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "rebalancing").Logger(),
	}
}

// HandleAnalyze handles POST /api/rebalancing/analyze
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req rebalancing.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	analysis, err := h.service.AnalyzePortfolio(req)
	if err != nil {
		h.writeError(w, err, "Failed to analyze portfolio")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": analysis,
		"metadata": map[string]interface{}{
			"cached":    analysis.Cached,
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// BatchAnalyzeRequest is a list of independent portfolio analyses
type BatchAnalyzeRequest struct {
	Portfolios []rebalancing.AnalyzeRequest `json:"portfolios"`
}

// HandleAnalyzeBatch handles POST /api/rebalancing/analyze/batch
func (h *Handler) HandleAnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchAnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Portfolios) == 0 {
		http.Error(w, "No portfolios supplied", http.StatusBadRequest)
		return
	}

	results := h.service.AnalyzeBatch(r.Context(), req.Portfolios)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": results,
		"metadata": map[string]interface{}{
			"count":     len(results),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// EvaluateTriggerRequest carries a trigger evaluation over a portfolio
type EvaluateTriggerRequest struct {
	PortfolioID string                     `json:"portfolio_id"`
	Assets      []domain.AssetClass        `json:"assets"`
	Trigger     rebalancing.TriggerRequest `json:"trigger"`
	AsOf        time.Time                  `json:"as_of,omitempty"`
}

// HandleEvaluateTrigger handles POST /api/rebalancing/triggers/evaluate
func (h *Handler) HandleEvaluateTrigger(w http.ResponseWriter, r *http.Request) {
	var req EvaluateTriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	now := req.AsOf
	if now.IsZero() {
		now = time.Now().UTC()
	}

	decision, err := h.service.EvaluateTrigger(req.PortfolioID, req.Assets, req.Trigger, now)
	if err != nil {
		h.writeError(w, err, "Failed to evaluate trigger")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": decision,
		"metadata": map[string]interface{}{
			"trigger_type": req.Trigger.Type,
			"timestamp":    time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	var validationErr *domain.ValidationError
	var insufficientErr *domain.InsufficientLotSharesError
	switch {
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.As(err, &insufficientErr):
		http.Error(w, insufficientErr.Error(), http.StatusUnprocessableEntity)
	default:
		h.log.Error().Err(err).Msg(fallback)
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
