// Package handlers provides HTTP handlers for the forward rebalancing
// calendar.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/taxfolio/internal/domain"
	"github.com/aristath/taxfolio/internal/events"
	"github.com/aristath/taxfolio/internal/modules/schedule"
	"github.com/rs/zerolog"
)

// Handler handles schedule HTTP requests
type Handler struct {
	generator *schedule.Generator
	bus       *events.Bus
	log       zerolog.Logger
}

// NewHandler creates a new schedule handler. bus may be nil.
func NewHandler(generator *schedule.Generator, bus *events.Bus, log zerolog.Logger) *Handler {
	return &Handler{
		generator: generator,
		bus:       bus,
		log:       log.With().Str("handler", "schedule").Logger(),
	}
}

// GenerateRequest is the request body for a schedule build
type GenerateRequest struct {
	PortfolioID string                     `json:"portfolio_id"`
	Strategy    domain.RebalancingStrategy `json:"strategy"`
	StartDate   time.Time                  `json:"start_date,omitempty"`
	Holdings    []domain.Holding           `json:"holdings,omitempty"`
}

// HandleGenerate handles POST /api/schedule/generate
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.StartDate.IsZero() {
		req.StartDate = time.Now().UTC()
	}

	scheduleEvents, err := h.generator.Generate(req.Strategy, req.StartDate)
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			http.Error(w, validationErr.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Msg("Failed to generate schedule")
		http.Error(w, "Failed to generate schedule", http.StatusInternalServerError)
		return
	}

	if h.bus != nil {
		h.bus.Publish(events.EventScheduleGenerated, events.ScheduleGeneratedData{
			PortfolioID: req.PortfolioID,
			EventCount:  len(scheduleEvents),
			Frequency:   string(req.Strategy.RebalanceFrequency),
		})
	}

	response := map[string]interface{}{
		"data": scheduleEvents,
		"metadata": map[string]interface{}{
			"count":     len(scheduleEvents),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	if len(req.Holdings) > 0 {
		if optimal := h.generator.OptimalRebalanceDate(req.Holdings); !optimal.IsZero() {
			response["metadata"].(map[string]interface{})["optimal_rebalance_date"] = optimal.Format(time.RFC3339)
		}
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
