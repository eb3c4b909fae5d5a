package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all tax-rate routes. Static paths, the /tax
// subtree is shared with the capital-gains, harvesting, and summary
// handlers.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/tax/rates/{location}", h.HandleGetRates)
	r.Get("/tax/jurisdictions", h.HandleListJurisdictions)
}
