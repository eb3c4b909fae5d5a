package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all capital-gains routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/tax/capital-gains", h.HandleComputeSale)
}
