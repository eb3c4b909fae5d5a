package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the tax-summary route
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/tax/summary", h.HandleBuild)
}
