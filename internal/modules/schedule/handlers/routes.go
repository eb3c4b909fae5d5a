package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all schedule routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/schedule/generate", h.HandleGenerate)
}
