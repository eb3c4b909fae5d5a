package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all strategy registry routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/strategies", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleSave)
	})
}
