package chat

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/", h.Root)
	r.Post("/new-session", h.NewSession)
	r.Post("/chat", h.Chat)
	r.Get("/session/{sessionID}/history", h.History)
}
