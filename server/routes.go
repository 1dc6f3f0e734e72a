package server

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/customers/{customerID}", func(r chi.Router) {
		r.Post("/messages", h.HandleSendMessage)
		r.Get("/conversation", h.HandleGetConversation)
		r.Get("/history", h.HandleGetHistory)
		r.Post("/reset", h.HandleReset)
	})
}
