// Package server exposes the chat mediator over HTTP. Replies stream back
// as Server-Sent Events; conversation and history reads are plain JSON.

package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// NewRouter builds the full HTTP router: CORS, request IDs, the customer
// chat routes, and a health check.
func NewRouter(svc ChatService) chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
	}))
	r.Use(RequestID)

	RegisterRoutes(r, NewHandler(svc))

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	return r
}

// ListenAndServe runs the router on the given port.
func ListenAndServe(port string, svc ChatService) error {
	return http.ListenAndServe(":"+port, NewRouter(svc))
}
