package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Sushma771/supportbot/chat"
	"github.com/Sushma771/supportbot/llm"
	"github.com/Sushma771/supportbot/session"
	"github.com/Sushma771/supportbot/storage"
)

// ChatService is what the HTTP layer needs from the chat mediator.
type ChatService interface {
	Send(ctx context.Context, customerID, text string, onFragment func(string)) (string, error)
	Conversation(ctx context.Context, customerID string) ([]llm.ChatMessage, error)
	History(ctx context.Context, customerID string) ([]llm.ChatMessage, error)
	Reset(ctx context.Context, customerID string) error
}

var _ ChatService = (*chat.Mediator)(nil)

type Handler struct {
	svc ChatService
}

func NewHandler(svc ChatService) *Handler {
	return &Handler{svc: svc}
}

// HandleSendMessage accepts one customer message and streams the reply back
// as Server-Sent Events: a "message" event per fragment as it arrives, then
// a single "done" event carrying the full assembled reply.
func (h *Handler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if payload.Text == "" {
		http.Error(w, "missing text", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	reply, err := h.svc.Send(r.Context(), customerID, payload.Text, func(fragment string) {
		writeSSE(w, "message", fragment)
		flusher.Flush()
	})
	if err != nil {
		// Headers are already out; surface the failure as an event.
		status, msg := mapError(err)
		writeSSE(w, "error", fmt.Sprintf("%d %s", status, msg))
		flusher.Flush()
		return
	}

	writeSSE(w, "done", reply)
	flusher.Flush()
}

// HandleGetConversation returns the active conversation without system
// messages.
func (h *Handler) HandleGetConversation(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	messages, err := h.svc.Conversation(r.Context(), customerID)
	if err != nil {
		status, msg := mapError(err)
		http.Error(w, msg, status)
		return
	}
	writeJSON(w, map[string]any{"messages": messages})
}

// HandleGetHistory returns the customer's archived messages.
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	messages, err := h.svc.History(r.Context(), customerID)
	if err != nil {
		status, msg := mapError(err)
		http.Error(w, msg, status)
		return
	}
	writeJSON(w, map[string]any{"messages": messages})
}

// HandleReset archives the active conversation and starts a fresh one.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	if err := h.svc.Reset(r.Context(), customerID); err != nil {
		status, msg := mapError(err)
		http.Error(w, msg, status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func mapError(err error) (int, string) {
	var decodeErr *storage.DecodeError
	switch {
	case errors.Is(err, session.ErrEmptyCustomerID):
		return http.StatusBadRequest, "missing customer ID"
	case errors.As(err, &decodeErr):
		return http.StatusInternalServerError, "stored conversation is unreadable"
	default:
		return http.StatusInternalServerError, "processing error"
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding error", http.StatusInternalServerError)
	}
}

// writeSSE emits one event with a JSON-encoded data payload, so fragments
// containing newlines survive the wire format.
func writeSSE(w http.ResponseWriter, event, data string) {
	encoded, _ := json.Marshal(data)
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, encoded)
}
