// Package chat mediates a customer interaction: it appends the submitted
// text to the active conversation, streams the completion back fragment by
// fragment, and persists the assembled reply.

package chat

import (
	"context"

	"github.com/Sushma771/supportbot/llm"
	"github.com/Sushma771/supportbot/session"
)

// ErrorReplyPrefix marks an assistant message that stands in for a failed
// completion. The placeholder is appended and persisted exactly as if it
// were a genuine reply, preserving conversation continuity and giving the
// operator visibility.
const ErrorReplyPrefix = "⚠️ Error: "

// Mediator ties the session manager to the completion streamer. Each
// customer interaction is one sequential unit of work; the streaming step
// is the only suspension point.
type Mediator struct {
	sessions *session.Manager
	client   *llm.Client
}

// NewMediator creates a mediator over the given session manager and
// completion provider.
func NewMediator(sessions *session.Manager, provider llm.Provider) *Mediator {
	return &Mediator{
		sessions: sessions,
		client:   llm.NewClient(provider),
	}
}

// Send processes one user message: it appends and persists the user text,
// streams the completion over the full message list (system message
// included), forwards each fragment to onFragment as it arrives, then
// appends and persists the assembled assistant reply.
//
// A transport or backend failure during streaming does not fail the call:
// the reply becomes an ErrorReplyPrefix placeholder and is persisted like
// any other assistant message. Storage failures and an empty customer ID
// do fail the call. A single attempt is made; there are no retries.
func (m *Mediator) Send(ctx context.Context, customerID, text string, onFragment func(string)) (string, error) {
	if err := m.sessions.AppendUserMessage(ctx, customerID, text); err != nil {
		return "", err
	}

	messages, err := m.sessions.Messages(ctx, customerID)
	if err != nil {
		return "", err
	}

	reply, streamErr := m.client.StreamChat(ctx, messages, onFragment)
	if streamErr != nil {
		reply = ErrorReplyPrefix + streamErr.Error()
	}

	if err := m.sessions.AppendAssistantMessage(ctx, customerID, reply); err != nil {
		return "", err
	}

	return reply, nil
}

// Conversation returns the customer's active conversation with system
// messages excluded, for display.
func (m *Mediator) Conversation(ctx context.Context, customerID string) ([]llm.ChatMessage, error) {
	return m.sessions.DisplayMessages(ctx, customerID)
}

// History returns the customer's archived messages.
func (m *Mediator) History(ctx context.Context, customerID string) ([]llm.ChatMessage, error) {
	return m.sessions.History(ctx, customerID)
}

// Reset archives the current conversation and starts a fresh one.
func (m *Mediator) Reset(ctx context.Context, customerID string) error {
	return m.sessions.Reset(ctx, customerID)
}
