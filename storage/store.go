// Package storage provides conversation storage abstraction.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interface
// - Allows swapping between memory, file, SQLite, Postgres without API changes
// - Each storage implementation encapsulates its own data structures and protocols

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sushma771/supportbot/llm"
)

// ErrNotFound signals that no persisted record exists for a customer.
// Callers construct the default conversation when loading the active
// record, or treat history as empty.
var ErrNotFound = errors.New("storage: record not found")

// DecodeError reports a persisted record that could not be decoded.
// Corruption is distinct from absence and must never be silently
// replaced with an empty default.
type DecodeError struct {
	CustomerID string
	Kind       string // "active" or "history"
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("storage: malformed %s record for customer %q: %v", e.Kind, e.CustomerID, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ConversationStore defines the interface for persisting a customer's
// active conversation and append-only history. The customer ID is an
// opaque partition key; no validation is performed.
//
// Records are not protected against concurrent writers for the same
// customer ID; callers are expected to serialize access per customer.
type ConversationStore interface {
	// LoadActive returns the persisted active conversation, or ErrNotFound.
	LoadActive(ctx context.Context, customerID string) ([]llm.ChatMessage, error)

	// SaveActive fully overwrites the persisted active record.
	// Safe to call after every mutation (write-through, no batching).
	SaveActive(ctx context.Context, customerID string, messages []llm.ChatMessage) error

	// AppendHistory appends the non-system messages, in order, to the
	// customer's history record. System-role entries are filtered here.
	AppendHistory(ctx context.Context, customerID string, messages []llm.ChatMessage) error

	// LoadHistory returns the history record, or ErrNotFound.
	LoadHistory(ctx context.Context, customerID string) ([]llm.ChatMessage, error)
}

// archivable filters out system-role messages before they reach history.
func archivable(messages []llm.ChatMessage) []llm.ChatMessage {
	out := make([]llm.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == llm.RoleSystem {
			continue
		}
		out = append(out, msg)
	}
	return out
}
