// Package storage provides in-memory conversation storage.
//
// Information Hiding:
// - Map storage structure hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and ephemeral sessions

package storage

import (
	"context"
	"sync"

	"github.com/Sushma771/supportbot/llm"
)

// InMemoryStore implements ConversationStore using in-memory maps.
// Data is lost when the process terminates.
type InMemoryStore struct {
	mu      sync.RWMutex
	active  map[string][]llm.ChatMessage
	history map[string][]llm.ChatMessage
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		active:  make(map[string][]llm.ChatMessage),
		history: make(map[string][]llm.ChatMessage),
	}
}

// LoadActive returns the stored active conversation, or ErrNotFound.
func (s *InMemoryStore) LoadActive(ctx context.Context, customerID string) ([]llm.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.active[customerID]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy to avoid external mutations
	copied := make([]llm.ChatMessage, len(messages))
	copy(copied, messages)
	return copied, nil
}

// SaveActive fully overwrites the stored active record.
func (s *InMemoryStore) SaveActive(ctx context.Context, customerID string, messages []llm.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Make a copy to avoid external mutations
	copied := make([]llm.ChatMessage, len(messages))
	copy(copied, messages)
	s.active[customerID] = copied

	return nil
}

// AppendHistory appends the non-system messages to the customer's history.
func (s *InMemoryStore) AppendHistory(ctx context.Context, customerID string, messages []llm.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[customerID] = append(s.history[customerID], archivable(messages)...)
	return nil
}

// LoadHistory returns the stored history, or ErrNotFound.
func (s *InMemoryStore) LoadHistory(ctx context.Context, customerID string) ([]llm.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.history[customerID]
	if !ok {
		return nil, ErrNotFound
	}

	copied := make([]llm.ChatMessage, len(messages))
	copy(copied, messages)
	return copied, nil
}

// Verify InMemoryStore implements ConversationStore
var _ ConversationStore = (*InMemoryStore)(nil)
