// Package session owns the in-memory active conversation per customer.
//
// The Manager is an explicit session store with a defined lifecycle:
// conversations are populated on demand, never evicted within a single
// run, and the manager is injected into request-handling code rather
// than accessed as global state.

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Sushma771/supportbot/llm"
	"github.com/Sushma771/supportbot/storage"
)

// ErrEmptyCustomerID is returned when an operation is attempted without a
// customer ID. The core performs no storage operations in that case.
var ErrEmptyCustomerID = errors.New("session: empty customer ID")

// Manager mediates the lifecycle of each customer's active conversation:
// lazy load on first access, append, and archive-into-history on reset.
//
// Every mutation is written through to storage before it is visible in
// memory, so after any successful call the persisted active record equals
// the in-memory record exactly.
//
// Mutations for the same customer ID are serialized with a keyed mutex;
// different customers proceed independently.
type Manager struct {
	store        storage.ConversationStore
	systemPrompt string

	mu     sync.Mutex
	active map[string][]llm.ChatMessage
	locks  map[string]*sync.Mutex
}

// NewManager creates a session manager backed by the given store. Every
// fresh conversation begins with a single system message carrying
// systemPrompt.
func NewManager(store storage.ConversationStore, systemPrompt string) *Manager {
	return &Manager{
		store:        store,
		systemPrompt: systemPrompt,
		active:       make(map[string][]llm.ChatMessage),
		locks:        make(map[string]*sync.Mutex),
	}
}

// customerLock returns the mutex serializing access to one customer.
func (m *Manager) customerLock(customerID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[customerID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[customerID] = lock
	}
	return lock
}

func (m *Manager) getConversation(customerID string) ([]llm.ChatMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversation, ok := m.active[customerID]
	return conversation, ok
}

func (m *Manager) setConversation(customerID string, conversation []llm.ChatMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[customerID] = conversation
}

// EnsureLoaded loads the customer's active conversation into memory if it
// is not already present. A customer never seen before starts with the
// single default system message. Idempotent.
func (m *Manager) EnsureLoaded(ctx context.Context, customerID string) error {
	if customerID == "" {
		return ErrEmptyCustomerID
	}

	lock := m.customerLock(customerID)
	lock.Lock()
	defer lock.Unlock()

	return m.ensureLoadedLocked(ctx, customerID)
}

// ensureLoadedLocked assumes the customer lock is held.
func (m *Manager) ensureLoadedLocked(ctx context.Context, customerID string) error {
	if _, ok := m.getConversation(customerID); ok {
		return nil
	}

	conversation, err := m.store.LoadActive(ctx, customerID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to load active conversation: %w", err)
		}
		conversation = []llm.ChatMessage{llm.SystemMessage(m.systemPrompt)}
	}

	m.setConversation(customerID, conversation)
	return nil
}

// Messages returns a copy of the customer's full active conversation,
// loading it first if necessary.
func (m *Manager) Messages(ctx context.Context, customerID string) ([]llm.ChatMessage, error) {
	if customerID == "" {
		return nil, ErrEmptyCustomerID
	}

	lock := m.customerLock(customerID)
	lock.Lock()
	defer lock.Unlock()

	if err := m.ensureLoadedLocked(ctx, customerID); err != nil {
		return nil, err
	}

	conversation, _ := m.getConversation(customerID)
	copied := make([]llm.ChatMessage, len(conversation))
	copy(copied, conversation)
	return copied, nil
}

// DisplayMessages returns the active conversation with system messages
// excluded, in order, for presentation.
func (m *Manager) DisplayMessages(ctx context.Context, customerID string) ([]llm.ChatMessage, error) {
	messages, err := m.Messages(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return WithoutSystem(messages), nil
}

// AppendUserMessage appends a user message to the active conversation and
// persists the full conversation immediately.
func (m *Manager) AppendUserMessage(ctx context.Context, customerID, text string) error {
	return m.appendMessage(ctx, customerID, llm.UserMessage(text))
}

// AppendAssistantMessage appends an assistant message (the fully assembled
// streamed text, even if it is an error placeholder) and persists.
func (m *Manager) AppendAssistantMessage(ctx context.Context, customerID, text string) error {
	return m.appendMessage(ctx, customerID, llm.AssistantMessage(text))
}

func (m *Manager) appendMessage(ctx context.Context, customerID string, msg llm.ChatMessage) error {
	if customerID == "" {
		return ErrEmptyCustomerID
	}

	lock := m.customerLock(customerID)
	lock.Lock()
	defer lock.Unlock()

	if err := m.ensureLoadedLocked(ctx, customerID); err != nil {
		return err
	}

	conversation, _ := m.getConversation(customerID)
	updated := make([]llm.ChatMessage, len(conversation), len(conversation)+1)
	copy(updated, conversation)
	updated = append(updated, msg)

	// Persist first: the in-memory conversation only advances when the
	// write-through succeeds, so memory and storage never diverge.
	if err := m.store.SaveActive(ctx, customerID, updated); err != nil {
		return fmt.Errorf("failed to persist conversation: %w", err)
	}

	m.setConversation(customerID, updated)
	return nil
}

// Reset archives the current conversation's non-system messages into
// history, then replaces the active conversation with a fresh one holding
// only the default system message, persisted as the new active record.
// History is never truncated.
func (m *Manager) Reset(ctx context.Context, customerID string) error {
	if customerID == "" {
		return ErrEmptyCustomerID
	}

	lock := m.customerLock(customerID)
	lock.Lock()
	defer lock.Unlock()

	if err := m.ensureLoadedLocked(ctx, customerID); err != nil {
		return err
	}

	conversation, _ := m.getConversation(customerID)
	if err := m.store.AppendHistory(ctx, customerID, conversation); err != nil {
		return fmt.Errorf("failed to archive conversation: %w", err)
	}

	fresh := []llm.ChatMessage{llm.SystemMessage(m.systemPrompt)}
	if err := m.store.SaveActive(ctx, customerID, fresh); err != nil {
		return fmt.Errorf("failed to persist fresh conversation: %w", err)
	}

	m.setConversation(customerID, fresh)
	return nil
}

// History returns the customer's archived messages in order. A customer
// with no archive yet gets an empty slice, not an error.
func (m *Manager) History(ctx context.Context, customerID string) ([]llm.ChatMessage, error) {
	if customerID == "" {
		return nil, ErrEmptyCustomerID
	}

	history, err := m.store.LoadHistory(ctx, customerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []llm.ChatMessage{}, nil
		}
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return history, nil
}

// WithoutSystem returns messages with system entries filtered out,
// preserving order.
func WithoutSystem(messages []llm.ChatMessage) []llm.ChatMessage {
	out := make([]llm.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == llm.RoleSystem {
			continue
		}
		out = append(out, msg)
	}
	return out
}
