// Package storage provides JSON-file conversation storage.
//
// Information Hiding:
// - On-disk layout (one active file and one history file per customer)
// - JSON encoding details; indentation is cosmetic, not load-bearing

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Sushma771/supportbot/llm"
)

// FileStore implements ConversationStore using one JSON file per customer
// per record kind, under a single directory. Content round-trips all
// Unicode text. History appends are read-modify-write, so the store is
// not safe under concurrent writers for the same customer ID.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chat directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) activePath(customerID string) string {
	return filepath.Join(s.dir, "customer_"+customerID+".json")
}

func (s *FileStore) historyPath(customerID string) string {
	return filepath.Join(s.dir, "customer_"+customerID+"_history.json")
}

// LoadActive returns the persisted active conversation, or ErrNotFound.
func (s *FileStore) LoadActive(ctx context.Context, customerID string) ([]llm.ChatMessage, error) {
	return s.readRecord(s.activePath(customerID), customerID, "active")
}

// SaveActive fully overwrites the persisted active record.
func (s *FileStore) SaveActive(ctx context.Context, customerID string, messages []llm.ChatMessage) error {
	return s.writeRecord(s.activePath(customerID), messages)
}

// AppendHistory loads the existing history (empty if absent), filters out
// system-role entries from messages, appends the remainder in order, and
// rewrites the full history record.
func (s *FileStore) AppendHistory(ctx context.Context, customerID string, messages []llm.ChatMessage) error {
	history, err := s.readRecord(s.historyPath(customerID), customerID, "history")
	if err != nil {
		if err != ErrNotFound {
			return err
		}
		history = []llm.ChatMessage{}
	}

	history = append(history, archivable(messages)...)
	return s.writeRecord(s.historyPath(customerID), history)
}

// LoadHistory returns the history record, or ErrNotFound.
func (s *FileStore) LoadHistory(ctx context.Context, customerID string) ([]llm.ChatMessage, error) {
	return s.readRecord(s.historyPath(customerID), customerID, "history")
}

func (s *FileStore) readRecord(path, customerID, kind string) ([]llm.ChatMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s record: %w", kind, err)
	}

	var messages []llm.ChatMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, &DecodeError{CustomerID: customerID, Kind: kind, Err: err}
	}
	return messages, nil
}

func (s *FileStore) writeRecord(path string, messages []llm.ChatMessage) error {
	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Verify FileStore implements ConversationStore
var _ ConversationStore = (*FileStore)(nil)
