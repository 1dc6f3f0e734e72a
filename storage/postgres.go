// Package storage provides PostgreSQL conversation storage.

package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/Sushma771/supportbot/llm"
)

// PostgresStore implements ConversationStore over a PostgreSQL database.
// Like the SQLite store, history rows are insert-only.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an existing database handle. The caller owns the
// handle's lifecycle (pinging, closing).
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres opens a connection for the given DSN and ensures the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the conversation tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS active_messages (
			customer_id TEXT NOT NULL,
			message_index INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			PRIMARY KEY (customer_id, message_index)
		);

		CREATE TABLE IF NOT EXISTS history_messages (
			id BIGSERIAL PRIMARY KEY,
			customer_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_history_customer
		ON history_messages(customer_id, id);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// LoadActive returns the persisted active conversation, or ErrNotFound.
func (s *PostgresStore) LoadActive(ctx context.Context, customerID string) ([]llm.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content
		FROM active_messages
		WHERE customer_id = $1
		ORDER BY message_index ASC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active messages: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, ErrNotFound
	}
	return messages, nil
}

// SaveActive fully overwrites the persisted active record.
func (s *PostgresStore) SaveActive(ctx context.Context, customerID string, messages []llm.ChatMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, "DELETE FROM active_messages WHERE customer_id = $1", customerID)
	if err != nil {
		return fmt.Errorf("failed to clear old messages: %w", err)
	}

	for i, msg := range messages {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO active_messages (customer_id, message_index, role, content)
			VALUES ($1, $2, $3, $4)
		`, customerID, i, msg.Role, msg.Content)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// AppendHistory inserts the non-system messages as new history rows.
func (s *PostgresStore) AppendHistory(ctx context.Context, customerID string, messages []llm.ChatMessage) error {
	toArchive := archivable(messages)
	if len(toArchive) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, msg := range toArchive {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO history_messages (customer_id, role, content)
			VALUES ($1, $2, $3)
		`, customerID, msg.Role, msg.Content)
		if err != nil {
			return fmt.Errorf("failed to insert history message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LoadHistory returns the history record, or ErrNotFound.
func (s *PostgresStore) LoadHistory(ctx context.Context, customerID string) ([]llm.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content
		FROM history_messages
		WHERE customer_id = $1
		ORDER BY id ASC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history messages: %w", err)
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, ErrNotFound
	}
	return messages, nil
}

// Verify PostgresStore implements ConversationStore
var _ ConversationStore = (*PostgresStore)(nil)
