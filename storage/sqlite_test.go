package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/Sushma771/supportbot/llm"
)

func TestSqliteStoreSaveAndLoadActive(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	messages := []llm.ChatMessage{
		llm.SystemMessage("instructions"),
		llm.UserMessage("Hello"),
		llm.AssistantMessage("Hi there"),
	}

	if err := store.SaveActive(ctx, "c1", messages); err != nil {
		t.Fatalf("SaveActive failed: %v", err)
	}

	loaded, err := store.LoadActive(ctx, "c1")
	if err != nil {
		t.Fatalf("LoadActive failed: %v", err)
	}

	if len(loaded) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(loaded))
	}
	if loaded[0].Role != llm.RoleSystem {
		t.Errorf("expected system message first, got %q", loaded[0].Role)
	}
	if loaded[2].Content != "Hi there" {
		t.Errorf("expected 'Hi there', got %q", loaded[2].Content)
	}
}

func TestSqliteStoreLoadActiveNotFound(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	_, err = store.LoadActive(context.Background(), "never-seen")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSqliteStoreOverwriteActive(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.SaveActive(ctx, "c1", []llm.ChatMessage{llm.UserMessage("first")}); err != nil {
		t.Fatalf("SaveActive failed: %v", err)
	}
	if err := store.SaveActive(ctx, "c1", []llm.ChatMessage{
		llm.UserMessage("second"),
		llm.AssistantMessage("response"),
	}); err != nil {
		t.Fatalf("SaveActive failed: %v", err)
	}

	loaded, err := store.LoadActive(ctx, "c1")
	if err != nil {
		t.Fatalf("LoadActive failed: %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(loaded))
	}
	if loaded[0].Content != "second" {
		t.Errorf("expected 'second', got %q", loaded[0].Content)
	}
}

func TestSqliteStoreAppendHistory(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	conversation := []llm.ChatMessage{
		llm.SystemMessage("instructions"),
		llm.UserMessage("q1"),
		llm.AssistantMessage("a1"),
	}

	if err := store.AppendHistory(ctx, "c1", conversation); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}
	if err := store.AppendHistory(ctx, "c1", []llm.ChatMessage{
		llm.UserMessage("q2"),
		llm.AssistantMessage("a2"),
	}); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}

	history, err := store.LoadHistory(ctx, "c1")
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}

	want := []string{"q1", "a1", "q2", "a2"}
	if len(history) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(history))
	}
	for i, content := range want {
		if history[i].Content != content {
			t.Errorf("history[%d] = %q, want %q", i, history[i].Content, content)
		}
		if history[i].Role == llm.RoleSystem {
			t.Errorf("system message leaked into history at %d", i)
		}
	}
}

func TestSqliteStoreAppendHistoryOnlySystemIsNoop(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.AppendHistory(ctx, "c1", []llm.ChatMessage{
		llm.SystemMessage("instructions"),
	}); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}

	_, err = store.LoadHistory(ctx, "c1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for history with no archived messages, got %v", err)
	}
}

func TestSqliteStoreCustomersAreIsolated(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if err := store.SaveActive(ctx, "c1", []llm.ChatMessage{llm.UserMessage("for c1")}); err != nil {
		t.Fatalf("SaveActive failed: %v", err)
	}
	if err := store.SaveActive(ctx, "c2", []llm.ChatMessage{llm.UserMessage("for c2")}); err != nil {
		t.Fatalf("SaveActive failed: %v", err)
	}

	loaded, err := store.LoadActive(ctx, "c1")
	if err != nil {
		t.Fatalf("LoadActive failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Content != "for c1" {
		t.Errorf("customer records not isolated: %+v", loaded)
	}
}

func TestSqliteStoreUnicodeRoundTrip(t *testing.T) {
	store, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	content := "naïve résumé — 日本語テスト 🚀"
	if err := store.SaveActive(ctx, "u", []llm.ChatMessage{llm.UserMessage(content)}); err != nil {
		t.Fatalf("SaveActive failed: %v", err)
	}

	loaded, err := store.LoadActive(ctx, "u")
	if err != nil {
		t.Fatalf("LoadActive failed: %v", err)
	}
	if loaded[0].Content != content {
		t.Errorf("content not byte-identical: got %q, want %q", loaded[0].Content, content)
	}
}
