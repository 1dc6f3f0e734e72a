package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/Sushma771/supportbot/llm"
)

func TestInMemoryStoreSaveAndLoadActive(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	messages := []llm.ChatMessage{
		llm.SystemMessage("instructions"),
		llm.UserMessage("Hello"),
	}

	if err := store.SaveActive(ctx, "c1", messages); err != nil {
		t.Fatalf("SaveActive failed: %v", err)
	}

	loaded, err := store.LoadActive(ctx, "c1")
	if err != nil {
		t.Fatalf("LoadActive failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Errorf("expected 2 messages, got %d", len(loaded))
	}
}

func TestInMemoryStoreNotFound(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if _, err := store.LoadActive(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for active, got %v", err)
	}
	if _, err := store.LoadHistory(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for history, got %v", err)
	}
}

func TestInMemoryStoreLoadReturnsCopy(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if err := store.SaveActive(ctx, "c1", []llm.ChatMessage{llm.UserMessage("original")}); err != nil {
		t.Fatalf("SaveActive failed: %v", err)
	}

	loaded, err := store.LoadActive(ctx, "c1")
	if err != nil {
		t.Fatalf("LoadActive failed: %v", err)
	}
	loaded[0].Content = "mutated"

	reloaded, err := store.LoadActive(ctx, "c1")
	if err != nil {
		t.Fatalf("LoadActive failed: %v", err)
	}
	if reloaded[0].Content != "original" {
		t.Error("external mutation leaked into stored record")
	}
}

func TestInMemoryStoreAppendHistoryFiltersSystem(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if err := store.AppendHistory(ctx, "c1", []llm.ChatMessage{
		llm.SystemMessage("instructions"),
		llm.UserMessage("q"),
		llm.AssistantMessage("a"),
	}); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}

	history, err := store.LoadHistory(ctx, "c1")
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	for _, msg := range history {
		if msg.Role == llm.RoleSystem {
			t.Errorf("system message leaked into history: %+v", msg)
		}
	}
}
