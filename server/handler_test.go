package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Sushma771/supportbot/chat"
	"github.com/Sushma771/supportbot/llm"
	"github.com/Sushma771/supportbot/session"
	"github.com/Sushma771/supportbot/storage"
)

type stubProvider struct {
	fragments []string
	streamErr error
}

func (p *stubProvider) Name() string  { return "stub" }
func (p *stubProvider) Model() string { return "stub-model" }

func (p *stubProvider) Chat(ctx context.Context, messages []llm.ChatMessage) (llm.LLMResponse, error) {
	return llm.LLMResponse{Content: strings.Join(p.fragments, "")}, p.streamErr
}

func (p *stubProvider) StreamChat(ctx context.Context, messages []llm.ChatMessage, chunks chan<- string) (*llm.TokenUsage, error) {
	for _, fragment := range p.fragments {
		chunks <- fragment
	}
	return nil, p.streamErr
}

func newTestRouter(provider llm.Provider) http.Handler {
	store := storage.NewInMemoryStore()
	sessions := session.NewManager(store, "You are a support agent.")
	return NewRouter(chat.NewMediator(sessions, provider))
}

func TestSendMessageStreamsReply(t *testing.T) {
	router := newTestRouter(&stubProvider{fragments: []string{"Hello", " world"}})

	req := httptest.NewRequest(http.MethodPost, "/customers/c1/messages",
		strings.NewReader(`{"text":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected text/event-stream, got %q", ct)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `event: message`) {
		t.Errorf("expected fragment events in body: %s", body)
	}
	if !strings.Contains(body, `event: done`) {
		t.Errorf("expected done event in body: %s", body)
	}
	if !strings.Contains(body, `"Hello world"`) {
		t.Errorf("expected assembled reply in done event: %s", body)
	}
}

func TestSendMessageInvalidJSON(t *testing.T) {
	router := newTestRouter(&stubProvider{fragments: []string{"ok"}})

	req := httptest.NewRequest(http.MethodPost, "/customers/c1/messages",
		strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSendMessageMissingText(t *testing.T) {
	router := newTestRouter(&stubProvider{fragments: []string{"ok"}})

	req := httptest.NewRequest(http.MethodPost, "/customers/c1/messages",
		strings.NewReader(`{"text":""}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSendMessageStreamFailureStillCompletes(t *testing.T) {
	router := newTestRouter(&stubProvider{streamErr: errors.New("upstream timeout")})

	req := httptest.NewRequest(http.MethodPost, "/customers/c1/messages",
		strings.NewReader(`{"text":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, `event: done`) {
		t.Errorf("stream failure must still produce a done event: %s", body)
	}
	if !strings.Contains(body, chat.ErrorReplyPrefix) {
		t.Errorf("expected error placeholder in reply: %s", body)
	}
}

func TestGetConversationExcludesSystem(t *testing.T) {
	router := newTestRouter(&stubProvider{fragments: []string{"answer"}})

	req := httptest.NewRequest(http.MethodPost, "/customers/c1/messages",
		strings.NewReader(`{"text":"question"}`))
	router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/customers/c1/conversation", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response struct {
		Messages []llm.ChatMessage `json:"messages"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Messages) != 2 {
		t.Fatalf("expected user + assistant, got %d messages", len(response.Messages))
	}
	for _, msg := range response.Messages {
		if msg.Role == llm.RoleSystem {
			t.Errorf("system message leaked into response: %+v", msg)
		}
	}
}

func TestGetHistoryEmptyForNewCustomer(t *testing.T) {
	router := newTestRouter(&stubProvider{fragments: []string{"ok"}})

	req := httptest.NewRequest(http.MethodGet, "/customers/new/history", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var response struct {
		Messages []llm.ChatMessage `json:"messages"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Messages) != 0 {
		t.Errorf("expected empty history, got %+v", response.Messages)
	}
}

func TestResetArchivesConversation(t *testing.T) {
	router := newTestRouter(&stubProvider{fragments: []string{"answer"}})

	req := httptest.NewRequest(http.MethodPost, "/customers/c1/messages",
		strings.NewReader(`{"text":"question"}`))
	router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodPost, "/customers/c1/reset", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/customers/c1/history", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var response struct {
		Messages []llm.ChatMessage `json:"messages"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Messages) != 2 {
		t.Errorf("expected 2 archived messages, got %d", len(response.Messages))
	}
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestRouter(&stubProvider{fragments: []string{"ok"}})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected generated X-Request-ID header")
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "caller-supplied")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "caller-supplied" {
		t.Errorf("expected caller-supplied ID echoed back, got %q", got)
	}
}
