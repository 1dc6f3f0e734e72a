// Command execution for CLI commands.
//
// Information Hiding:
// - Provider and store construction hidden
// - Chat loop dispatch hidden
// - Output formatting hidden

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Sushma771/supportbot/chat"
	"github.com/Sushma771/supportbot/config"
	"github.com/Sushma771/supportbot/llm"
	"github.com/Sushma771/supportbot/server"
	"github.com/Sushma771/supportbot/session"
	"github.com/Sushma771/supportbot/storage"
)

// Options holds CLI execution options.
type Options struct {
	Provider string
	Verbose  bool
}

// DefaultOptions returns default CLI options.
func DefaultOptions() Options {
	return Options{
		Provider: "openai",
	}
}

// buildMediator assembles the provider, store and session manager from
// settings. The returned cleanup closes the store when it holds resources.
func buildMediator(opts Options) (*chat.Mediator, func(), error) {
	providerName := opts.Provider
	if providerName == "" {
		providerName = "openai"
	}

	settings, err := config.New(providerName)
	if err != nil {
		return nil, nil, err
	}

	provider, err := createProvider(settings)
	if err != nil {
		return nil, nil, err
	}

	store, cleanup, err := createStore(settings)
	if err != nil {
		return nil, nil, err
	}

	sessions := session.NewManager(store, settings.Chat.SystemPrompt)
	return chat.NewMediator(sessions, provider), cleanup, nil
}

// createProvider builds the LLM provider from settings.
func createProvider(settings config.Settings) (llm.Provider, error) {
	providerType, err := llm.ParseProviderType(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}

	apiKey, err := config.APIKeyFor(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}

	return llm.NewProviderBuilder(providerType).
		Model(settings.LLM.Model).
		BaseURL(settings.LLM.BaseURL).
		MaxTokens(settings.LLM.MaxTokens).
		Temperature(float32(settings.LLM.Temperature)).
		APIKey(apiKey)
}

// createStore builds the conversation store from settings.
func createStore(settings config.Settings) (storage.ConversationStore, func(), error) {
	switch settings.Chat.Store {
	case "file":
		store, err := storage.NewFileStore(settings.Chat.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open chat directory: %w", err)
		}
		return store, nil, nil
	case "sqlite":
		store, err := storage.OpenSqlite(settings.Chat.SqlitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		return store, func() { store.Close() }, nil
	case "postgres":
		if settings.Chat.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL environment variable not set")
		}
		store, err := storage.OpenPostgres(context.Background(), settings.Chat.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		return store, func() { store.Close() }, nil
	case "memory":
		return storage.NewInMemoryStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend: %q", settings.Chat.Store)
	}
}

// Serve runs the HTTP server.
func Serve(ctx context.Context, port string, opts Options) error {
	mediator, cleanup, err := buildMediator(opts)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	if port == "" {
		providerName := opts.Provider
		if providerName == "" {
			providerName = "openai"
		}
		settings, err := config.New(providerName)
		if err != nil {
			return err
		}
		port = settings.Server.Port
	}

	fmt.Printf("Listening on :%s\n", port)
	return server.ListenAndServe(port, mediator)
}

// Chat starts an interactive terminal session for one customer.
// Type 'new' to archive the conversation and start over, 'history' to view
// archived messages, 'exit' or 'quit' to leave.
func Chat(ctx context.Context, customerID string, opts Options) error {
	if customerID == "" {
		return session.ErrEmptyCustomerID
	}

	mediator, cleanup, err := buildMediator(opts)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	// Show the conversation so far when resuming.
	existing, err := mediator.Conversation(ctx, customerID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		fmt.Printf("Resuming conversation for '%s' (%d messages)\n\n", customerID, len(existing))
		printMessages(os.Stdout, existing)
	}

	fmt.Printf("Chatting as customer '%s'. Type 'exit' to quit, 'new' to start over, 'history' for the archive.\n\n", customerID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch input {
		case "exit", "quit":
			return scanner.Err()
		case "new":
			if err := mediator.Reset(ctx, customerID); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			fmt.Println("Started a fresh conversation.")
			continue
		case "history":
			history, err := mediator.History(ctx, customerID)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			if len(history) == 0 {
				fmt.Println("No archived messages yet.")
				continue
			}
			printMessages(os.Stdout, history)
			continue
		}

		fmt.Print("\n")
		_, err := mediator.Send(ctx, customerID, input, func(fragment string) {
			fmt.Print(fragment)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nError: %v\n\n", err)
			continue
		}
		fmt.Print("\n\n")
	}

	return scanner.Err()
}

func printMessages(w io.Writer, messages []llm.ChatMessage) {
	for _, msg := range messages {
		fmt.Fprintf(w, "[%s] %s\n", msg.Role, msg.Content)
	}
	fmt.Fprintln(w)
}
