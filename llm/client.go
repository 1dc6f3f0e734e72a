// LLMClient - Simple wrapper around providers.

package llm

import (
	"context"
)

// Client wraps a Provider with a simple interface.
type Client struct {
	provider Provider
}

// NewClient creates a new LLM client from a provider.
func NewClient(provider Provider) *Client {
	return &Client{provider: provider}
}

// Chat sends a chat completion request and returns just the content.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	response, err := c.provider.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	return response.Content, nil
}

// StreamChat streams a chat completion, invoking onFragment for every text
// fragment as it arrives, and returns the assembled text. The fragment
// sequence is finite and not restartable; on a mid-stream failure the
// fragments received so far and the terminal error are both returned.
func (c *Client) StreamChat(ctx context.Context, messages []ChatMessage, onFragment func(string)) (string, error) {
	chunks := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		_, err := c.provider.StreamChat(ctx, messages, chunks)
		errCh <- err
		close(chunks)
	}()

	var assembled string
	for chunk := range chunks {
		assembled += chunk
		if onFragment != nil {
			onFragment(chunk)
		}
	}

	return assembled, <-errCh
}

// Provider returns the underlying provider.
func (c *Client) Provider() Provider {
	return c.provider
}
