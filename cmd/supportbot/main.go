// Package main provides the supportbot CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Sushma771/supportbot/cli"
)

var (
	// Global flags
	provider string
	verbose  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "supportbot",
		Short: "Customer support chat with streamed LLM replies",
		Long: `A customer support chat mediator.

Each customer gets one active conversation that always opens with a system
prompt. Replies stream back fragment by fragment, every exchange is persisted
immediately, and resets archive the conversation into an append-only history.`,
	}

	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "openai", "LLM provider (openai, anthropic, gemini)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(chatCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the HTTP server.

Routes:
- POST /customers/{customerID}/messages   send a message, reply streams back as SSE
- GET  /customers/{customerID}/conversation   active conversation (no system messages)
- GET  /customers/{customerID}/history    archived messages
- POST /customers/{customerID}/reset      archive and start over
- GET  /ping                              health check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.Options{Provider: provider, Verbose: verbose}
			return cli.Serve(context.Background(), port, opts)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Port to listen on (default from PORT env var, then 8080)")

	return cmd
}

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [customerID]",
		Short: "Start an interactive chat session as one customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.Options{Provider: provider, Verbose: verbose}
			return cli.Chat(context.Background(), args[0], opts)
		},
	}

	return cmd
}
