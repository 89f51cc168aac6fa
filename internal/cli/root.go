// Package cli implements the dbchat command-line client. It talks to a
// running dbchat API service and renders answers, schema summaries, and
// health information in the terminal using the Cobra framework with
// pterm-based output.
package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	baseURL string
	apiKey  string
	timeout time.Duration
}

func (o *rootOptions) client() *Client {
	return NewClient(ClientOptions{
		BaseURL: o.baseURL,
		APIKey:  o.apiKey,
		Timeout: o.timeout,
	})
}

// NewRootCommand builds the dbchat CLI command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "dbchat",
		Short:         "Chat with your database in natural language",
		Long:          `dbchat is a command-line client for the dbchat service. It sends natural-language questions to the API, which translates them to SQL, executes them, and returns explained results.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", envOr("DBCHAT_API_BASE_URL", "http://localhost:8080"), "Base URL of the dbchat API")
	cmd.PersistentFlags().StringVar(&opts.apiKey, "api-key", os.Getenv("DBCHAT_API_KEY"), "API key for authenticated deployments")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 60*time.Second, "Request timeout for API calls")

	cmd.AddCommand(newAskCommand(opts))
	cmd.AddCommand(newChatCommand(opts))
	cmd.AddCommand(newSchemaCommand(opts))
	cmd.AddCommand(newHealthCommand(opts))

	return cmd
}

// Execute runs the CLI application.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
