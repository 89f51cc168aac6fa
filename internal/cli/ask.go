package cli

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newAskCommand(opts *rootOptions) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single question and print the answer",
		Long: `The ask command sends one natural-language question to the dbchat service
and prints the generated SQL, the result rows, and the explanation.

Use --session to continue an existing conversation so the service can
resolve follow-up references like "the same month" or "those users".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return fmt.Errorf("question must not be empty")
			}

			result, err := opts.client().Chat(cmd.Context(), ChatRequest{
				Question:  question,
				SessionID: sessionID,
			})
			if err != nil {
				return err
			}

			renderResult(cmd.OutOrStdout(), result)
			if result.SessionID != "" && sessionID == "" {
				pterm.Info.WithWriter(cmd.OutOrStdout()).Printfln("session: %s", result.SessionID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Continue an existing conversation session")
	return cmd
}
