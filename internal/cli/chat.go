package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newChatCommand(opts *rootOptions) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation with the database",
		Long: `The chat command opens an interactive loop. Every line you type is sent
to the dbchat service as a question; follow-up questions share one session
so the service keeps conversational context.

Type "exit" or press Ctrl-D to leave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			out := cmd.OutOrStdout()
			pterm.Info.WithWriter(out).Printfln("connected to %s (session %s)", opts.baseURL, sessionID)
			fmt.Fprintln(out)

			client := opts.client()
			reader := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "you> ")
				if !reader.Scan() {
					if err := reader.Err(); err != nil && !errors.Is(err, io.EOF) {
						return err
					}
					fmt.Fprintln(out)
					return nil
				}

				question := strings.TrimSpace(reader.Text())
				switch question {
				case "":
					continue
				case "exit", "quit":
					return nil
				}

				spinner, _ := pterm.DefaultSpinner.WithWriter(out).Start("thinking...")
				result, err := client.Chat(cmd.Context(), ChatRequest{
					Question:  question,
					SessionID: sessionID,
				})
				if spinner != nil {
					_ = spinner.Stop()
				}
				if err != nil {
					var apiErr *APIError
					if errors.As(err, &apiErr) {
						pterm.Error.WithWriter(out).Println(apiErr.Error())
						continue
					}
					return err
				}

				renderResult(out, result)
				fmt.Fprintln(out)
			}
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Resume an existing conversation session")
	return cmd
}
