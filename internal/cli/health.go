package cli

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newHealthCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check whether the dbchat service is up and ready",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			client := opts.client()

			status, err := client.Health(cmd.Context())
			if err != nil {
				pterm.Error.WithWriter(out).Printfln("health check failed: %v", err)
				return err
			}
			pterm.Success.WithWriter(out).Printfln("%s is %s", status.Service, status.Status)

			if err := client.Ready(cmd.Context()); err != nil {
				pterm.Warning.WithWriter(out).Printfln("service is up but not ready: %v", err)
				return err
			}
			pterm.Success.WithWriter(out).Println("dependencies ready")
			return nil
		},
	}
	return cmd
}
