package cli

import (
	"github.com/spf13/cobra"
)

func newSchemaCommand(opts *rootOptions) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the database schema the service is answering from",
		Long: `The schema command prints the tables and columns of the connected
database as the dbchat service sees them. Pass --refresh to force a new
introspection pass instead of the cached snapshot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := opts.client().Schema(cmd.Context(), refresh)
			if err != nil {
				return err
			}
			renderSnapshot(cmd.OutOrStdout(), snapshot)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Force a fresh schema introspection")
	return cmd
}
