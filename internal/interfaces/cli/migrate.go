package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/database/postgres"
)

// NewMigrateCommand creates `lotproc migrate`, which applies the embedded
// database migrations.
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  "Applies the embedded schema migrations to the configured Postgres database.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if err := postgres.RunMigrations(cliCtx.Config.Database, cliCtx.Logger); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}
