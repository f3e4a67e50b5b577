package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gestcom/internal/app"
	"gestcom/internal/infrastructure/storage/postgres"
)

func newMigrateCmd(load loader) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema (STORAGE=postgres)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if printOnly {
				_, err := fmt.Fprint(cmd.OutOrStdout(), postgres.Schema())
				return err
			}

			a, err := load(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.Config.Storage != app.StoragePostgres {
				return fmt.Errorf("migrate requires STORAGE=postgres, got %q", a.Config.Storage)
			}
			if err := postgres.Migrate(cmd.Context(), a.Pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the schema instead of applying it")
	return cmd
}
