package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gestcom/internal/app"
	"gestcom/internal/domain/documents"
	"gestcom/internal/infrastructure/http/v1/dto"
)

func newHistoryCmd(load loader) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "history <kind> <reference>",
		Short:   "Print the recorded snapshots of a document, newest first",
		Example: `  gestctl history invoice FAC2024-0001 --limit 5`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := documents.ParseKind(args[0])
			if err != nil {
				return err
			}

			a, err := load(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.Config.Storage == app.StorageMemory {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: memory storage keeps no history between runs")
			}

			entries, err := a.History.History(cmd.Context(), kind, args[1], limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.FromHistory(entries))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", documents.DefaultHistoryLimit, "maximum number of snapshots")
	return cmd
}
