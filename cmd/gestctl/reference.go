package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"gestcom/internal/core/numerator"
	"gestcom/internal/domain/documents"
)

func newReferenceCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reference",
		Short: "Inspect and adjust document reference counters",
	}
	cmd.AddCommand(
		newReferenceNextCmd(load),
		newReferenceSetCmd(load),
		newReferenceParseCmd(),
	)
	return cmd
}

func parseDateFlag(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: want YYYY-MM-DD", raw)
	}
	return t, nil
}

func newReferenceNextCmd(load loader) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:     "next <kind>",
		Short:   "Show the reference the next document would receive",
		Example: `  gestctl reference next invoice --date 2024-03-01`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := documents.ParseKind(args[0])
			if err != nil {
				return err
			}
			at, err := parseDateFlag(date)
			if err != nil {
				return err
			}

			a, err := load(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			seq, ref, err := a.Documents.PeekReference(cmd.Context(), kind, at)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"kind":      kind,
				"sequence":  seq,
				"reference": ref,
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "document date (YYYY-MM-DD), default today")
	return cmd
}

func newReferenceSetCmd(load loader) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "set <kind> <last-issued>",
		Short: "Set the last issued sequence number, e.g. when importing existing documents",
		Example: `  # the next invoice of 2024 will be FAC2024-0121
  gestctl reference set invoice 120 --date 2024-01-01`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := documents.ParseKind(args[0])
			if err != nil {
				return err
			}
			value, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || value < 0 {
				return fmt.Errorf("invalid sequence %q", args[1])
			}
			at, err := parseDateFlag(date)
			if err != nil {
				return err
			}

			a, err := load(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			cfg, err := kind.NumeratorConfig(a.Config.NumeratorReset)
			if err != nil {
				return err
			}
			if err := a.Numerator.SetNextNumber(cmd.Context(), cfg, at, value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s counter %s set to %d, next is %s\n",
				kind, cfg.Key(at), value, numerator.Format(cfg, value+1, at.Year()))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "period the counter belongs to (YYYY-MM-DD), default today")
	return cmd
}

func newReferenceParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <reference>",
		Short: "Split a reference into type, year and sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, year, seq, err := documents.ParseReference(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"kind":     kind,
				"year":     year,
				"sequence": seq,
			})
		},
	}
}
