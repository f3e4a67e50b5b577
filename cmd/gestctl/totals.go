package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gestcom/internal/core/types"
	"gestcom/internal/domain/documents"
	"gestcom/internal/domain/totals"
)

func newTotalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Compute line and document totals",
	}
	cmd.AddCommand(newTotalsLineCmd(), newTotalsDocumentCmd())
	return cmd
}

func newTotalsLineCmd() *cobra.Command {
	var (
		qty, price, discount, vat string
		discountType              string
	)

	cmd := &cobra.Command{
		Use:   "line",
		Short: "Compute the amounts of one line",
		Example: `  gestctl totals line --qty 50 --price 35 --discount 10
  gestctl totals line --qty 2 --price 100 --discount 15 --discount-type amount --vat 0.07`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := parseLineInput(qty, price, discount, discountType)
			if err != nil {
				return err
			}
			rate, err := types.NewMoneyFromString(vat)
			if err != nil {
				return fmt.Errorf("invalid --vat: %w", err)
			}

			amounts, err := totals.ComputeLine(in, rate)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"grossAmount":    types.Fixed(amounts.GrossAmount),
				"discountAmount": types.Fixed(amounts.DiscountAmount),
				"netAmount":      types.Fixed(amounts.NetAmount),
				"vatAmount":      types.Fixed(amounts.VATAmount),
				"total":          types.Fixed(amounts.Total),
			})
		},
	}

	cmd.Flags().StringVar(&qty, "qty", "1", "quantity")
	cmd.Flags().StringVar(&price, "price", "0", "unit price")
	cmd.Flags().StringVar(&discount, "discount", "0", "discount value")
	cmd.Flags().StringVar(&discountType, "discount-type", "percentage", "percentage or amount")
	cmd.Flags().StringVar(&vat, "vat", totals.DefaultVATRate.String(), "VAT rate as a fraction")
	return cmd
}

func newTotalsDocumentCmd() *cobra.Command {
	var (
		kind, vat, stamp string
		lines            []string
		exempt           bool
	)

	cmd := &cobra.Command{
		Use:   "document",
		Short: "Compute the totals of a document from its lines",
		Long: `Lines are given as qty:price[:discount[:percentage|amount]].
The aggregation policy is the one of --kind.`,
		Example: `  gestctl totals document --kind invoice --line 5:45.5 --line 50:35:10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := documents.ParseKind(kind)
			if err != nil {
				return err
			}
			policy, err := k.Policy()
			if err != nil {
				return err
			}
			if exempt {
				policy = policy.Exempt()
			}

			inputs := make([]totals.LineInput, 0, len(lines))
			for _, raw := range lines {
				in, err := parseLineFlag(raw)
				if err != nil {
					return err
				}
				inputs = append(inputs, in)
			}

			rate, err := types.NewMoneyFromString(vat)
			if err != nil {
				return fmt.Errorf("invalid --vat: %w", err)
			}
			stampAmount, err := types.NewMoneyFromString(stamp)
			if err != nil {
				return fmt.Errorf("invalid --stamp: %w", err)
			}
			if !policy.ApplyFiscalStamp {
				stampAmount = types.Zero()
			}

			_, doc, err := totals.ComputeDocument(inputs, policy, rate, stampAmount)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"strategy":    string(policy.Strategy),
				"subtotal":    types.Fixed(doc.Subtotal),
				"vat":         types.Fixed(doc.VAT),
				"fiscalStamp": types.Fixed(doc.FiscalStamp),
				"total":       types.Fixed(doc.Total),
				"display":     types.FormatTND(doc.Total),
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(documents.KindInvoice), "document type")
	cmd.Flags().StringArrayVar(&lines, "line", nil, "line as qty:price[:discount[:type]] (repeatable)")
	cmd.Flags().StringVar(&vat, "vat", totals.DefaultVATRate.String(), "VAT rate as a fraction")
	cmd.Flags().StringVar(&stamp, "stamp", types.Fixed(totals.DefaultFiscalStamp), "fiscal stamp amount")
	cmd.Flags().BoolVar(&exempt, "exempt", false, "zero VAT")
	return cmd
}

// parseLineFlag parses "qty:price[:discount[:type]]".
func parseLineFlag(raw string) (totals.LineInput, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 4 {
		return totals.LineInput{}, fmt.Errorf("invalid line %q: want qty:price[:discount[:type]]", raw)
	}
	discount, discountType := "0", ""
	if len(parts) > 2 {
		discount = parts[2]
	}
	if len(parts) > 3 {
		discountType = parts[3]
	}
	return parseLineInput(parts[0], parts[1], discount, discountType)
}

func parseLineInput(qty, price, discount, discountType string) (totals.LineInput, error) {
	q, err := types.ParseQuantity(qty)
	if err != nil {
		return totals.LineInput{}, fmt.Errorf("invalid quantity %q: %w", qty, err)
	}
	p, err := types.NewMoneyFromString(price)
	if err != nil {
		return totals.LineInput{}, fmt.Errorf("invalid price %q: %w", price, err)
	}
	d, err := types.NewMoneyFromString(discount)
	if err != nil {
		return totals.LineInput{}, fmt.Errorf("invalid discount %q: %w", discount, err)
	}
	dt, err := totals.ParseDiscountType(discountType)
	if err != nil {
		return totals.LineInput{}, err
	}
	return totals.LineInput{Quantity: q, UnitPrice: p, Discount: d, DiscountType: dt}, nil
}
