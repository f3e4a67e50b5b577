package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gestcom/internal/app"
	"gestcom/internal/core/types"
	"gestcom/internal/domain/settings"
)

// defaultSettings are the rates in force since 2018. Fixed IDs make seeding repeatable.
func defaultSettings() ([]settings.VATRate, []settings.FiscalStamp, []settings.DiscountRule) {
	since := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	pct := func(s string) *types.Money {
		m := types.MustMoney(s)
		return &m
	}

	rates := []settings.VATRate{
		{ID: "vat-standard", Name: "Taux normal", Rate: types.MustMoney("0.19"), Active: true, EffectiveFrom: since},
		{ID: "vat-intermediate", Name: "Taux intermédiaire", Rate: types.MustMoney("0.13"), EffectiveFrom: since},
		{ID: "vat-reduced", Name: "Taux réduit", Rate: types.MustMoney("0.07"), EffectiveFrom: since},
	}
	stamps := []settings.FiscalStamp{
		{ID: "stamp-default", Amount: types.MustMoney("1.000"), EffectiveDate: since, Description: "Droit de timbre", Active: true},
	}
	rules := []settings.DiscountRule{
		{
			ID: "discount-wholesale", Name: "Remise grossiste", Type: settings.DiscountCommercial,
			ClientTypes: []string{"wholesale"}, DiscountPercent: pct("5"), Active: true,
		},
		{
			ID: "discount-volume", Name: "Remise volume", Type: settings.DiscountQuantity,
			DiscountPercent: pct("3"), Condition: "quantity >= 100.0", Active: true,
		},
	}
	return rates, stamps, rules
}

func seedSettings(ctx context.Context, svc *settings.Service) (int, error) {
	rates, stamps, rules := defaultSettings()
	n := 0
	for i := range rates {
		if err := svc.SaveVATRate(ctx, &rates[i]); err != nil {
			return n, fmt.Errorf("seed vat rate %s: %w", rates[i].ID, err)
		}
		n++
	}
	for i := range stamps {
		if err := svc.SaveFiscalStamp(ctx, &stamps[i]); err != nil {
			return n, fmt.Errorf("seed fiscal stamp %s: %w", stamps[i].ID, err)
		}
		n++
	}
	for i := range rules {
		if err := svc.SaveDiscountRule(ctx, &rules[i]); err != nil {
			return n, fmt.Errorf("seed discount rule %s: %w", rules[i].ID, err)
		}
		n++
	}
	return n, nil
}

func newSeedCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Store the default VAT rates, fiscal stamp and discount rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.Config.Storage == app.StorageMemory {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: STORAGE=memory, seeded settings are discarded on exit")
			}
			n, err := seedSettings(cmd.Context(), a.Settings)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d settings\n", n)
			return nil
		},
	}
}
