package settings

import "context"

// Repository persists settings records. Save inserts or replaces by ID.
type Repository interface {
	ListVATRates(ctx context.Context) ([]VATRate, error)
	SaveVATRate(ctx context.Context, rate *VATRate) error

	ListFiscalStamps(ctx context.Context) ([]FiscalStamp, error)
	SaveFiscalStamp(ctx context.Context, stamp *FiscalStamp) error

	ListDiscountRules(ctx context.Context) ([]DiscountRule, error)
	SaveDiscountRule(ctx context.Context, rule *DiscountRule) error

	ListProductMargins(ctx context.Context) ([]ProductMargin, error)
	SaveProductMargin(ctx context.Context, margin *ProductMargin) error
}
