package totals

import "gestcom/internal/core/apperror"

// Strategy names how document VAT is aggregated.
type Strategy string

const (
	// StrategyPerLine sums the VAT computed on each line.
	StrategyPerLine Strategy = "per_line"
	// StrategyOnSubtotal applies the rate once to the summed subtotal.
	StrategyOnSubtotal Strategy = "on_subtotal"
)

// Policy is the per-document-kind aggregation rule.
type Policy struct {
	Strategy         Strategy `json:"strategy"`
	ApplyFiscalStamp bool     `json:"applyFiscalStamp"`
	// VATExempt zeroes VAT, e.g. for international purchases.
	VATExempt bool `json:"vatExempt"`
}

// Validate checks the strategy name.
func (p Policy) Validate() error {
	switch p.Strategy {
	case StrategyPerLine, StrategyOnSubtotal:
		return nil
	default:
		return apperror.NewInvalidInput("strategy", "unknown totals strategy "+string(p.Strategy))
	}
}

// Exempt returns a copy of p with VAT zeroed.
func (p Policy) Exempt() Policy {
	p.VATExempt = true
	return p
}
