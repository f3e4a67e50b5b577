// Package totals computes line and document amounts for commercial documents.
//
// All arithmetic is exact decimal arithmetic. Nothing here rounds: callers
// round to the currency precision (types.Round) only when presenting or
// exporting a value, so document sums are always sum-then-round.
package totals

import (
	"gestcom/internal/core/apperror"
	"gestcom/internal/core/types"
)

// DiscountType selects how LineInput.Discount is interpreted.
type DiscountType string

const (
	// DiscountPercentage treats the discount as a percentage of the gross amount.
	DiscountPercentage DiscountType = "percentage"
	// DiscountAmount treats the discount as a flat amount, clamped to the gross amount.
	DiscountAmount DiscountType = "amount"
)

// ParseDiscountType accepts "percentage", "amount" or "" (percentage).
func ParseDiscountType(s string) (DiscountType, error) {
	switch DiscountType(s) {
	case "", DiscountPercentage:
		return DiscountPercentage, nil
	case DiscountAmount:
		return DiscountAmount, nil
	default:
		return "", apperror.NewInvalidInput("discountType", "unknown discount type "+s)
	}
}

// LineInput is what a form supplies for one line.
type LineInput struct {
	Quantity     types.Quantity `json:"quantity"`
	UnitPrice    types.Money    `json:"unitPrice"`
	Discount     types.Money    `json:"discount"`
	DiscountType DiscountType   `json:"discountType"`
}

// LineAmounts are the derived amounts of one line.
type LineAmounts struct {
	GrossAmount    types.Money `json:"grossAmount"`
	DiscountAmount types.Money `json:"discountAmount"`
	NetAmount      types.Money `json:"netAmount"`
	VATAmount      types.Money `json:"vatAmount"`
	Total          types.Money `json:"total"`
}

// DocumentTotals are the document-level aggregates.
type DocumentTotals struct {
	Subtotal    types.Money `json:"subtotal"`
	VAT         types.Money `json:"vat"`
	FiscalStamp types.Money `json:"fiscalStamp"`
	Total       types.Money `json:"total"`
}

// Validate rejects inputs the engine refuses to compute with.
func (in LineInput) Validate() error {
	if !in.Quantity.IsPositive() {
		return apperror.NewInvalidInput("quantity", "quantity must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return apperror.NewInvalidInput("unitPrice", "unit price must not be negative")
	}
	if in.Discount.IsNegative() {
		return apperror.NewInvalidInput("discount", "discount must not be negative")
	}

	dt, err := ParseDiscountType(string(in.DiscountType))
	if err != nil {
		return err
	}
	if dt == DiscountPercentage && in.Discount.GreaterThan(types.Hundred) {
		return apperror.NewInvalidInput("discount", "percentage discount must not exceed 100")
	}
	return nil
}

// ValidateRate checks that a VAT rate lies in [0,1].
func ValidateRate(vatRate types.Rate) error {
	if !types.InUnitInterval(vatRate) {
		return apperror.NewInvalidInput("vatRate", "VAT rate must be between 0 and 1")
	}
	return nil
}

// ComputeLine derives gross, discount, net, VAT and total for one line.
//
//	gross    = quantity × unitPrice
//	discount = gross × d/100 (percentage) or min(d, gross) (amount)
//	net      = gross − discount
//	vat      = net × vatRate
//	total    = net + vat
func ComputeLine(in LineInput, vatRate types.Rate) (LineAmounts, error) {
	if err := in.Validate(); err != nil {
		return LineAmounts{}, err
	}
	if err := ValidateRate(vatRate); err != nil {
		return LineAmounts{}, err
	}

	gross := in.Quantity.Decimal().Mul(in.UnitPrice)

	var discount types.Money
	if in.DiscountType == DiscountAmount {
		discount = in.Discount
	} else {
		discount = gross.Mul(in.Discount.Shift(-2))
	}
	discount = types.MinMoney(discount, gross)

	net := gross.Sub(discount)
	vat := net.Mul(vatRate)

	return LineAmounts{
		GrossAmount:    gross,
		DiscountAmount: discount,
		NetAmount:      net,
		VATAmount:      vat,
		Total:          net.Add(vat),
	}, nil
}

// ComputeDocumentTotals aggregates computed lines under policy.
// The lines must have been computed with the same vatRate.
func ComputeDocumentTotals(lines []LineAmounts, policy Policy, vatRate types.Rate, stamp types.Money) DocumentTotals {
	subtotal := types.Zero()
	lineVAT := types.Zero()
	for _, l := range lines {
		subtotal = subtotal.Add(l.NetAmount)
		lineVAT = lineVAT.Add(l.VATAmount)
	}

	var vat types.Money
	switch {
	case policy.VATExempt:
		vat = types.Zero()
	case policy.Strategy == StrategyOnSubtotal:
		vat = subtotal.Mul(vatRate)
	default:
		vat = lineVAT
	}

	fiscalStamp := types.Zero()
	if policy.ApplyFiscalStamp {
		fiscalStamp = stamp
	}

	return DocumentTotals{
		Subtotal:    subtotal,
		VAT:         vat,
		FiscalStamp: fiscalStamp,
		Total:       subtotal.Add(vat).Add(fiscalStamp),
	}
}

// ComputeDocument computes every line and the document totals in one pass.
// A VAT-exempt policy computes lines at a zero rate so line totals stay
// consistent with the document VAT.
func ComputeDocument(inputs []LineInput, policy Policy, vatRate types.Rate, stamp types.Money) ([]LineAmounts, DocumentTotals, error) {
	if err := ValidateRate(vatRate); err != nil {
		return nil, DocumentTotals{}, err
	}
	if err := policy.Validate(); err != nil {
		return nil, DocumentTotals{}, err
	}
	if stamp.IsNegative() {
		return nil, DocumentTotals{}, apperror.NewInvalidInput("fiscalStamp", "fiscal stamp must not be negative")
	}

	rate := vatRate
	if policy.VATExempt {
		rate = types.Zero()
	}

	lines := make([]LineAmounts, len(inputs))
	for i, in := range inputs {
		amounts, err := ComputeLine(in, rate)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return nil, DocumentTotals{}, appErr.WithDetail("lineNo", i+1)
			}
			return nil, DocumentTotals{}, err
		}
		lines[i] = amounts
	}

	return lines, ComputeDocumentTotals(lines, policy, rate, stamp), nil
}
