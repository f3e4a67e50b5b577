package dto

import (
	"gestcom/internal/core/types"
	"gestcom/internal/domain/totals"
)

// LineAmountsRequest is the body of POST /totals/line.
type LineAmountsRequest struct {
	Quantity     types.Quantity `json:"quantity"`
	UnitPrice    types.Money    `json:"unitPrice"`
	Discount     types.Money    `json:"discount"`
	DiscountType string         `json:"discountType"`

	// VATRate defaults to the standard rate when omitted
	VATRate *types.Rate `json:"vatRate"`
}

// Input converts the request into an engine input.
func (r LineAmountsRequest) Input() totals.LineInput {
	return totals.LineInput{
		Quantity:     r.Quantity,
		UnitPrice:    r.UnitPrice,
		Discount:     r.Discount,
		DiscountType: totals.DiscountType(r.DiscountType),
	}
}

// LineAmountsResponse carries computed line amounts.
type LineAmountsResponse struct {
	GrossAmount    string `json:"grossAmount"`
	DiscountAmount string `json:"discountAmount"`
	NetAmount      string `json:"netAmount"`
	VATAmount      string `json:"vatAmount"`
	Total          string `json:"total"`
}

// FromLineAmounts renders line amounts.
func FromLineAmounts(a totals.LineAmounts) LineAmountsResponse {
	return LineAmountsResponse{
		GrossAmount:    Amount(a.GrossAmount),
		DiscountAmount: Amount(a.DiscountAmount),
		NetAmount:      Amount(a.NetAmount),
		VATAmount:      Amount(a.VATAmount),
		Total:          Amount(a.Total),
	}
}

// DocumentTotalsRequest is the body of POST /totals/document. When Kind is
// set its policy applies; otherwise Strategy and ApplyFiscalStamp do.
type DocumentTotalsRequest struct {
	Kind             string               `json:"kind"`
	Strategy         string               `json:"strategy"`
	ApplyFiscalStamp bool                 `json:"applyFiscalStamp"`
	VATExempt        bool                 `json:"vatExempt"`
	VATRate          *types.Rate          `json:"vatRate"`
	FiscalStamp      *types.Money         `json:"fiscalStamp"`
	Lines            []LineAmountsRequest `json:"lines"`
}

// DocumentTotalsResponse carries per-line and document totals.
type DocumentTotalsResponse struct {
	Lines  []LineAmountsResponse `json:"lines"`
	Totals TotalsResponse        `json:"totals"`
}
