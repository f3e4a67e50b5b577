package dto

import (
	"time"

	"gestcom/internal/core/types"
	"gestcom/internal/domain/settings"
)

// DiscountMatchRequest is the body of POST /settings/discount-rules/match.
type DiscountMatchRequest struct {
	ClientType string         `json:"clientType"`
	Quantity   types.Quantity `json:"quantity"`
	Amount     types.Money    `json:"amount"`
	At         *Date          `json:"at"`
}

// Context converts the request, defaulting At to now.
func (r DiscountMatchRequest) Context(now time.Time) settings.DiscountContext {
	at := now
	if t := r.At.Ptr(); t != nil {
		at = *t
	}
	return settings.DiscountContext{
		ClientType: r.ClientType,
		Quantity:   r.Quantity,
		Amount:     r.Amount,
		At:         at,
	}
}

// BestDiscountResponse names the most favourable rule.
type BestDiscountResponse struct {
	RuleID   string `json:"ruleId"`
	Name     string `json:"name"`
	Discount string `json:"discount"`
}

// DiscountMatchResponse lists matching rules and the best one.
type DiscountMatchResponse struct {
	Rules []settings.DiscountRule `json:"rules"`
	Best  *BestDiscountResponse   `json:"best,omitempty"`
}

// ResolvedRatesResponse shows the rates a document dated At would use.
type ResolvedRatesResponse struct {
	At          time.Time `json:"at"`
	VATRate     string    `json:"vatRate"`
	FiscalStamp string    `json:"fiscalStamp"`
}

// MarginCheckRequest is the body of POST /settings/margins/check.
type MarginCheckRequest struct {
	Category string      `json:"category" binding:"required"`
	Cost     types.Money `json:"cost"`
	Price    types.Money `json:"price"`
}

// MarginCheckResponse reports where a price falls against its category bounds.
type MarginCheckResponse struct {
	Category      string `json:"category"`
	MarginPercent string `json:"marginPercent"`
	Within        bool   `json:"within"`
	BelowMinimum  bool   `json:"belowMinimum"`
	TargetPrice   string `json:"targetPrice"`
}

// NewMarginCheckResponse evaluates cost and price against m.
func NewMarginCheckResponse(m *settings.ProductMargin, cost, price types.Money) MarginCheckResponse {
	pct := settings.MarginPercent(cost, price)
	return MarginCheckResponse{
		Category:      m.Category,
		MarginPercent: Amount(pct),
		Within:        m.Contains(pct),
		BelowMinimum:  pct.LessThan(m.MinMargin),
		TargetPrice:   Amount(cost.Add(cost.Mul(m.TargetMargin).Div(types.Hundred))),
	}
}
