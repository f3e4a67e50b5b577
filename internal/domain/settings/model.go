// Package settings holds the financial settings documents are computed with:
// VAT rates, the fiscal stamp, discount rules and product margins.
package settings

import (
	"context"
	"strings"
	"time"

	"gestcom/internal/core/apperror"
	"gestcom/internal/core/types"
)

// VATRate is a VAT rate effective from a date until superseded.
type VATRate struct {
	ID            string     `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	Rate          types.Rate `json:"rate" db:"rate"`
	Description   string     `json:"description,omitempty" db:"description"`
	Active        bool       `json:"active" db:"active"`
	EffectiveFrom time.Time  `json:"effectiveFrom" db:"effective_from"`
}

// Validate implements entity-level invariants.
func (v *VATRate) Validate(ctx context.Context) error {
	if strings.TrimSpace(v.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if !types.InUnitInterval(v.Rate) {
		return apperror.NewInvalidInput("rate", "VAT rate must be between 0 and 1")
	}
	if v.EffectiveFrom.IsZero() {
		return apperror.NewValidation("effective date is required").WithDetail("field", "effectiveFrom")
	}
	return nil
}

// FiscalStamp is the flat per-invoice duty valid over a date window.
type FiscalStamp struct {
	ID            string      `json:"id" db:"id"`
	Amount        types.Money `json:"amount" db:"amount"`
	EffectiveDate time.Time   `json:"effectiveDate" db:"effective_date"`
	EndDate       *time.Time  `json:"endDate,omitempty" db:"end_date"`
	Description   string      `json:"description,omitempty" db:"description"`
	Active        bool        `json:"active" db:"active"`
}

// Validate implements entity-level invariants.
func (f *FiscalStamp) Validate(ctx context.Context) error {
	if f.Amount.IsNegative() {
		return apperror.NewInvalidInput("amount", "fiscal stamp must not be negative")
	}
	if f.EffectiveDate.IsZero() {
		return apperror.NewValidation("effective date is required").WithDetail("field", "effectiveDate")
	}
	if f.EndDate != nil && f.EndDate.Before(f.EffectiveDate) {
		return apperror.NewValidation("end date precedes effective date").WithDetail("field", "endDate")
	}
	return nil
}

// ValidAt reports whether the stamp is active and in force at t.
func (f *FiscalStamp) ValidAt(t time.Time) bool {
	if !f.Active || t.Before(f.EffectiveDate) {
		return false
	}
	return f.EndDate == nil || !t.After(*f.EndDate)
}

// DiscountRuleType classifies discount rules.
type DiscountRuleType string

const (
	DiscountCommercial  DiscountRuleType = "commercial"
	DiscountQuantity    DiscountRuleType = "quantity"
	DiscountPromotional DiscountRuleType = "promotional"
)

// DiscountRule grants a percentage or a flat discount to matching sales.
type DiscountRule struct {
	ID              string           `json:"id" db:"id"`
	Name            string           `json:"name" db:"name"`
	Type            DiscountRuleType `json:"type" db:"type"`
	ClientTypes     []string         `json:"clientType" db:"client_types"`
	MinAmount       *types.Money     `json:"minAmount,omitempty" db:"min_amount"`
	MinQuantity     *types.Money     `json:"minQuantity,omitempty" db:"min_quantity"`
	DiscountPercent *types.Money     `json:"discountPercent,omitempty" db:"discount_percent"`
	DiscountAmount  *types.Money     `json:"discountAmount,omitempty" db:"discount_amount"`
	StartDate       *time.Time       `json:"startDate,omitempty" db:"start_date"`
	EndDate         *time.Time       `json:"endDate,omitempty" db:"end_date"`

	// Condition is an optional CEL expression over clientType, quantity,
	// amount and ruleType, e.g. `clientType == "bulk" && quantity >= 100.0`.
	Condition string `json:"condition,omitempty" db:"condition"`
	Active    bool   `json:"active" db:"active"`
}

// Validate implements entity-level invariants. The condition is compiled by the service.
func (r *DiscountRule) Validate(ctx context.Context) error {
	if strings.TrimSpace(r.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	switch r.Type {
	case DiscountCommercial, DiscountQuantity, DiscountPromotional:
	default:
		return apperror.NewValidation("unknown discount rule type").WithDetail("field", "type")
	}
	if (r.DiscountPercent == nil) == (r.DiscountAmount == nil) {
		return apperror.NewValidation("exactly one of discountPercent or discountAmount is required").
			WithDetail("field", "discountPercent")
	}
	if p := r.DiscountPercent; p != nil && (p.IsNegative() || p.GreaterThan(types.Hundred)) {
		return apperror.NewInvalidInput("discountPercent", "discount percent must be between 0 and 100")
	}
	if a := r.DiscountAmount; a != nil && a.IsNegative() {
		return apperror.NewInvalidInput("discountAmount", "discount amount must not be negative")
	}
	if r.StartDate != nil && r.EndDate != nil && r.EndDate.Before(*r.StartDate) {
		return apperror.NewValidation("end date precedes start date").WithDetail("field", "endDate")
	}
	return nil
}

// DiscountContext describes a sale being priced.
type DiscountContext struct {
	ClientType string         `json:"clientType"`
	Quantity   types.Quantity `json:"quantity"`
	Amount     types.Money    `json:"amount"`
	At         time.Time      `json:"at"`
}

// matchesStatic checks every criterion except the CEL condition.
func (r *DiscountRule) matchesStatic(dc DiscountContext) bool {
	if !r.Active {
		return false
	}
	if r.StartDate != nil && dc.At.Before(*r.StartDate) {
		return false
	}
	if r.EndDate != nil && dc.At.After(*r.EndDate) {
		return false
	}
	if len(r.ClientTypes) > 0 {
		found := false
		for _, ct := range r.ClientTypes {
			if ct == dc.ClientType {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if r.MinAmount != nil && dc.Amount.LessThan(*r.MinAmount) {
		return false
	}
	if r.MinQuantity != nil && dc.Quantity.Decimal().LessThan(*r.MinQuantity) {
		return false
	}
	return true
}

// DiscountOn returns the discount this rule grants on amount.
func (r *DiscountRule) DiscountOn(amount types.Money) types.Money {
	if r.DiscountPercent != nil {
		return amount.Mul(r.DiscountPercent.Shift(-2))
	}
	if r.DiscountAmount != nil {
		return types.MinMoney(*r.DiscountAmount, amount)
	}
	return types.Zero()
}

// ProductMargin bounds the margin, in percent, a product category is sold at.
type ProductMargin struct {
	ID           string      `json:"id" db:"id"`
	Category     string      `json:"category" db:"category"`
	MinMargin    types.Money `json:"minMargin" db:"min_margin"`
	TargetMargin types.Money `json:"targetMargin" db:"target_margin"`
	MaxMargin    types.Money `json:"maxMargin" db:"max_margin"`
}

// Validate checks 0 <= min <= target <= max.
func (m *ProductMargin) Validate(ctx context.Context) error {
	if strings.TrimSpace(m.Category) == "" {
		return apperror.NewValidation("category is required").WithDetail("field", "category")
	}
	if m.MinMargin.IsNegative() {
		return apperror.NewInvalidInput("minMargin", "minimum margin must not be negative")
	}
	if m.TargetMargin.LessThan(m.MinMargin) {
		return apperror.NewInvalidInput("targetMargin", "target margin is below the minimum margin")
	}
	if m.MaxMargin.LessThan(m.TargetMargin) {
		return apperror.NewInvalidInput("maxMargin", "maximum margin is below the target margin")
	}
	return nil
}

// Contains reports whether margin, in percent, lies within [min, max].
func (m *ProductMargin) Contains(margin types.Money) bool {
	return !margin.LessThan(m.MinMargin) && !margin.GreaterThan(m.MaxMargin)
}

// MarginPercent is the markup of price over cost, in percent. A zero cost yields zero.
func MarginPercent(cost, price types.Money) types.Money {
	if cost.IsZero() {
		return types.Zero()
	}
	return price.Sub(cost).Div(cost).Mul(types.Hundred)
}
