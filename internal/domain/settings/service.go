package settings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gestcom/internal/core/id"
	"gestcom/internal/core/types"
	"gestcom/internal/domain/totals"
	"gestcom/pkg/logger"
)

// Service resolves the rates documents are computed with and manages the
// settings records.
type Service struct {
	repo       Repository
	conditions *ConditionEvaluator
}

// NewService creates a settings service.
func NewService(repo Repository, conditions *ConditionEvaluator) *Service {
	return &Service{repo: repo, conditions: conditions}
}

// ResolveVATRate returns the latest active rate effective at at,
// or totals.DefaultVATRate when none is configured.
func (s *Service) ResolveVATRate(ctx context.Context, at time.Time) (types.Rate, error) {
	rates, err := s.repo.ListVATRates(ctx)
	if err != nil {
		return types.Zero(), fmt.Errorf("list vat rates: %w", err)
	}

	var best *VATRate
	for i := range rates {
		r := &rates[i]
		if !r.Active || r.EffectiveFrom.After(at) {
			continue
		}
		if best == nil || r.EffectiveFrom.After(best.EffectiveFrom) {
			best = r
		}
	}
	if best == nil {
		return totals.DefaultVATRate, nil
	}
	return best.Rate, nil
}

// ResolveFiscalStamp returns the amount of the active stamp whose window
// contains at (latest effective date wins), or totals.DefaultFiscalStamp.
func (s *Service) ResolveFiscalStamp(ctx context.Context, at time.Time) (types.Money, error) {
	stamps, err := s.repo.ListFiscalStamps(ctx)
	if err != nil {
		return types.Zero(), fmt.Errorf("list fiscal stamps: %w", err)
	}

	var best *FiscalStamp
	for i := range stamps {
		st := &stamps[i]
		if !st.ValidAt(at) {
			continue
		}
		if best == nil || st.EffectiveDate.After(best.EffectiveDate) {
			best = st
		}
	}
	if best == nil {
		return totals.DefaultFiscalStamp, nil
	}
	return best.Amount, nil
}

// MatchDiscountRules returns the active rules that apply to dc.
func (s *Service) MatchDiscountRules(ctx context.Context, dc DiscountContext) ([]DiscountRule, error) {
	rules, err := s.repo.ListDiscountRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list discount rules: %w", err)
	}

	matched := make([]DiscountRule, 0, len(rules))
	for i := range rules {
		r := &rules[i]
		if !r.matchesStatic(dc) {
			continue
		}
		if s.conditions != nil {
			ok, err := s.conditions.Eval(r, dc)
			if err != nil {
				logger.Warn(ctx, "discount rule condition failed", "rule", r.ID, "error", err)
				continue
			}
			if !ok {
				continue
			}
		}
		matched = append(matched, *r)
	}
	return matched, nil
}

// BestDiscount picks the matching rule granting the largest discount on dc.Amount.
func (s *Service) BestDiscount(ctx context.Context, dc DiscountContext) (*DiscountRule, types.Money, error) {
	rules, err := s.MatchDiscountRules(ctx, dc)
	if err != nil {
		return nil, types.Zero(), err
	}

	var best *DiscountRule
	bestAmount := types.Zero()
	for i := range rules {
		amount := rules[i].DiscountOn(dc.Amount)
		if best == nil || amount.GreaterThan(bestAmount) {
			best = &rules[i]
			bestAmount = amount
		}
	}
	return best, bestAmount, nil
}

// ListVATRates returns every VAT rate.
func (s *Service) ListVATRates(ctx context.Context) ([]VATRate, error) {
	return s.repo.ListVATRates(ctx)
}

// SaveVATRate validates and stores rate, assigning an ID when missing.
func (s *Service) SaveVATRate(ctx context.Context, rate *VATRate) error {
	if err := rate.Validate(ctx); err != nil {
		return err
	}
	if rate.ID == "" {
		rate.ID = id.NewString()
	}
	if err := s.repo.SaveVATRate(ctx, rate); err != nil {
		return fmt.Errorf("save vat rate: %w", err)
	}
	logger.Info(ctx, "vat rate saved", "id", rate.ID, "rate", rate.Rate.String())
	return nil
}

// ListFiscalStamps returns every fiscal stamp.
func (s *Service) ListFiscalStamps(ctx context.Context) ([]FiscalStamp, error) {
	return s.repo.ListFiscalStamps(ctx)
}

// SaveFiscalStamp validates and stores stamp.
func (s *Service) SaveFiscalStamp(ctx context.Context, stamp *FiscalStamp) error {
	if err := stamp.Validate(ctx); err != nil {
		return err
	}
	if stamp.ID == "" {
		stamp.ID = id.NewString()
	}
	if err := s.repo.SaveFiscalStamp(ctx, stamp); err != nil {
		return fmt.Errorf("save fiscal stamp: %w", err)
	}
	logger.Info(ctx, "fiscal stamp saved", "id", stamp.ID, "amount", types.Fixed(stamp.Amount))
	return nil
}

// ListDiscountRules returns every discount rule.
func (s *Service) ListDiscountRules(ctx context.Context) ([]DiscountRule, error) {
	return s.repo.ListDiscountRules(ctx)
}

// SaveDiscountRule validates rule, compiles its condition and stores it.
func (s *Service) SaveDiscountRule(ctx context.Context, rule *DiscountRule) error {
	if err := rule.Validate(ctx); err != nil {
		return err
	}
	if rule.Condition != "" && s.conditions != nil {
		if _, err := s.conditions.Compile(rule.Condition); err != nil {
			return err
		}
	}
	if rule.ID == "" {
		rule.ID = id.NewString()
	}
	if err := s.repo.SaveDiscountRule(ctx, rule); err != nil {
		return fmt.Errorf("save discount rule: %w", err)
	}
	logger.Info(ctx, "discount rule saved", "id", rule.ID, "type", rule.Type)
	return nil
}

// ListProductMargins returns every product margin, ordered by category.
func (s *Service) ListProductMargins(ctx context.Context) ([]ProductMargin, error) {
	return s.repo.ListProductMargins(ctx)
}

// SaveProductMargin validates and stores margin. Categories are unique:
// saving a known category without an ID replaces the existing record.
func (s *Service) SaveProductMargin(ctx context.Context, margin *ProductMargin) error {
	margin.Category = strings.TrimSpace(margin.Category)
	if err := margin.Validate(ctx); err != nil {
		return err
	}
	if margin.ID == "" {
		existing, err := s.MarginFor(ctx, margin.Category)
		if err != nil {
			return err
		}
		if existing != nil {
			margin.ID = existing.ID
		} else {
			margin.ID = id.NewString()
		}
	}
	if err := s.repo.SaveProductMargin(ctx, margin); err != nil {
		return fmt.Errorf("save product margin: %w", err)
	}
	logger.Info(ctx, "product margin saved", "id", margin.ID, "category", margin.Category)
	return nil
}

// MarginFor returns the margin of category (case-insensitive), or nil.
func (s *Service) MarginFor(ctx context.Context, category string) (*ProductMargin, error) {
	margins, err := s.repo.ListProductMargins(ctx)
	if err != nil {
		return nil, fmt.Errorf("list product margins: %w", err)
	}
	for i := range margins {
		if strings.EqualFold(margins[i].Category, strings.TrimSpace(category)) {
			return &margins[i], nil
		}
	}
	return nil, nil
}
