package memory

import (
	"context"
	"sort"
	"sync"

	"gestcom/internal/domain/settings"
)

// SettingsStore implements settings.Repository.
type SettingsStore struct {
	mu        sync.RWMutex
	vatRates  map[string]settings.VATRate
	stamps    map[string]settings.FiscalStamp
	discounts map[string]settings.DiscountRule
	margins   map[string]settings.ProductMargin
}

// NewSettingsStore creates an empty settings store.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{
		vatRates:  make(map[string]settings.VATRate),
		stamps:    make(map[string]settings.FiscalStamp),
		discounts: make(map[string]settings.DiscountRule),
		margins:   make(map[string]settings.ProductMargin),
	}
}

var _ settings.Repository = (*SettingsStore)(nil)

// ListVATRates implements settings.Repository, ordered by effective date.
func (s *SettingsStore) ListVATRates(ctx context.Context) ([]settings.VATRate, error) {
	s.mu.RLock()
	out := make([]settings.VATRate, 0, len(s.vatRates))
	for _, v := range s.vatRates {
		out = append(out, v)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].EffectiveFrom.Before(out[j].EffectiveFrom) })
	return out, nil
}

// SaveVATRate implements settings.Repository.
func (s *SettingsStore) SaveVATRate(ctx context.Context, rate *settings.VATRate) error {
	s.mu.Lock()
	s.vatRates[rate.ID] = *rate
	s.mu.Unlock()
	return nil
}

// ListFiscalStamps implements settings.Repository, ordered by effective date.
func (s *SettingsStore) ListFiscalStamps(ctx context.Context) ([]settings.FiscalStamp, error) {
	s.mu.RLock()
	out := make([]settings.FiscalStamp, 0, len(s.stamps))
	for _, v := range s.stamps {
		out = append(out, v)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].EffectiveDate.Before(out[j].EffectiveDate) })
	return out, nil
}

// SaveFiscalStamp implements settings.Repository.
func (s *SettingsStore) SaveFiscalStamp(ctx context.Context, stamp *settings.FiscalStamp) error {
	s.mu.Lock()
	s.stamps[stamp.ID] = *stamp
	s.mu.Unlock()
	return nil
}

// ListDiscountRules implements settings.Repository, ordered by name.
func (s *SettingsStore) ListDiscountRules(ctx context.Context) ([]settings.DiscountRule, error) {
	s.mu.RLock()
	out := make([]settings.DiscountRule, 0, len(s.discounts))
	for _, v := range s.discounts {
		v.ClientTypes = append([]string(nil), v.ClientTypes...)
		out = append(out, v)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SaveDiscountRule implements settings.Repository.
func (s *SettingsStore) SaveDiscountRule(ctx context.Context, rule *settings.DiscountRule) error {
	stored := *rule
	stored.ClientTypes = append([]string(nil), rule.ClientTypes...)
	s.mu.Lock()
	s.discounts[rule.ID] = stored
	s.mu.Unlock()
	return nil
}

// ListProductMargins implements settings.Repository, ordered by category.
func (s *SettingsStore) ListProductMargins(ctx context.Context) ([]settings.ProductMargin, error) {
	s.mu.RLock()
	out := make([]settings.ProductMargin, 0, len(s.margins))
	for _, v := range s.margins {
		out = append(out, v)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

// SaveProductMargin implements settings.Repository.
func (s *SettingsStore) SaveProductMargin(ctx context.Context, margin *settings.ProductMargin) error {
	s.mu.Lock()
	s.margins[margin.ID] = *margin
	s.mu.Unlock()
	return nil
}
