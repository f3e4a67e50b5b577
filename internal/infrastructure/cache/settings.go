// Package cache provides in-process caches built on patrickmn/go-cache.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"gestcom/internal/domain/settings"
)

const (
	keyVATRates      = "settings:vat_rates"
	keyFiscalStamps  = "settings:fiscal_stamps"
	keyDiscountRules = "settings:discount_rules"
	keyMargins       = "settings:product_margins"
)

// SettingsRepository decorates a settings.Repository with a TTL cache.
// Every document creation resolves the VAT rate and fiscal stamp, so reads
// dominate; saves drop the affected entry.
type SettingsRepository struct {
	next  settings.Repository
	cache *gocache.Cache
}

var _ settings.Repository = (*SettingsRepository)(nil)

// NewSettingsRepository wraps next. A non-positive ttl disables expiry.
func NewSettingsRepository(next settings.Repository, ttl time.Duration) *SettingsRepository {
	expiration := ttl
	if expiration <= 0 {
		expiration = gocache.NoExpiration
	}
	return &SettingsRepository{
		next:  next,
		cache: gocache.New(expiration, 10*time.Minute),
	}
}

// cachedList loads key through load, caching a private copy.
func cachedList[T any](c *gocache.Cache, key string, load func() ([]T, error)) ([]T, error) {
	if v, ok := c.Get(key); ok {
		items := v.([]T)
		out := make([]T, len(items))
		copy(out, items)
		return out, nil
	}

	items, err := load()
	if err != nil {
		return nil, err
	}
	stored := make([]T, len(items))
	copy(stored, items)
	c.SetDefault(key, stored)
	return items, nil
}

// ListVATRates implements settings.Repository.
func (r *SettingsRepository) ListVATRates(ctx context.Context) ([]settings.VATRate, error) {
	return cachedList(r.cache, keyVATRates, func() ([]settings.VATRate, error) {
		return r.next.ListVATRates(ctx)
	})
}

// SaveVATRate implements settings.Repository.
func (r *SettingsRepository) SaveVATRate(ctx context.Context, rate *settings.VATRate) error {
	defer r.cache.Delete(keyVATRates)
	return r.next.SaveVATRate(ctx, rate)
}

// ListFiscalStamps implements settings.Repository.
func (r *SettingsRepository) ListFiscalStamps(ctx context.Context) ([]settings.FiscalStamp, error) {
	return cachedList(r.cache, keyFiscalStamps, func() ([]settings.FiscalStamp, error) {
		return r.next.ListFiscalStamps(ctx)
	})
}

// SaveFiscalStamp implements settings.Repository.
func (r *SettingsRepository) SaveFiscalStamp(ctx context.Context, stamp *settings.FiscalStamp) error {
	defer r.cache.Delete(keyFiscalStamps)
	return r.next.SaveFiscalStamp(ctx, stamp)
}

// ListDiscountRules implements settings.Repository.
func (r *SettingsRepository) ListDiscountRules(ctx context.Context) ([]settings.DiscountRule, error) {
	return cachedList(r.cache, keyDiscountRules, func() ([]settings.DiscountRule, error) {
		return r.next.ListDiscountRules(ctx)
	})
}

// SaveDiscountRule implements settings.Repository.
func (r *SettingsRepository) SaveDiscountRule(ctx context.Context, rule *settings.DiscountRule) error {
	defer r.cache.Delete(keyDiscountRules)
	return r.next.SaveDiscountRule(ctx, rule)
}

// ListProductMargins implements settings.Repository.
func (r *SettingsRepository) ListProductMargins(ctx context.Context) ([]settings.ProductMargin, error) {
	return cachedList(r.cache, keyMargins, func() ([]settings.ProductMargin, error) {
		return r.next.ListProductMargins(ctx)
	})
}

// SaveProductMargin implements settings.Repository.
func (r *SettingsRepository) SaveProductMargin(ctx context.Context, margin *settings.ProductMargin) error {
	defer r.cache.Delete(keyMargins)
	return r.next.SaveProductMargin(ctx, margin)
}

// Flush drops every cached entry.
func (r *SettingsRepository) Flush() {
	r.cache.Flush()
}
