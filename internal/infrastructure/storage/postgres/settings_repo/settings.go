// Package settings_repo provides the PostgreSQL settings store.
package settings_repo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gestcom/internal/domain/settings"
	"gestcom/internal/infrastructure/storage/postgres"
)

// table describes one settings table.
type table[T any] struct {
	name    string
	orderBy string
	columns []string
}

func newTable[T any](name, orderBy string) table[T] {
	return table[T]{name: name, orderBy: orderBy, columns: postgres.ExtractDBColumns[T]()}
}

var (
	vatRates      = newTable[settings.VATRate]("vat_rates", "effective_from")
	fiscalStamps  = newTable[settings.FiscalStamp]("fiscal_stamps", "effective_date")
	discountRules = newTable[settings.DiscountRule]("discount_rules", "name")
	margins       = newTable[settings.ProductMargin]("product_margins", "category")
)

// SettingsRepo implements settings.Repository.
type SettingsRepo struct {
	txManager *postgres.TxManager
}

var _ settings.Repository = (*SettingsRepo)(nil)

// NewSettingsRepo creates a settings repository.
func NewSettingsRepo(txManager *postgres.TxManager) *SettingsRepo {
	return &SettingsRepo{txManager: txManager}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func list[T any](ctx context.Context, q postgres.Querier, t table[T]) ([]T, error) {
	sql, args, err := builder().
		Select(t.columns...).
		From(t.name).
		OrderBy(t.orderBy, "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := make([]T, 0)
	if err := pgxscan.Select(ctx, q, &items, sql, args...); err != nil {
		return nil, postgres.MapError("list "+t.name, err)
	}
	return items, nil
}

// upsertSQL builds INSERT ... ON CONFLICT (id) DO UPDATE for entity.
func upsertSQL[T any](t table[T], entity *T) (string, []any, error) {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return "", nil, fmt.Errorf("no db tags found in %s entity", t.name)
	}

	updates := make([]string, 0, len(data))
	for col := range data {
		if col == "id" {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	sort.Strings(updates)

	return builder().
		Insert(t.name).
		SetMap(data).
		Suffix("ON CONFLICT (id) DO UPDATE SET " + strings.Join(updates, ", ")).
		ToSql()
}

func save[T any](ctx context.Context, q postgres.Querier, t table[T], entity *T) error {
	sql, args, err := upsertSQL(t, entity)
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError("save "+t.name, err)
	}
	return nil
}

// ListVATRates implements settings.Repository.
func (r *SettingsRepo) ListVATRates(ctx context.Context) ([]settings.VATRate, error) {
	return list(ctx, r.txManager.GetQuerier(ctx), vatRates)
}

// SaveVATRate implements settings.Repository.
func (r *SettingsRepo) SaveVATRate(ctx context.Context, rate *settings.VATRate) error {
	return save(ctx, r.txManager.GetQuerier(ctx), vatRates, rate)
}

// ListFiscalStamps implements settings.Repository.
func (r *SettingsRepo) ListFiscalStamps(ctx context.Context) ([]settings.FiscalStamp, error) {
	return list(ctx, r.txManager.GetQuerier(ctx), fiscalStamps)
}

// SaveFiscalStamp implements settings.Repository.
func (r *SettingsRepo) SaveFiscalStamp(ctx context.Context, stamp *settings.FiscalStamp) error {
	return save(ctx, r.txManager.GetQuerier(ctx), fiscalStamps, stamp)
}

// ListDiscountRules implements settings.Repository.
func (r *SettingsRepo) ListDiscountRules(ctx context.Context) ([]settings.DiscountRule, error) {
	return list(ctx, r.txManager.GetQuerier(ctx), discountRules)
}

// SaveDiscountRule implements settings.Repository.
func (r *SettingsRepo) SaveDiscountRule(ctx context.Context, rule *settings.DiscountRule) error {
	if rule.ClientTypes == nil {
		rule.ClientTypes = []string{}
	}
	return save(ctx, r.txManager.GetQuerier(ctx), discountRules, rule)
}

// ListProductMargins implements settings.Repository.
func (r *SettingsRepo) ListProductMargins(ctx context.Context) ([]settings.ProductMargin, error) {
	return list(ctx, r.txManager.GetQuerier(ctx), margins)
}

// SaveProductMargin implements settings.Repository. A second row for an
// existing category violates the unique index and maps to CONFLICT.
func (r *SettingsRepo) SaveProductMargin(ctx context.Context, margin *settings.ProductMargin) error {
	return save(ctx, r.txManager.GetQuerier(ctx), margins, margin)
}
