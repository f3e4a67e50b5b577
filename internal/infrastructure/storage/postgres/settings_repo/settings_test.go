package settings_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestcom/internal/core/types"
	"gestcom/internal/domain/settings"
)

func TestTableColumns(t *testing.T) {
	assert.Equal(t, []string{"id", "name", "rate", "description", "active", "effective_from"}, vatRates.columns)
	assert.Contains(t, discountRules.columns, "client_types")
	assert.Contains(t, discountRules.columns, "condition")
	assert.Contains(t, fiscalStamps.columns, "end_date")
}

func TestUpsertSQL(t *testing.T) {
	stamp := &settings.FiscalStamp{
		ID:            "stamp-2024",
		Amount:        types.MustMoney("1.000"),
		EffectiveDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Active:        true,
	}

	sql, args, err := upsertSQL(fiscalStamps, stamp)
	require.NoError(t, err)
	assert.Contains(t, sql, "INSERT INTO fiscal_stamps")
	assert.Contains(t, sql, "ON CONFLICT (id) DO UPDATE SET active = EXCLUDED.active, amount = EXCLUDED.amount")
	assert.NotContains(t, sql, "id = EXCLUDED.id")
	assert.Len(t, args, 6)
}

func TestUpsertSQL_ProductMargins(t *testing.T) {
	assert.Equal(t, []string{"id", "category", "min_margin", "target_margin", "max_margin"}, margins.columns)

	margin := &settings.ProductMargin{
		ID:           "margin-1",
		Category:     "Quincaillerie",
		MinMargin:    types.MustMoney("10"),
		TargetMargin: types.MustMoney("25"),
		MaxMargin:    types.MustMoney("40"),
	}
	sql, args, err := upsertSQL(margins, margin)
	require.NoError(t, err)
	assert.Contains(t, sql, "INSERT INTO product_margins")
	assert.Contains(t, sql, "ON CONFLICT (id) DO UPDATE SET")
	assert.Contains(t, sql, "target_margin = EXCLUDED.target_margin")
	assert.Len(t, args, 5)
}
