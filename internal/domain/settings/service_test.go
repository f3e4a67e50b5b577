package settings_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestcom/internal/core/apperror"
	"gestcom/internal/core/types"
	"gestcom/internal/domain/settings"
	"gestcom/internal/infrastructure/storage/memory"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func money(s string) *types.Money {
	m := types.MustMoney(s)
	return &m
}

func newService(t *testing.T) *settings.Service {
	t.Helper()
	conditions, err := settings.NewConditionEvaluator()
	require.NoError(t, err)
	return settings.NewService(memory.NewSettingsStore(), conditions)
}

func TestResolveVATRate(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	rate, err := svc.ResolveVATRate(ctx, date(2024, 1, 1))
	require.NoError(t, err)
	assert.True(t, rate.Equal(types.MustMoney("0.19")), "default")

	require.NoError(t, svc.SaveVATRate(ctx, &settings.VATRate{
		Name: "Standard 2018", Rate: types.MustMoney("0.19"), Active: true, EffectiveFrom: date(2018, 1, 1),
	}))
	require.NoError(t, svc.SaveVATRate(ctx, &settings.VATRate{
		Name: "Standard 2025", Rate: types.MustMoney("0.20"), Active: true, EffectiveFrom: date(2025, 1, 1),
	}))
	require.NoError(t, svc.SaveVATRate(ctx, &settings.VATRate{
		Name: "Withdrawn", Rate: types.MustMoney("0.50"), Active: false, EffectiveFrom: date(2024, 6, 1),
	}))

	rate, err = svc.ResolveVATRate(ctx, date(2024, 7, 1))
	require.NoError(t, err)
	assert.True(t, rate.Equal(types.MustMoney("0.19")))

	rate, err = svc.ResolveVATRate(ctx, date(2025, 3, 1))
	require.NoError(t, err)
	assert.True(t, rate.Equal(types.MustMoney("0.20")))
}

func TestResolveFiscalStamp_HonoursWindow(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	end := date(2023, 12, 31)

	require.NoError(t, svc.SaveFiscalStamp(ctx, &settings.FiscalStamp{
		Amount: types.MustMoney("0.600"), EffectiveDate: date(2020, 1, 1), EndDate: &end, Active: true,
	}))
	require.NoError(t, svc.SaveFiscalStamp(ctx, &settings.FiscalStamp{
		Amount: types.MustMoney("1.000"), EffectiveDate: date(2024, 1, 1), Active: true,
	}))

	stamp, err := svc.ResolveFiscalStamp(ctx, date(2023, 12, 31))
	require.NoError(t, err)
	assert.True(t, stamp.Equal(types.MustMoney("0.6")))

	stamp, err = svc.ResolveFiscalStamp(ctx, date(2024, 2, 1))
	require.NoError(t, err)
	assert.True(t, stamp.Equal(types.MustMoney("1")))

	stamp, err = svc.ResolveFiscalStamp(ctx, date(2019, 2, 1))
	require.NoError(t, err)
	assert.True(t, stamp.Equal(types.MustMoney("1")), "default outside every window")
}

func TestSaveValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	err := svc.SaveVATRate(ctx, &settings.VATRate{Name: "Bad", Rate: types.MustMoney("19"), EffectiveFrom: date(2024, 1, 1)})
	assert.True(t, apperror.IsInvalidInput(err))

	end := date(2019, 1, 1)
	err = svc.SaveFiscalStamp(ctx, &settings.FiscalStamp{Amount: types.MustMoney("1"), EffectiveDate: date(2020, 1, 1), EndDate: &end})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	err = svc.SaveDiscountRule(ctx, &settings.DiscountRule{
		Name: "Both", Type: settings.DiscountCommercial, DiscountPercent: money("5"), DiscountAmount: money("10"),
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	err = svc.SaveDiscountRule(ctx, &settings.DiscountRule{
		Name: "Broken", Type: settings.DiscountCommercial, DiscountPercent: money("5"), Condition: "quantity >",
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	err = svc.SaveDiscountRule(ctx, &settings.DiscountRule{
		Name: "NotBool", Type: settings.DiscountCommercial, DiscountPercent: money("5"), Condition: "amount * 2.0",
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestMatchDiscountRules(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	promoEnd := date(2024, 12, 31)

	rules := []*settings.DiscountRule{
		{
			Name: "Wholesale", Type: settings.DiscountCommercial, ClientTypes: []string{"wholesale", "bulk"},
			DiscountPercent: money("5"), Active: true,
		},
		{
			Name: "Volume", Type: settings.DiscountQuantity, MinQuantity: money("100"),
			DiscountPercent: money("8"), Active: true,
			Condition: `clientType != "retail" && amount >= 1000.0`,
		},
		{
			Name: "Summer", Type: settings.DiscountPromotional, DiscountAmount: money("50"),
			StartDate: ptr(date(2024, 6, 1)), EndDate: &promoEnd, Active: true,
		},
		{
			Name: "Disabled", Type: settings.DiscountCommercial, DiscountPercent: money("90"), Active: false,
		},
	}
	for _, r := range rules {
		require.NoError(t, svc.SaveDiscountRule(ctx, r))
		assert.NotEmpty(t, r.ID)
	}

	names := func(dc settings.DiscountContext) []string {
		matched, err := svc.MatchDiscountRules(ctx, dc)
		require.NoError(t, err)
		out := make([]string, 0, len(matched))
		for _, m := range matched {
			out = append(out, m.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Summer", "Volume", "Wholesale"}, names(settings.DiscountContext{
		ClientType: "bulk", Quantity: types.NewQuantity(150), Amount: types.MustMoney("2000"), At: date(2024, 7, 1),
	}))
	assert.Equal(t, []string{"Wholesale"}, names(settings.DiscountContext{
		ClientType: "wholesale", Quantity: types.NewQuantity(150), Amount: types.MustMoney("900"), At: date(2025, 1, 2),
	}))
	assert.Empty(t, names(settings.DiscountContext{
		ClientType: "retail", Quantity: types.NewQuantity(500), Amount: types.MustMoney("5000"), At: date(2025, 1, 2),
	}))

	best, amount, err := svc.BestDiscount(ctx, settings.DiscountContext{
		ClientType: "bulk", Quantity: types.NewQuantity(150), Amount: types.MustMoney("2000"), At: date(2024, 7, 1),
	})
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, "Volume", best.Name)
	assert.True(t, amount.Equal(types.MustMoney("160")))
}

func ptr[T any](v T) *T { return &v }

func TestProductMargin_Validate(t *testing.T) {
	ctx := context.Background()

	valid := settings.ProductMargin{
		Category:     "Quincaillerie",
		MinMargin:    types.MustMoney("10"),
		TargetMargin: types.MustMoney("25"),
		MaxMargin:    types.MustMoney("40"),
	}
	require.NoError(t, valid.Validate(ctx))

	flat := valid
	flat.MinMargin, flat.TargetMargin, flat.MaxMargin = types.Zero(), types.Zero(), types.Zero()
	assert.NoError(t, flat.Validate(ctx), "all bounds equal")

	cases := map[string]func(m *settings.ProductMargin){
		"minMargin":    func(m *settings.ProductMargin) { m.MinMargin = types.MustMoney("-1") },
		"targetMargin": func(m *settings.ProductMargin) { m.TargetMargin = types.MustMoney("5") },
		"maxMargin":    func(m *settings.ProductMargin) { m.MaxMargin = types.MustMoney("20") },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			m := valid
			mutate(&m)
			err := m.Validate(ctx)
			require.Error(t, err)
			assert.True(t, apperror.IsInvalidInput(err))
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, field, appErr.Details["field"])
		})
	}

	noCategory := valid
	noCategory.Category = "  "
	assert.Error(t, noCategory.Validate(ctx))
}

func TestSaveProductMargin_UpsertsByCategory(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	first := &settings.ProductMargin{
		Category:     " Peinture ",
		MinMargin:    types.MustMoney("15"),
		TargetMargin: types.MustMoney("20"),
		MaxMargin:    types.MustMoney("30"),
	}
	require.NoError(t, svc.SaveProductMargin(ctx, first))
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Peinture", first.Category)

	second := &settings.ProductMargin{
		Category:     "peinture",
		MinMargin:    types.MustMoney("18"),
		TargetMargin: types.MustMoney("22"),
		MaxMargin:    types.MustMoney("35"),
	}
	require.NoError(t, svc.SaveProductMargin(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	items, err := svc.ListProductMargins(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].MinMargin.Equal(types.MustMoney("18")))

	bad := &settings.ProductMargin{
		Category:     "Outillage",
		MinMargin:    types.MustMoney("30"),
		TargetMargin: types.MustMoney("20"),
		MaxMargin:    types.MustMoney("40"),
	}
	assert.True(t, apperror.IsInvalidInput(svc.SaveProductMargin(ctx, bad)))

	found, err := svc.MarginFor(ctx, "PEINTURE")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)

	missing, err := svc.MarginFor(ctx, "Outillage")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMarginPercent(t *testing.T) {
	assert.True(t, settings.MarginPercent(types.MustMoney("80"), types.MustMoney("100")).Equal(types.MustMoney("25")))
	assert.True(t, settings.MarginPercent(types.MustMoney("100"), types.MustMoney("90")).Equal(types.MustMoney("-10")))
	assert.True(t, settings.MarginPercent(types.Zero(), types.MustMoney("10")).IsZero())

	m := settings.ProductMargin{MinMargin: types.MustMoney("10"), TargetMargin: types.MustMoney("25"), MaxMargin: types.MustMoney("40")}
	assert.True(t, m.Contains(types.MustMoney("10")))
	assert.True(t, m.Contains(types.MustMoney("40")))
	assert.False(t, m.Contains(types.MustMoney("40.001")))
	assert.False(t, m.Contains(types.MustMoney("9.999")))
}
