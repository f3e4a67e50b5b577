package totals

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestcom/internal/core/apperror"
	"gestcom/internal/core/types"
)

var vat19 = types.MustMoney("0.19")

func assertMoney(t *testing.T, want string, got types.Money, field string) {
	t.Helper()
	assert.True(t, types.MustMoney(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func line(qty, price, discount string, dt DiscountType) LineInput {
	q, err := types.ParseQuantity(qty)
	if err != nil {
		panic(err)
	}
	return LineInput{
		Quantity:     q,
		UnitPrice:    types.MustMoney(price),
		Discount:     types.MustMoney(discount),
		DiscountType: dt,
	}
}

func TestComputeLine_Scenarios(t *testing.T) {
	tests := []struct {
		name                                string
		in                                  LineInput
		gross, discount, net, vat, total string
	}{
		{
			name:  "no discount",
			in:    line("5", "45.500", "0", DiscountPercentage),
			gross: "227.5", discount: "0", net: "227.5", vat: "43.225", total: "270.725",
		},
		{
			name:  "ten percent",
			in:    line("50", "35.000", "10", DiscountPercentage),
			gross: "1750", discount: "175", net: "1575", vat: "299.25", total: "1874.25",
		},
		{
			name:  "amount discount clamped to gross",
			in:    line("2", "45.500", "200", DiscountAmount),
			gross: "91", discount: "91", net: "0", vat: "0", total: "0",
		},
		{
			name:  "amount discount below gross",
			in:    line("2", "45.500", "11", DiscountAmount),
			gross: "91", discount: "11", net: "80", vat: "15.2", total: "95.2",
		},
		{
			name:  "full percentage discount",
			in:    line("3", "12.345", "100", DiscountPercentage),
			gross: "37.035", discount: "37.035", net: "0", vat: "0", total: "0",
		},
		{
			name:  "fractional quantity",
			in:    line("2.5", "10.001", "0", ""),
			gross: "25.0025", discount: "0", net: "25.0025", vat: "4.750475", total: "29.752975",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeLine(tt.in, vat19)
			require.NoError(t, err)
			assertMoney(t, tt.gross, got.GrossAmount, "gross")
			assertMoney(t, tt.discount, got.DiscountAmount, "discount")
			assertMoney(t, tt.net, got.NetAmount, "net")
			assertMoney(t, tt.vat, got.VATAmount, "vat")
			assertMoney(t, tt.total, got.Total, "total")
		})
	}
}

func TestComputeLine_DisplayHasThreeDecimals(t *testing.T) {
	got, err := ComputeLine(line("50", "35.000", "10", DiscountPercentage), vat19)
	require.NoError(t, err)
	assert.Equal(t, "1874.250", types.Fixed(got.Total))
	assert.Equal(t, "299.250", types.Fixed(got.VATAmount))
}

func TestComputeLine_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		in    LineInput
		rate  string
		field string
	}{
		{"zero quantity", line("0", "1", "0", DiscountPercentage), "0.19", "quantity"},
		{"negative quantity", line("-1", "1", "0", DiscountPercentage), "0.19", "quantity"},
		{"negative price", line("1", "-0.001", "0", DiscountPercentage), "0.19", "unitPrice"},
		{"negative discount", line("1", "1", "-5", DiscountAmount), "0.19", "discount"},
		{"percentage over 100", line("1", "1", "100.5", DiscountPercentage), "0.19", "discount"},
		{"unknown discount type", line("1", "1", "0", DiscountType("coupon")), "0.19", "discountType"},
		{"rate above one", line("1", "1", "0", DiscountPercentage), "19", "vatRate"},
		{"negative rate", line("1", "1", "0", DiscountPercentage), "-0.19", "vatRate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeLine(tt.in, types.MustMoney(tt.rate))
			require.Error(t, err)
			assert.True(t, apperror.IsInvalidInput(err))
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}

func TestComputeLine_Idempotent(t *testing.T) {
	in := line("7.25", "19.990", "12.5", DiscountPercentage)
	a, err := ComputeLine(in, vat19)
	require.NoError(t, err)
	b, err := ComputeLine(in, vat19)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestComputeLine_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		q := types.Quantity(r.Int63n(10_000_000) + 1)
		price := decimal.New(r.Int63n(1_000_000), -3)
		pct := decimal.New(int64(r.Intn(10_001)), -2)
		amt := decimal.New(r.Int63n(5_000_000), -3)

		for _, in := range []LineInput{
			{Quantity: q, UnitPrice: price, Discount: pct, DiscountType: DiscountPercentage},
			{Quantity: q, UnitPrice: price, Discount: amt, DiscountType: DiscountAmount},
		} {
			got, err := ComputeLine(in, vat19)
			require.NoError(t, err)

			gross := q.Decimal().Mul(price)
			assert.True(t, got.GrossAmount.Equal(gross))
			assert.False(t, got.NetAmount.IsNegative())
			assert.True(t, got.VATAmount.Equal(got.NetAmount.Mul(vat19)))
			assert.True(t, got.Total.Equal(got.NetAmount.Add(got.VATAmount)))

			if in.DiscountType == DiscountPercentage {
				want := gross.Mul(types.MustMoney("1").Sub(pct.Div(types.Hundred)))
				assert.True(t, got.NetAmount.Sub(want).Abs().LessThan(types.MustMoney("0.000000001")))
			} else {
				assert.True(t, got.DiscountAmount.Equal(types.MinMoney(amt, gross)))
			}
		}
	}
}

func TestComputeDocument_Invoice(t *testing.T) {
	policy := Policy{Strategy: StrategyPerLine, ApplyFiscalStamp: true}
	inputs := []LineInput{
		line("5", "45.500", "0", DiscountPercentage),
		line("50", "35.000", "10", DiscountPercentage),
		line("2", "45.500", "200", DiscountAmount),
	}

	lines, totals, err := ComputeDocument(inputs, policy, vat19, types.MustMoney("1.000"))
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assertMoney(t, "1802.5", totals.Subtotal, "subtotal")
	assertMoney(t, "342.475", totals.VAT, "vat")
	assertMoney(t, "1", totals.FiscalStamp, "fiscalStamp")
	assertMoney(t, "2145.975", totals.Total, "total")
}

func TestComputeDocument_StrategiesAgree(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	inputs := make([]LineInput, 40)
	for i := range inputs {
		inputs[i] = LineInput{
			Quantity:     types.Quantity(r.Int63n(500_000) + 1),
			UnitPrice:    decimal.New(r.Int63n(900_000), -3),
			Discount:     decimal.NewFromInt(int64(r.Intn(50))),
			DiscountType: DiscountPercentage,
		}
	}

	_, perLine, err := ComputeDocument(inputs, Policy{Strategy: StrategyPerLine}, vat19, types.Zero())
	require.NoError(t, err)
	_, onSubtotal, err := ComputeDocument(inputs, Policy{Strategy: StrategyOnSubtotal}, vat19, types.Zero())
	require.NoError(t, err)

	assert.True(t, perLine.VAT.Equal(onSubtotal.VAT))
	assert.True(t, onSubtotal.Total.Equal(onSubtotal.Subtotal.Mul(types.MustMoney("1.19"))))
}

func TestComputeDocument_StampOnlyWhenPolicyApplies(t *testing.T) {
	inputs := []LineInput{line("5", "45.500", "0", DiscountPercentage)}

	_, withStamp, err := ComputeDocument(inputs, Policy{Strategy: StrategyPerLine, ApplyFiscalStamp: true}, vat19, types.MustMoney("1"))
	require.NoError(t, err)
	_, without, err := ComputeDocument(inputs, Policy{Strategy: StrategyPerLine}, vat19, types.MustMoney("1"))
	require.NoError(t, err)

	assertMoney(t, "271.725", withStamp.Total, "with stamp")
	assertMoney(t, "270.725", without.Total, "without stamp")
	assert.True(t, without.FiscalStamp.IsZero())
}

func TestComputeDocument_VATExempt(t *testing.T) {
	policy := Policy{Strategy: StrategyOnSubtotal}.Exempt()
	lines, totals, err := ComputeDocument([]LineInput{line("10", "3.5", "0", "")}, policy, vat19, types.MustMoney("1"))
	require.NoError(t, err)

	assert.True(t, totals.VAT.IsZero())
	assert.True(t, lines[0].VATAmount.IsZero())
	assertMoney(t, "35", totals.Total, "total")
}

func TestComputeDocument_Errors(t *testing.T) {
	_, _, err := ComputeDocument(nil, Policy{Strategy: "weighted"}, vat19, types.Zero())
	assert.True(t, apperror.IsInvalidInput(err))

	_, _, err = ComputeDocument(nil, Policy{Strategy: StrategyPerLine}, vat19, types.MustMoney("-1"))
	assert.True(t, apperror.IsInvalidInput(err))

	_, _, err = ComputeDocument([]LineInput{
		line("1", "1", "0", ""),
		line("0", "1", "0", ""),
	}, Policy{Strategy: StrategyPerLine}, vat19, types.Zero())
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 2, appErr.Details["lineNo"])
}

func TestComputeDocument_Empty(t *testing.T) {
	lines, totals, err := ComputeDocument(nil, Policy{Strategy: StrategyPerLine, ApplyFiscalStamp: true}, vat19, types.MustMoney("1"))
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.True(t, totals.Subtotal.IsZero())
	assertMoney(t, "1", totals.Total, "total")
}
