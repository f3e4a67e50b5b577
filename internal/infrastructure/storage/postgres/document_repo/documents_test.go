package document_repo

import (
	"testing"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestcom/internal/core/types"
	"gestcom/internal/domain"
	"gestcom/internal/domain/documents"
)

func TestRowRoundTrip(t *testing.T) {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	doc, err := documents.New(documents.KindReceipt, "SUP-1", date)
	require.NoError(t, err)
	doc.ID = "BR2024-0001"
	doc.Receipt.Origin = documents.OriginInternational
	doc.Receipt.Currency = "EUR"
	doc.Receipt.ExchangeRate = types.MustMoney("3.35")
	doc.Receipt.CustomsCharges = types.MustMoney("120.5")
	doc.AddLine("P-1", types.NewQuantity(10), types.MustMoney("45.5"), types.Zero(), "")
	doc.Totals.Total = types.MustMoney("1524.25")
	doc.Version = 3

	row, err := toRow("receipts", doc)
	require.NoError(t, err)
	assert.Equal(t, "receipts", row.Collection)
	assert.Equal(t, "receipt", row.Kind)
	assert.JSONEq(t, `{"receipt":{"origin":"international","currency":"EUR","exchangeRate":"3.35",
		"purchaseOrderId":"","paymentMethod":"","customsCharges":"120.5","shippingCharges":"0",
		"otherCharges":"0","totalLandedCost":"0"}}`, string(row.Variant))

	back, err := row.toDocument()
	require.NoError(t, err)
	assert.Equal(t, doc.ID, back.ID)
	assert.Equal(t, documents.KindReceipt, back.Kind)
	assert.Equal(t, 3, back.Version)
	require.NotNil(t, back.Receipt)
	assert.Nil(t, back.Invoice)
	assert.True(t, back.Receipt.CustomsCharges.Equal(types.MustMoney("120.5")))
	require.Len(t, back.Lines, 1)
	assert.Equal(t, types.NewQuantity(10), back.Lines[0].Quantity)
	assert.True(t, back.Totals.Total.Equal(types.MustMoney("1524.25")))
}

func TestOrderBy(t *testing.T) {
	assert.Equal(t, []string{"date DESC", "id DESC"}, orderBy("-date"))
	assert.Equal(t, []string{"total ASC", "id ASC"}, orderBy("total"))
	assert.Equal(t, []string{"id ASC"}, orderBy("reference"))
	assert.Equal(t, []string{"date ASC", "id ASC"}, orderBy("drop table"))
}

func TestApplyFilter(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := documents.ListFilter{
		ListFilter: domain.ListFilter{Search: "acme"},
		PartyID:    "C-1",
		Status:     documents.StatusDraft,
		From:       &from,
	}

	q := applyFilter(squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("id").From(tableName), f)
	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "party_id = $1")
	assert.Contains(t, sql, "status = $2")
	assert.Contains(t, sql, "date >= $3")
	assert.Contains(t, sql, "id ILIKE $4")
	assert.Len(t, args, 6)
	assert.Equal(t, "%acme%", args[3])
}

func TestColumnsFromRowTags(t *testing.T) {
	assert.Contains(t, columns, "collection")
	assert.Contains(t, columns, "lines")
	assert.Contains(t, columns, "fiscal_stamp")
	assert.Len(t, columns, 17)
}

func TestWriteSQL(t *testing.T) {
	doc, err := documents.New(documents.KindInvoice, "CLI-001", time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	doc.ID = "FAC2024-0001"
	row, err := toRow("invoices", doc)
	require.NoError(t, err)

	repo := &DocumentRepo{}

	sql, args, err := repo.writeSQL(row, false)
	require.NoError(t, err)
	assert.Contains(t, sql, "INSERT INTO documents")
	assert.NotContains(t, sql, "ON CONFLICT")
	assert.Len(t, args, len(columns))

	sql, _, err = repo.writeSQL(row, true)
	require.NoError(t, err)
	assert.Contains(t, sql, "ON CONFLICT (collection, id) DO UPDATE SET")
	assert.Contains(t, sql, "total = EXCLUDED.total")
	assert.NotContains(t, sql, "created_at = EXCLUDED.created_at")
	assert.NotContains(t, sql, "id = EXCLUDED.id,")
}
