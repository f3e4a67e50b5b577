package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestcom/internal/core/apperror"
	"gestcom/internal/core/types"
	"gestcom/internal/domain/documents"
)

func invoice(t *testing.T, ref, client string, date time.Time) *documents.Document {
	t.Helper()
	d, err := documents.New(documents.KindInvoice, client, date)
	require.NoError(t, err)
	d.ID = ref
	d.AddLine("P-1", types.NewQuantity(1), types.MustMoney("10"), types.Zero(), "")
	return d
}

func TestDocumentStore_UpsertGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewDocumentStore()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.Upsert(ctx, documents.KindInvoice, invoice(t, "FAC2024-0001", "C1", day))
	require.NoError(t, err)

	got, err := s.GetByID(ctx, documents.KindInvoice, "FAC2024-0001")
	require.NoError(t, err)
	assert.Equal(t, "C1", got.PartyID)

	// Same reference in another collection is a different document.
	_, err = s.GetByID(ctx, documents.KindQuote, "FAC2024-0001")
	assert.True(t, apperror.IsNotFound(err))

	replacement := invoice(t, "FAC2024-0001", "C2", day)
	_, err = s.Upsert(ctx, documents.KindInvoice, replacement)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count(documents.KindInvoice))

	removed, err := s.DeleteByID(ctx, documents.KindInvoice, "FAC2024-0001")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.DeleteByID(ctx, documents.KindInvoice, "FAC2024-0001")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestDocumentStore_InsertRejectsExistingReference(t *testing.T) {
	ctx := context.Background()
	s := NewDocumentStore()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.Insert(ctx, documents.KindInvoice, invoice(t, "FAC2024-0001", "C1", day))
	require.NoError(t, err)

	_, err = s.Insert(ctx, documents.KindInvoice, invoice(t, "FAC2024-0001", "C2", day))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))

	got, err := s.GetByID(ctx, documents.KindInvoice, "FAC2024-0001")
	require.NoError(t, err)
	assert.Equal(t, "C1", got.PartyID, "existing document is kept")

	// The reference is free in another collection.
	_, err = s.Insert(ctx, documents.KindQuote, invoice(t, "FAC2024-0001", "C3", day))
	assert.NoError(t, err)
}

func TestDocumentStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewDocumentStore()
	d := invoice(t, "FAC2024-0001", "C1", time.Now())

	_, err := s.Upsert(ctx, documents.KindInvoice, d)
	require.NoError(t, err)
	d.PartyID = "mutated"
	d.Lines[0].ProductID = "mutated"

	got, err := s.GetByID(ctx, documents.KindInvoice, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "C1", got.PartyID)
	assert.Equal(t, "P-1", got.Lines[0].ProductID)

	got.Invoice.PaymentMethod = documents.PaymentCredit
	again, err := s.GetByID(ctx, documents.KindInvoice, d.ID)
	require.NoError(t, err)
	assert.Equal(t, documents.PaymentCash, again.Invoice.PaymentMethod)
}

func TestDocumentStore_ListFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	s := NewDocumentStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, client := range []string{"C1", "C2", "C1", "C3"} {
		ref, err := documents.FormatReference(documents.KindInvoice, int64(i+1), 2024)
		require.NoError(t, err)
		_, err = s.Upsert(ctx, documents.KindInvoice, invoice(t, ref, client, base.AddDate(0, 0, i)))
		require.NoError(t, err)
	}

	f := documents.DefaultListFilter()
	res, err := s.List(ctx, documents.KindInvoice, f)
	require.NoError(t, err)
	require.Len(t, res.Items, 4)
	assert.Equal(t, "FAC2024-0004", res.Items[0].ID, "newest first")

	f.PartyID = "C1"
	f.OrderBy = "id"
	res, err = s.List(ctx, documents.KindInvoice, f)
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "FAC2024-0001", res.Items[0].ID)
	assert.Equal(t, "FAC2024-0003", res.Items[1].ID)

	from := base.AddDate(0, 0, 1)
	to := base.AddDate(0, 0, 2)
	f = documents.DefaultListFilter()
	f.From, f.To = &from, &to
	res, err = s.List(ctx, documents.KindInvoice, f)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.TotalCount)

	f = documents.DefaultListFilter()
	f.Limit, f.Offset = 1, 1
	res, err = s.List(ctx, documents.KindInvoice, f)
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.TotalCount)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "FAC2024-0003", res.Items[0].ID)
}

func TestDocumentStore_UnknownKind(t *testing.T) {
	_, err := NewDocumentStore().GetByID(context.Background(), documents.Kind("memo"), "X")
	assert.True(t, apperror.HasCode(err, apperror.CodeUnknownDocumentType))
}
