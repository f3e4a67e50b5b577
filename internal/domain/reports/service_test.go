package reports_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestcom/internal/core/apperror"
	"gestcom/internal/core/types"
	"gestcom/internal/domain/documents"
	"gestcom/internal/domain/reports"
	"gestcom/internal/infrastructure/numerator"
	"gestcom/internal/infrastructure/storage/memory"
)

var march = time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

type seed struct {
	t     *testing.T
	ctx   context.Context
	svc   *documents.Service
	store *memory.DocumentStore
}

func newSeed(t *testing.T) *seed {
	store := memory.NewDocumentStore()
	return &seed{
		t:     t,
		ctx:   context.Background(),
		store: store,
		svc: documents.NewService(documents.ServiceConfig{
			Repo:      store,
			Numerator: numerator.New(memory.NewSequencer()),
		}),
	}
}

func (s *seed) create(kind documents.Kind, client string, date time.Time, product string, qty int64, price, discount string) *documents.Document {
	s.t.Helper()
	d, err := documents.New(kind, client, date)
	require.NoError(s.t, err)
	l := d.AddLine(product, types.NewQuantity(qty), types.MustMoney(price), types.MustMoney(discount), "")
	if kind == documents.KindCredit {
		d.Credit.OriginalTransactionID = "FAC2024-0001"
		l.Reason = "returned"
	}
	doc, err := s.svc.Create(s.ctx, d)
	require.NoError(s.t, err)
	return doc
}

func TestSales(t *testing.T) {
	s := newSeed(t)
	s.create(documents.KindInvoice, "C1", march, "P-1", 5, "45.500", "0")
	s.create(documents.KindInvoice, "C1", march.AddDate(0, 0, 1), "P-2", 50, "35.000", "10")
	s.create(documents.KindInvoice, "C2", march.AddDate(0, 0, 2), "P-1", 2, "45.500", "0")
	s.create(documents.KindInvoice, "C3", march.AddDate(-1, 0, 0), "P-9", 1, "999", "0")
	s.create(documents.KindCredit, "C1", march.AddDate(0, 0, 3), "P-1", 1, "45.500", "0")

	cancelled := s.create(documents.KindInvoice, "C2", march, "P-3", 10, "10", "0")
	cancelled.Status = documents.StatusCancelled
	_, err := s.svc.Update(s.ctx, cancelled)
	require.NoError(t, err)

	svc := reports.NewService(s.store)
	report, err := svc.Sales(s.ctx, reports.SalesReportFilter{
		From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	sum := report.Summary
	assert.Equal(t, "2256.265", types.Fixed(sum.TotalSales))
	assert.Equal(t, "359.765", types.Fixed(sum.TotalVAT))
	assert.Equal(t, "54.145", types.Fixed(sum.TotalCredits))
	assert.Equal(t, "2202.120", types.Fixed(sum.NetSales))

	require.Len(t, report.ByClient, 2)
	assert.Equal(t, "C1", report.ByClient[0].ClientID)
	assert.Equal(t, 2, report.ByClient[0].Transactions)
	assert.Equal(t, "2146.975", types.Fixed(report.ByClient[0].Amount))
	assert.Equal(t, "C2", report.ByClient[1].ClientID)

	require.Len(t, report.ByProduct, 2)
	assert.Equal(t, "P-2", report.ByProduct[0].ProductID)
	assert.Equal(t, "P-1", report.ByProduct[1].ProductID)
	assert.Equal(t, types.NewQuantity(7), report.ByProduct[1].Quantity)
	assert.Equal(t, "318.500", types.Fixed(report.ByProduct[1].Revenue))
}

func TestSales_ClientFilter(t *testing.T) {
	s := newSeed(t)
	s.create(documents.KindInvoice, "C1", march, "P-1", 5, "45.500", "0")
	s.create(documents.KindInvoice, "C2", march, "P-1", 2, "45.500", "0")

	report, err := reports.NewService(s.store).Sales(s.ctx, reports.SalesReportFilter{
		From: march, To: march, ClientID: "C2",
	})
	require.NoError(t, err)
	assert.Equal(t, "109.290", types.Fixed(report.Summary.TotalSales))
}

func TestSales_RejectsInvertedPeriod(t *testing.T) {
	_, err := reports.NewService(memory.NewDocumentStore()).Sales(context.Background(), reports.SalesReportFilter{
		From: march, To: march.AddDate(0, 0, -1),
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestDocumentTypeSummary(t *testing.T) {
	s := newSeed(t)
	s.create(documents.KindInvoice, "C1", march, "P-1", 5, "45.500", "0")
	s.create(documents.KindInvoice, "C2", march, "P-1", 2, "45.500", "0")
	s.create(documents.KindCredit, "C1", march, "P-1", 1, "45.500", "0")

	out, err := reports.NewService(s.store).DocumentTypeSummary(s.ctx, march, march)
	require.NoError(t, err)
	require.Len(t, out, len(documents.Kinds()))

	byKind := make(map[documents.Kind]reports.DocumentTypeSummary)
	for _, row := range out {
		byKind[row.Kind] = row
	}
	assert.Equal(t, 2, byKind[documents.KindInvoice].Count)
	assert.Equal(t, "381.015", types.Fixed(byKind[documents.KindInvoice].Total))
	assert.Equal(t, 1, byKind[documents.KindCredit].Count)
	assert.Zero(t, byKind[documents.KindQuote].Count)
}
