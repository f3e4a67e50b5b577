package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gestcom/internal/core/apperror"
	"gestcom/internal/core/types"
	"gestcom/internal/domain"
	"gestcom/internal/domain/documents"
)

// Service provides report generation operations.
type Service struct {
	source Source
}

// NewService creates a new reports service.
func NewService(source Source) *Service {
	return &Service{source: source}
}

func validatePeriod(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return apperror.NewValidation("from and to are required").WithDetail("field", "from")
	}
	if from.After(to) {
		return apperror.NewValidation("from must not be after to").WithDetail("field", "from")
	}
	return nil
}

// collect pages through every non-cancelled document of kind in the window.
func (s *Service) collect(ctx context.Context, kind documents.Kind, from, to time.Time, partyID string) ([]*documents.Document, error) {
	filter := documents.ListFilter{
		ListFilter: domain.ListFilter{Limit: domain.MaxListLimit, OrderBy: "date"},
		PartyID:    partyID,
		From:       &from,
		To:         &to,
	}

	var out []*documents.Document
	for {
		page, err := s.source.List(ctx, kind, filter)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", kind, err)
		}
		for _, d := range page.Items {
			if !d.IsCancelled() {
				out = append(out, d)
			}
		}
		filter.Offset += len(page.Items)
		if len(page.Items) == 0 || int64(filter.Offset) >= page.TotalCount {
			return out, nil
		}
	}
}

// Sales builds the sales report: invoices less credit notes, with
// breakdowns per client and per product.
func (s *Service) Sales(ctx context.Context, filter SalesReportFilter) (*SalesReport, error) {
	if err := validatePeriod(filter.From, filter.To); err != nil {
		return nil, err
	}

	invoices, err := s.collect(ctx, documents.KindInvoice, filter.From, filter.To, filter.ClientID)
	if err != nil {
		return nil, err
	}
	credits, err := s.collect(ctx, documents.KindCredit, filter.From, filter.To, filter.ClientID)
	if err != nil {
		return nil, err
	}

	report := &SalesReport{
		Period: Period{Start: filter.From, End: filter.To},
		Summary: SalesSummary{
			TotalSales:   types.Zero(),
			TotalVAT:     types.Zero(),
			TotalCredits: types.Zero(),
		},
	}

	clients := make(map[string]*ClientSales)
	products := make(map[string]*ProductSales)
	for _, inv := range invoices {
		report.Summary.TotalSales = report.Summary.TotalSales.Add(inv.Totals.Total)
		report.Summary.TotalVAT = report.Summary.TotalVAT.Add(inv.Totals.VAT)

		c, ok := clients[inv.PartyID]
		if !ok {
			c = &ClientSales{ClientID: inv.PartyID, Amount: types.Zero()}
			clients[inv.PartyID] = c
		}
		c.Transactions++
		c.Amount = c.Amount.Add(inv.Totals.Total)

		for _, l := range inv.Lines {
			p, ok := products[l.ProductID]
			if !ok {
				p = &ProductSales{ProductID: l.ProductID, Revenue: types.Zero()}
				products[l.ProductID] = p
			}
			p.Quantity += l.Quantity
			p.Revenue = p.Revenue.Add(l.NetAmount)
		}
	}
	for _, cr := range credits {
		report.Summary.TotalCredits = report.Summary.TotalCredits.Add(cr.Totals.Total)
	}
	report.Summary.NetSales = report.Summary.TotalSales.Sub(report.Summary.TotalCredits)

	report.ByClient = make([]ClientSales, 0, len(clients))
	for _, c := range clients {
		report.ByClient = append(report.ByClient, *c)
	}
	sort.Slice(report.ByClient, func(i, j int) bool {
		if c := report.ByClient[i].Amount.Cmp(report.ByClient[j].Amount); c != 0 {
			return c > 0
		}
		return report.ByClient[i].ClientID < report.ByClient[j].ClientID
	})

	report.ByProduct = make([]ProductSales, 0, len(products))
	for _, p := range products {
		report.ByProduct = append(report.ByProduct, *p)
	}
	sort.Slice(report.ByProduct, func(i, j int) bool {
		if c := report.ByProduct[i].Revenue.Cmp(report.ByProduct[j].Revenue); c != 0 {
			return c > 0
		}
		return report.ByProduct[i].ProductID < report.ByProduct[j].ProductID
	})

	return report, nil
}

// DocumentTypeSummary counts documents and sums totals per kind.
// Cancelled documents are counted separately and excluded from the total.
func (s *Service) DocumentTypeSummary(ctx context.Context, from, to time.Time) ([]DocumentTypeSummary, error) {
	if err := validatePeriod(from, to); err != nil {
		return nil, err
	}

	out := make([]DocumentTypeSummary, 0, len(documents.Kinds()))
	for _, kind := range documents.Kinds() {
		summary := DocumentTypeSummary{Kind: kind, Total: types.Zero()}
		filter := documents.ListFilter{
			ListFilter: domain.ListFilter{Limit: domain.MaxListLimit, OrderBy: "date"},
			From:       &from,
			To:         &to,
		}
		for {
			page, err := s.source.List(ctx, kind, filter)
			if err != nil {
				return nil, fmt.Errorf("list %s: %w", kind, err)
			}
			for _, d := range page.Items {
				if d.IsCancelled() {
					summary.Cancelled++
					continue
				}
				summary.Count++
				summary.Total = summary.Total.Add(d.Totals.Total)
			}
			filter.Offset += len(page.Items)
			if len(page.Items) == 0 || int64(filter.Offset) >= page.TotalCount {
				break
			}
		}
		out = append(out, summary)
	}
	return out, nil
}
