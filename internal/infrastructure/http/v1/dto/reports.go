package dto

import (
	"gestcom/internal/domain/reports"
)

// ReportPeriodQuery bounds a report. Dates are inclusive.
type ReportPeriodQuery struct {
	From     string `form:"from" binding:"required"`
	To       string `form:"to" binding:"required"`
	ClientID string `form:"clientId"`
}

// SalesSummaryResponse carries the headline figures.
type SalesSummaryResponse struct {
	TotalSales   string `json:"totalSales"`
	TotalVAT     string `json:"totalVat"`
	TotalCredits string `json:"totalCredits"`
	NetSales     string `json:"netSales"`
}

// ClientSalesResponse aggregates one client.
type ClientSalesResponse struct {
	ClientID     string `json:"clientId"`
	Transactions int    `json:"transactions"`
	Amount       string `json:"amount"`
}

// ProductSalesResponse aggregates one product.
type ProductSalesResponse struct {
	ProductID string `json:"productId"`
	Quantity  string `json:"quantity"`
	Revenue   string `json:"revenue"`
}

// SalesReportResponse is the sales report.
type SalesReportResponse struct {
	Period    reports.Period         `json:"period"`
	Summary   SalesSummaryResponse   `json:"summary"`
	ByClient  []ClientSalesResponse  `json:"byClient"`
	ByProduct []ProductSalesResponse `json:"byProduct"`
}

// FromSalesReport converts the domain report.
func FromSalesReport(r *reports.SalesReport) SalesReportResponse {
	resp := SalesReportResponse{
		Period: r.Period,
		Summary: SalesSummaryResponse{
			TotalSales:   Amount(r.Summary.TotalSales),
			TotalVAT:     Amount(r.Summary.TotalVAT),
			TotalCredits: Amount(r.Summary.TotalCredits),
			NetSales:     Amount(r.Summary.NetSales),
		},
		ByClient:  make([]ClientSalesResponse, len(r.ByClient)),
		ByProduct: make([]ProductSalesResponse, len(r.ByProduct)),
	}
	for i, c := range r.ByClient {
		resp.ByClient[i] = ClientSalesResponse{
			ClientID:     c.ClientID,
			Transactions: c.Transactions,
			Amount:       Amount(c.Amount),
		}
	}
	for i, p := range r.ByProduct {
		resp.ByProduct[i] = ProductSalesResponse{
			ProductID: p.ProductID,
			Quantity:  p.Quantity.String(),
			Revenue:   Amount(p.Revenue),
		}
	}
	return resp
}

// DocumentTypeSummaryResponse counts one kind.
type DocumentTypeSummaryResponse struct {
	Kind      string `json:"kind"`
	Count     int    `json:"count"`
	Cancelled int    `json:"cancelled"`
	Total     string `json:"total"`
}

// FromDocumentTypeSummaries converts the domain summaries.
func FromDocumentTypeSummaries(items []reports.DocumentTypeSummary) []DocumentTypeSummaryResponse {
	out := make([]DocumentTypeSummaryResponse, len(items))
	for i, s := range items {
		out[i] = DocumentTypeSummaryResponse{
			Kind:      string(s.Kind),
			Count:     s.Count,
			Cancelled: s.Cancelled,
			Total:     Amount(s.Total),
		}
	}
	return out
}
