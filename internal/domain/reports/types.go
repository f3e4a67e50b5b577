// Package reports aggregates stored documents into sales reports.
package reports

import (
	"time"

	"gestcom/internal/core/types"
	"gestcom/internal/domain/documents"
)

// SalesReportFilter bounds a sales report. Both dates are inclusive.
type SalesReportFilter struct {
	From time.Time
	To   time.Time

	// ClientID restricts the report to one client
	ClientID string
}

// Period is the reporting window.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SalesSummary holds the headline figures.
type SalesSummary struct {
	// TotalSales is the sum of invoice totals
	TotalSales types.Money `json:"totalSales"`
	// TotalVAT is the VAT collected on invoices
	TotalVAT types.Money `json:"totalVat"`
	// TotalCredits is the sum of credit-note totals
	TotalCredits types.Money `json:"totalCredits"`
	// NetSales = TotalSales - TotalCredits
	NetSales types.Money `json:"netSales"`
}

// ClientSales aggregates invoices per client.
type ClientSales struct {
	ClientID     string      `json:"clientId"`
	Transactions int         `json:"transactions"`
	Amount       types.Money `json:"amount"`
}

// ProductSales aggregates invoice lines per product.
type ProductSales struct {
	ProductID string         `json:"productId"`
	Quantity  types.Quantity `json:"quantity"`
	// Revenue is the net (pre-VAT) amount
	Revenue types.Money `json:"revenue"`
}

// SalesReport is the full sales report.
type SalesReport struct {
	Period    Period         `json:"period"`
	Summary   SalesSummary   `json:"summary"`
	ByClient  []ClientSales  `json:"byClient"`
	ByProduct []ProductSales `json:"byProduct"`
}

// DocumentTypeSummary counts documents of one kind over a period.
type DocumentTypeSummary struct {
	Kind      documents.Kind `json:"kind"`
	Count     int            `json:"count"`
	Cancelled int            `json:"cancelled"`
	Total     types.Money    `json:"total"`
}
