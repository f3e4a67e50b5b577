package dto

import (
	"time"

	"gestcom/internal/core/types"
	"gestcom/internal/domain/documents"
	"gestcom/internal/domain/totals"
)

// --- Requests ---

// LineRequest is one line item as submitted.
type LineRequest struct {
	ProductID    string         `json:"productId"`
	Quantity     types.Quantity `json:"quantity"`
	UnitPrice    types.Money    `json:"unitPrice"`
	Discount     types.Money    `json:"discount"`
	DiscountType string         `json:"discountType"`
	Reason       string         `json:"reason,omitempty"`
}

// DocumentRequest is the body of create, update and preview. Only the
// variant matching the path kind is read.
type DocumentRequest struct {
	// ID is optional on create; a reference is generated when empty
	ID      string        `json:"id"`
	Date    Date          `json:"date"`
	PartyID string        `json:"partyId"`
	Status  string        `json:"status"`
	Notes   string        `json:"notes"`
	Version int           `json:"version"`
	Lines   []LineRequest `json:"lines"`

	Invoice  *documents.Invoice  `json:"invoice,omitempty"`
	Quote    *documents.Quote    `json:"quote,omitempty"`
	Delivery *documents.Delivery `json:"delivery,omitempty"`
	Credit   *documents.Credit   `json:"credit,omitempty"`
	Purchase *documents.Purchase `json:"purchase,omitempty"`
	Receipt  *documents.Receipt  `json:"receipt,omitempty"`
	Return   *documents.Return   `json:"return,omitempty"`
}

// ToDocument builds a domain document of kind from the request.
func (r *DocumentRequest) ToDocument(kind documents.Kind, now time.Time) (*documents.Document, error) {
	date := r.Date.Time
	if date.IsZero() {
		date = now
	}

	doc, err := documents.New(kind, r.PartyID, date)
	if err != nil {
		return nil, err
	}
	doc.ID = r.ID
	doc.Notes = r.Notes
	doc.Version = r.Version
	if r.Status != "" {
		doc.Status = documents.Status(r.Status)
	}

	switch kind {
	case documents.KindInvoice:
		if r.Invoice != nil {
			doc.Invoice = r.Invoice
		}
	case documents.KindQuote:
		if r.Quote != nil {
			doc.Quote = r.Quote
		}
	case documents.KindDelivery:
		if r.Delivery != nil {
			doc.Delivery = r.Delivery
		}
	case documents.KindCredit:
		if r.Credit != nil {
			doc.Credit = r.Credit
		}
	case documents.KindPurchase:
		if r.Purchase != nil {
			doc.Purchase = r.Purchase
		}
	case documents.KindReceipt:
		if r.Receipt != nil {
			doc.Receipt = r.Receipt
		}
	case documents.KindReturn:
		if r.Return != nil {
			doc.Return = r.Return
		}
	}

	for _, l := range r.Lines {
		line := doc.AddLine(l.ProductID, l.Quantity, l.UnitPrice, l.Discount, totals.DiscountType(l.DiscountType))
		line.Reason = l.Reason
	}
	return doc, nil
}

// --- Responses ---

// LineResponse is a computed line.
type LineResponse struct {
	LineID         string         `json:"lineId"`
	LineNo         int            `json:"lineNo"`
	ProductID      string         `json:"productId"`
	Quantity       types.Quantity `json:"quantity"`
	UnitPrice      string         `json:"unitPrice"`
	Discount       string         `json:"discount"`
	DiscountType   string         `json:"discountType"`
	Reason         string         `json:"reason,omitempty"`
	GrossAmount    string         `json:"grossAmount"`
	DiscountAmount string         `json:"discountAmount"`
	NetAmount      string         `json:"netAmount"`
	VATAmount      string         `json:"vatAmount"`
	Total          string         `json:"total"`
}

// TotalsResponse carries document totals with fr-TN display strings.
type TotalsResponse struct {
	Subtotal    string            `json:"subtotal"`
	VAT         string            `json:"vat"`
	FiscalStamp string            `json:"fiscalStamp"`
	Total       string            `json:"total"`
	Display     map[string]string `json:"display"`
}

// FromTotals renders document totals.
func FromTotals(t totals.DocumentTotals) TotalsResponse {
	return TotalsResponse{
		Subtotal:    Amount(t.Subtotal),
		VAT:         Amount(t.VAT),
		FiscalStamp: Amount(t.FiscalStamp),
		Total:       Amount(t.Total),
		Display: map[string]string{
			"subtotal":    Display(t.Subtotal),
			"vat":         Display(t.VAT),
			"fiscalStamp": Display(t.FiscalStamp),
			"total":       Display(t.Total),
		},
	}
}

// DocumentResponse is the API shape of a document.
type DocumentResponse struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Date      time.Time      `json:"date"`
	PartyID   string         `json:"partyId"`
	Status    string         `json:"status"`
	Notes     string         `json:"notes,omitempty"`
	Lines     []LineResponse `json:"lines"`
	Totals    TotalsResponse `json:"totals"`
	VATRate   string         `json:"vatRate"`
	Version   int            `json:"version"`
	CreatedAt *time.Time     `json:"createdAt,omitempty"`
	UpdatedAt *time.Time     `json:"updatedAt,omitempty"`

	// LandedCost is set on receipts
	LandedCost string `json:"landedCost,omitempty"`

	Invoice  *documents.Invoice  `json:"invoice,omitempty"`
	Quote    *documents.Quote    `json:"quote,omitempty"`
	Delivery *documents.Delivery `json:"delivery,omitempty"`
	Credit   *documents.Credit   `json:"credit,omitempty"`
	Purchase *documents.Purchase `json:"purchase,omitempty"`
	Receipt  *documents.Receipt  `json:"receipt,omitempty"`
	Return   *documents.Return   `json:"return,omitempty"`
}

// FromDocument renders a document.
func FromDocument(d *documents.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:       d.ID,
		Kind:     string(d.Kind),
		Date:     d.Date,
		PartyID:  d.PartyID,
		Status:   string(d.Status),
		Notes:    d.Notes,
		Lines:    make([]LineResponse, len(d.Lines)),
		Totals:   FromTotals(d.Totals),
		VATRate:  d.VATRate.String(),
		Version:  d.Version,
		Invoice:  d.Invoice,
		Quote:    d.Quote,
		Delivery: d.Delivery,
		Credit:   d.Credit,
		Purchase: d.Purchase,
		Receipt:  d.Receipt,
		Return:   d.Return,
	}
	if !d.CreatedAt.IsZero() {
		resp.CreatedAt = &d.CreatedAt
		resp.UpdatedAt = &d.UpdatedAt
	}
	if d.Receipt != nil {
		resp.LandedCost = Amount(d.Receipt.TotalLandedCost)
	}

	for i, l := range d.Lines {
		resp.Lines[i] = LineResponse{
			LineID:         l.LineID.String(),
			LineNo:         l.LineNo,
			ProductID:      l.ProductID,
			Quantity:       l.Quantity,
			UnitPrice:      Amount(l.UnitPrice),
			Discount:       Amount(l.Discount),
			DiscountType:   string(l.DiscountType),
			Reason:         l.Reason,
			GrossAmount:    Amount(l.GrossAmount),
			DiscountAmount: Amount(l.DiscountAmount),
			NetAmount:      Amount(l.NetAmount),
			VATAmount:      Amount(l.VATAmount),
			Total:          Amount(l.Total),
		}
	}
	return resp
}

// DocumentListQuery holds document list filters.
type DocumentListQuery struct {
	ListQuery
	PartyID string `form:"partyId"`
	Status  string `form:"status"`
	From    string `form:"from"`
	To      string `form:"to"`
}

// NextSequenceResponse shows the reference the next document would receive.
type NextSequenceResponse struct {
	Kind      string `json:"kind"`
	Sequence  int64  `json:"sequence"`
	Reference string `json:"reference"`
}

// HistoryQuery bounds a history listing.
type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// HistoryEntryResponse is one snapshot of a document.
type HistoryEntryResponse struct {
	Action   string            `json:"action"`
	At       time.Time         `json:"at"`
	Version  int               `json:"version"`
	Status   string            `json:"status"`
	Total    string            `json:"total"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Document *DocumentResponse `json:"document,omitempty"`
}

// FromHistory maps history entries, newest first.
func FromHistory(entries []documents.HistoryEntry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = HistoryEntryResponse{
			Action:   string(e.Action),
			At:       e.At,
			Metadata: e.Metadata,
		}
		if e.Snapshot != nil {
			doc := FromDocument(e.Snapshot)
			out[i].Version = e.Snapshot.Version
			out[i].Status = string(e.Snapshot.Status)
			out[i].Total = doc.Totals.Total
			out[i].Document = &doc
		}
	}
	return out
}
