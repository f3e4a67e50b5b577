package document_repo

import (
	"encoding/json"
	"fmt"
	"time"

	"gestcom/internal/core/types"
	"gestcom/internal/domain/documents"
	"gestcom/internal/domain/totals"
)

// documentRow is the flat table shape of a document. Lines and the kind
// specific variant are stored as JSONB; totals get their own columns so
// reports and ordering can use them.
type documentRow struct {
	Collection  string          `db:"collection"`
	ID          string          `db:"id"`
	Kind        string          `db:"kind"`
	Date        time.Time       `db:"date"`
	PartyID     string          `db:"party_id"`
	Status      string          `db:"status"`
	Notes       string          `db:"notes"`
	Lines       json.RawMessage `db:"lines"`
	Variant     json.RawMessage `db:"variant"`
	Subtotal    types.Money     `db:"subtotal"`
	VAT         types.Money     `db:"vat"`
	FiscalStamp types.Money     `db:"fiscal_stamp"`
	Total       types.Money     `db:"total"`
	VATRate     types.Rate      `db:"vat_rate"`
	Version     int             `db:"version"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// variants mirrors the variant pointers of documents.Document.
type variants struct {
	Invoice  *documents.Invoice  `json:"invoice,omitempty"`
	Quote    *documents.Quote    `json:"quote,omitempty"`
	Delivery *documents.Delivery `json:"delivery,omitempty"`
	Credit   *documents.Credit   `json:"credit,omitempty"`
	Purchase *documents.Purchase `json:"purchase,omitempty"`
	Receipt  *documents.Receipt  `json:"receipt,omitempty"`
	Return   *documents.Return   `json:"return,omitempty"`
}

func toRow(collection string, d *documents.Document) (*documentRow, error) {
	lines := d.Lines
	if lines == nil {
		lines = []documents.Line{}
	}
	linesJSON, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("marshal lines: %w", err)
	}
	variantJSON, err := json.Marshal(variants{
		Invoice:  d.Invoice,
		Quote:    d.Quote,
		Delivery: d.Delivery,
		Credit:   d.Credit,
		Purchase: d.Purchase,
		Receipt:  d.Receipt,
		Return:   d.Return,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal variant: %w", err)
	}

	return &documentRow{
		Collection:  collection,
		ID:          d.ID,
		Kind:        string(d.Kind),
		Date:        d.Date,
		PartyID:     d.PartyID,
		Status:      string(d.Status),
		Notes:       d.Notes,
		Lines:       linesJSON,
		Variant:     variantJSON,
		Subtotal:    d.Totals.Subtotal,
		VAT:         d.Totals.VAT,
		FiscalStamp: d.Totals.FiscalStamp,
		Total:       d.Totals.Total,
		VATRate:     d.VATRate,
		Version:     d.Version,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

func (r *documentRow) toDocument() (*documents.Document, error) {
	d := &documents.Document{
		ID:      r.ID,
		Kind:    documents.Kind(r.Kind),
		Date:    r.Date,
		PartyID: r.PartyID,
		Status:  documents.Status(r.Status),
		Notes:   r.Notes,
		Totals: totals.DocumentTotals{
			Subtotal:    r.Subtotal,
			VAT:         r.VAT,
			FiscalStamp: r.FiscalStamp,
			Total:       r.Total,
		},
		VATRate:   r.VATRate,
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}

	if len(r.Lines) > 0 {
		if err := json.Unmarshal(r.Lines, &d.Lines); err != nil {
			return nil, fmt.Errorf("unmarshal lines of %s: %w", r.ID, err)
		}
	}
	if d.Lines == nil {
		d.Lines = []documents.Line{}
	}

	if len(r.Variant) > 0 {
		var v variants
		if err := json.Unmarshal(r.Variant, &v); err != nil {
			return nil, fmt.Errorf("unmarshal variant of %s: %w", r.ID, err)
		}
		d.Invoice, d.Quote, d.Delivery, d.Credit = v.Invoice, v.Quote, v.Delivery, v.Credit
		d.Purchase, d.Receipt, d.Return = v.Purchase, v.Receipt, v.Return
	}
	return d, nil
}
