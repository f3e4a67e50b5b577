// Package documents provides the commercial documents (invoices, quotes,
// delivery notes, credit notes and the purchase-side order, receipt and
// return) as one tagged union keyed by Kind.
package documents

import (
	"context"
	"strings"
	"time"

	"gestcom/internal/core/apperror"
	"gestcom/internal/core/id"
	"gestcom/internal/core/types"
	"gestcom/internal/domain/totals"
)

// Document is the common envelope. Exactly one variant pointer is set and it
// must match Kind.
type Document struct {
	// ID is the human-readable reference (FAC2024-0001)
	ID   string    `json:"id"`
	Kind Kind      `json:"kind"`
	Date time.Time `json:"date"`

	// PartyID is the client for sales kinds and the supplier for purchase kinds
	PartyID string `json:"partyId"`
	Status  Status `json:"status"`
	Notes   string `json:"notes,omitempty"`

	Lines  []Line                `json:"lines"`
	Totals totals.DocumentTotals `json:"totals"`

	// VATRate is the rate the totals were computed with
	VATRate types.Rate `json:"vatRate"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Invoice  *Invoice  `json:"invoice,omitempty"`
	Quote    *Quote    `json:"quote,omitempty"`
	Delivery *Delivery `json:"delivery,omitempty"`
	Credit   *Credit   `json:"credit,omitempty"`
	Purchase *Purchase `json:"purchase,omitempty"`
	Receipt  *Receipt  `json:"receipt,omitempty"`
	Return   *Return   `json:"return,omitempty"`
}

// Line is one line item. Amounts are derived by the totals engine.
type Line struct {
	LineID       id.ID               `json:"lineId"`
	LineNo       int                 `json:"lineNo"`
	ProductID    string              `json:"productId"`
	Quantity     types.Quantity      `json:"quantity"`
	UnitPrice    types.Money         `json:"unitPrice"`
	Discount     types.Money         `json:"discount"`
	DiscountType totals.DiscountType `json:"discountType"`

	// Reason is required on credit notes and purchase returns
	Reason string `json:"reason,omitempty"`

	totals.LineAmounts
}

// PaymentMethod used on customer invoices.
type PaymentMethod string

const (
	PaymentCIB    PaymentMethod = "cib"
	PaymentEDinar PaymentMethod = "edinar"
	PaymentCash   PaymentMethod = "cash"
	PaymentCredit PaymentMethod = "credit"
)

// SupplierPaymentMethod used on purchase receipts.
type SupplierPaymentMethod string

const (
	SupplierPaymentBankTransfer SupplierPaymentMethod = "bank_transfer"
	SupplierPaymentCheck        SupplierPaymentMethod = "check"
	SupplierPaymentCash         SupplierPaymentMethod = "cash"
)

// Origin of a purchase.
type Origin string

const (
	OriginLocal         Origin = "local"
	OriginInternational Origin = "international"
)

// Invoice variant (FAC).
type Invoice struct {
	PaymentMethod PaymentMethod `json:"paymentMethod"`
}

// Quote variant (DEV).
type Quote struct {
	ValidUntil *time.Time `json:"validUntil,omitempty"`
}

// Delivery variant (BL).
type Delivery struct {
	TransactionID   string     `json:"transactionId,omitempty"`
	DeliveryAddress string     `json:"deliveryAddress"`
	SignedBy        string     `json:"signedBy,omitempty"`
	DeliveryDate    *time.Time `json:"deliveryDate,omitempty"`
}

// Credit variant (AV).
type Credit struct {
	OriginalTransactionID string `json:"originalTransactionId"`
}

// PurchaseTerms are shared by purchase orders, receipts and returns.
// Unit prices are entered in Currency and converted with ExchangeRate,
// which the operator supplies.
type PurchaseTerms struct {
	Origin       Origin     `json:"origin"`
	Currency     string     `json:"currency"`
	ExchangeRate types.Rate `json:"exchangeRate"`
}

// Purchase variant (BC).
type Purchase struct {
	PurchaseTerms

	ExpectedDeliveryDate     *time.Time       `json:"expectedDeliveryDate,omitempty"`
	ProformaInvoiceNumber    string           `json:"proformaInvoiceNumber,omitempty"`
	Incoterm                 string           `json:"incoterm,omitempty"`
	CustomsDeclarationNumber string           `json:"customsDeclarationNumber,omitempty"`
	ShippingMethod           string           `json:"shippingMethod,omitempty"`
	EstimatedArrivalDate     *time.Time       `json:"estimatedArrivalDate,omitempty"`
	DocumentsReceived        *ImportDocuments `json:"documentsReceived,omitempty"`
}

// ImportDocuments tracks paperwork received for an international order.
type ImportDocuments struct {
	ProformaInvoice bool `json:"proformaInvoice"`
	BillOfLading    bool `json:"billOfLading"`
	Certificate     bool `json:"certificate"`
	PackingList     bool `json:"packingList"`
}

// Receipt variant (BR).
type Receipt struct {
	PurchaseTerms

	PurchaseOrderID      string                `json:"purchaseOrderId"`
	PaymentMethod        SupplierPaymentMethod `json:"paymentMethod"`
	CustomsClearanceDate *time.Time            `json:"customsClearanceDate,omitempty"`
	CustomsCharges       types.Money           `json:"customsCharges"`
	ShippingCharges      types.Money           `json:"shippingCharges"`
	OtherCharges         types.Money           `json:"otherCharges"`

	// TotalLandedCost is derived: total plus charges for international receipts
	TotalLandedCost types.Money `json:"totalLandedCost"`
}

// Return variant (RET).
type Return struct {
	PurchaseTerms

	OriginalReceiptID string `json:"originalReceiptId"`
}

// New creates an empty document of the given kind with its variant set.
func New(kind Kind, partyID string, date time.Time) (*Document, error) {
	if !kind.Valid() {
		return nil, apperror.NewUnknownDocumentType(string(kind))
	}
	d := &Document{
		Kind:    kind,
		Date:    date,
		PartyID: partyID,
		Status:  kind.InitialStatus(),
		Lines:   make([]Line, 0),
	}
	d.ensureVariant()
	return d, nil
}

// AddLine appends a line and numbers it.
func (d *Document) AddLine(productID string, quantity types.Quantity, unitPrice, discount types.Money, discountType totals.DiscountType) *Line {
	d.Lines = append(d.Lines, Line{
		LineID:       id.New(),
		LineNo:       len(d.Lines) + 1,
		ProductID:    productID,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		Discount:     discount,
		DiscountType: discountType,
	})
	return &d.Lines[len(d.Lines)-1]
}

// ensureVariant allocates the variant matching Kind when it is missing.
func (d *Document) ensureVariant() {
	switch d.Kind {
	case KindInvoice:
		if d.Invoice == nil {
			d.Invoice = &Invoice{PaymentMethod: PaymentCash}
		}
	case KindQuote:
		if d.Quote == nil {
			d.Quote = &Quote{}
		}
	case KindDelivery:
		if d.Delivery == nil {
			d.Delivery = &Delivery{}
		}
	case KindCredit:
		if d.Credit == nil {
			d.Credit = &Credit{}
		}
	case KindPurchase:
		if d.Purchase == nil {
			d.Purchase = &Purchase{}
		}
	case KindReceipt:
		if d.Receipt == nil {
			d.Receipt = &Receipt{}
		}
	case KindReturn:
		if d.Return == nil {
			d.Return = &Return{}
		}
	}
}

// variantCount counts the variant pointers that are set.
func (d *Document) variantCount() int {
	n := 0
	for _, set := range []bool{
		d.Invoice != nil, d.Quote != nil, d.Delivery != nil, d.Credit != nil,
		d.Purchase != nil, d.Receipt != nil, d.Return != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// Terms returns the purchase terms for purchase-side kinds, nil otherwise.
func (d *Document) Terms() *PurchaseTerms {
	switch {
	case d.Kind == KindPurchase && d.Purchase != nil:
		return &d.Purchase.PurchaseTerms
	case d.Kind == KindReceipt && d.Receipt != nil:
		return &d.Receipt.PurchaseTerms
	case d.Kind == KindReturn && d.Return != nil:
		return &d.Return.PurchaseTerms
	}
	return nil
}

// IsInternational reports whether this is an international purchase document.
func (d *Document) IsInternational() bool {
	t := d.Terms()
	return t != nil && t.Origin == OriginInternational
}

// IsCancelled reports whether the document has been cancelled.
func (d *Document) IsCancelled() bool {
	return d.Status == StatusCancelled
}

// Normalize fills defaults: variant, status, line numbers and purchase terms.
func (d *Document) Normalize() {
	d.ensureVariant()
	if d.Status == "" {
		d.Status = d.Kind.InitialStatus()
	}
	for i := range d.Lines {
		d.Lines[i].LineNo = i + 1
		if id.IsNil(d.Lines[i].LineID) {
			d.Lines[i].LineID = id.New()
		}
		if d.Lines[i].DiscountType == "" {
			d.Lines[i].DiscountType = totals.DiscountPercentage
		}
	}
	if t := d.Terms(); t != nil {
		if t.Origin == "" {
			t.Origin = OriginLocal
		}
		if t.Currency == "" {
			t.Currency = types.CurrencyCode
		}
		if t.ExchangeRate.IsZero() {
			t.ExchangeRate = types.MustMoney("1")
		}
	}
}

// Validate implements entity-level invariants. Numeric line checks are left
// to the totals engine, which reports them as INVALID_INPUT.
func (d *Document) Validate(ctx context.Context) error {
	if !d.Kind.Valid() {
		return apperror.NewUnknownDocumentType(string(d.Kind))
	}
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").WithDetail("field", "date")
	}
	if strings.TrimSpace(d.PartyID) == "" {
		field := "clientId"
		if d.Kind.IsPurchase() {
			field = "supplierId"
		}
		return apperror.NewValidation(field+" is required").WithDetail("field", "partyId")
	}
	if !d.Kind.AllowsStatus(d.Status) {
		return apperror.NewValidation("status not allowed for document type").
			WithDetail("field", "status").
			WithDetail("status", d.Status).
			WithDetail("allowed", d.Kind.Statuses())
	}
	if d.variantCount() != 1 {
		return apperror.NewValidation("document must carry exactly one variant matching its type").
			WithDetail("field", string(d.Kind))
	}
	if err := d.validateVariant(); err != nil {
		return err
	}
	if len(d.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	needsReason := d.Kind == KindCredit || d.Kind == KindReturn
	for i, line := range d.Lines {
		if strings.TrimSpace(line.ProductID) == "" {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if needsReason && strings.TrimSpace(line.Reason) == "" {
			return apperror.NewValidation("reason is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}
	return nil
}

func (d *Document) validateVariant() error {
	switch d.Kind {
	case KindInvoice:
		if d.Invoice == nil {
			return missingVariant(d.Kind)
		}
		switch d.Invoice.PaymentMethod {
		case PaymentCIB, PaymentEDinar, PaymentCash, PaymentCredit:
		default:
			return apperror.NewValidation("unknown payment method").
				WithDetail("field", "paymentMethod")
		}
	case KindQuote:
		if d.Quote == nil {
			return missingVariant(d.Kind)
		}
		if d.Quote.ValidUntil != nil && d.Quote.ValidUntil.Before(d.Date) {
			return apperror.NewValidation("validUntil must not precede the quote date").
				WithDetail("field", "validUntil")
		}
	case KindDelivery:
		if d.Delivery == nil {
			return missingVariant(d.Kind)
		}
		if strings.TrimSpace(d.Delivery.DeliveryAddress) == "" {
			return apperror.NewValidation("delivery address is required").
				WithDetail("field", "deliveryAddress")
		}
	case KindCredit:
		if d.Credit == nil {
			return missingVariant(d.Kind)
		}
		if strings.TrimSpace(d.Credit.OriginalTransactionID) == "" {
			return apperror.NewValidation("original invoice is required").
				WithDetail("field", "originalTransactionId")
		}
	case KindPurchase:
		if d.Purchase == nil {
			return missingVariant(d.Kind)
		}
	case KindReceipt:
		if d.Receipt == nil {
			return missingVariant(d.Kind)
		}
		if strings.TrimSpace(d.Receipt.PurchaseOrderID) == "" {
			return apperror.NewValidation("purchase order is required").
				WithDetail("field", "purchaseOrderId")
		}
		switch d.Receipt.PaymentMethod {
		case "", SupplierPaymentBankTransfer, SupplierPaymentCheck, SupplierPaymentCash:
		default:
			return apperror.NewValidation("unknown payment method").
				WithDetail("field", "paymentMethod")
		}
		for field, v := range map[string]types.Money{
			"customsCharges":  d.Receipt.CustomsCharges,
			"shippingCharges": d.Receipt.ShippingCharges,
			"otherCharges":    d.Receipt.OtherCharges,
		} {
			if v.IsNegative() {
				return apperror.NewInvalidInput(field, field+" must not be negative")
			}
		}
	case KindReturn:
		if d.Return == nil {
			return missingVariant(d.Kind)
		}
		if strings.TrimSpace(d.Return.OriginalReceiptID) == "" {
			return apperror.NewValidation("original receipt is required").
				WithDetail("field", "originalReceiptId")
		}
	}

	if t := d.Terms(); t != nil {
		switch t.Origin {
		case OriginLocal, OriginInternational:
		default:
			return apperror.NewValidation("origin must be local or international").
				WithDetail("field", "origin")
		}
		if !t.ExchangeRate.IsPositive() {
			return apperror.NewInvalidInput("exchangeRate", "exchange rate must be positive")
		}
	}
	return nil
}

func missingVariant(k Kind) error {
	return apperror.NewValidation("missing " + string(k) + " details").WithDetail("field", string(k))
}

// LineInputs converts lines to totals engine inputs. Purchase-side unit
// prices are converted to the local currency with the exchange rate.
func (d *Document) LineInputs() []totals.LineInput {
	rate := types.MustMoney("1")
	if t := d.Terms(); t != nil && t.ExchangeRate.IsPositive() {
		rate = t.ExchangeRate
	}

	inputs := make([]totals.LineInput, len(d.Lines))
	for i, l := range d.Lines {
		inputs[i] = totals.LineInput{
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice.Mul(rate),
			Discount:     l.Discount,
			DiscountType: l.DiscountType,
		}
	}
	return inputs
}

// EffectivePolicy adjusts the kind policy for this document.
func (d *Document) EffectivePolicy(base totals.Policy) totals.Policy {
	if d.IsInternational() {
		return base.Exempt()
	}
	return base
}

// ApplyTotals stores computed amounts on the lines and the document and
// derives the receipt landed cost.
func (d *Document) ApplyTotals(lines []totals.LineAmounts, docTotals totals.DocumentTotals, vatRate types.Rate) {
	for i := range d.Lines {
		if i < len(lines) {
			d.Lines[i].LineAmounts = lines[i]
		}
	}
	d.Totals = docTotals
	d.VATRate = vatRate

	if d.Kind == KindReceipt && d.Receipt != nil {
		d.Receipt.TotalLandedCost = d.LandedCost()
	}
}

// LandedCost is the receipt total plus customs, shipping and other charges
// for international receipts, and the plain total otherwise.
func (d *Document) LandedCost() types.Money {
	if d.Kind != KindReceipt || d.Receipt == nil {
		return d.Totals.Total
	}
	if !d.IsInternational() {
		return d.Totals.Total
	}
	return types.Sum(d.Totals.Total, d.Receipt.CustomsCharges, d.Receipt.ShippingCharges, d.Receipt.OtherCharges)
}

// Clone returns a deep copy, so stores never share state with callers.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Lines = make([]Line, len(d.Lines))
	copy(c.Lines, d.Lines)

	if d.Invoice != nil {
		v := *d.Invoice
		c.Invoice = &v
	}
	if d.Quote != nil {
		v := *d.Quote
		v.ValidUntil = cloneTime(d.Quote.ValidUntil)
		c.Quote = &v
	}
	if d.Delivery != nil {
		v := *d.Delivery
		v.DeliveryDate = cloneTime(d.Delivery.DeliveryDate)
		c.Delivery = &v
	}
	if d.Credit != nil {
		v := *d.Credit
		c.Credit = &v
	}
	if d.Purchase != nil {
		v := *d.Purchase
		v.ExpectedDeliveryDate = cloneTime(d.Purchase.ExpectedDeliveryDate)
		v.EstimatedArrivalDate = cloneTime(d.Purchase.EstimatedArrivalDate)
		if d.Purchase.DocumentsReceived != nil {
			docs := *d.Purchase.DocumentsReceived
			v.DocumentsReceived = &docs
		}
		c.Purchase = &v
	}
	if d.Receipt != nil {
		v := *d.Receipt
		v.CustomsClearanceDate = cloneTime(d.Receipt.CustomsClearanceDate)
		c.Receipt = &v
	}
	if d.Return != nil {
		v := *d.Return
		c.Return = &v
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
