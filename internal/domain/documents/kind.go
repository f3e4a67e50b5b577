package documents

import (
	"strings"

	"gestcom/internal/core/apperror"
	"gestcom/internal/core/numerator"
	"gestcom/internal/domain/totals"
)

// Kind is the closed set of commercial document types.
type Kind string

const (
	KindInvoice  Kind = "invoice"
	KindQuote    Kind = "quote"
	KindDelivery Kind = "delivery"
	KindCredit   Kind = "credit"
	KindPurchase Kind = "purchase"
	KindReceipt  Kind = "receipt"
	KindReturn   Kind = "return"
)

// Status is a lifecycle status. The allowed set depends on the Kind.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusExpired   Status = "expired"
	StatusConfirmed Status = "confirmed"
	StatusReceived  Status = "received"
	StatusDelivered Status = "delivered"
	StatusCompleted Status = "completed"
	StatusProcessed Status = "processed"
	StatusCancelled Status = "cancelled"
)

type kindInfo struct {
	prefix     string
	collection string
	policy     totals.Policy
	statuses   []Status
	purchase   bool
}

// Invoices and delivery notes aggregate VAT per line; the other kinds apply
// the rate to the summed subtotal. Only invoices carry the fiscal stamp.
// Purchase-side kinds are VAT-exempt when the purchase is international.
var registry = map[Kind]kindInfo{
	KindInvoice: {
		prefix:     "FAC",
		collection: "invoices",
		policy:     totals.Policy{Strategy: totals.StrategyPerLine, ApplyFiscalStamp: true},
		statuses:   []Status{StatusPending, StatusCompleted, StatusCancelled},
	},
	KindQuote: {
		prefix:     "DEV",
		collection: "quotes",
		policy:     totals.Policy{Strategy: totals.StrategyOnSubtotal},
		statuses:   []Status{StatusDraft, StatusSent, StatusAccepted, StatusRejected, StatusExpired},
	},
	KindDelivery: {
		prefix:     "BL",
		collection: "deliveries",
		policy:     totals.Policy{Strategy: totals.StrategyPerLine},
		statuses:   []Status{StatusPending, StatusDelivered, StatusCancelled},
	},
	KindCredit: {
		prefix:     "AV",
		collection: "credits",
		policy:     totals.Policy{Strategy: totals.StrategyOnSubtotal},
		statuses:   []Status{StatusPending, StatusProcessed, StatusCancelled},
	},
	KindPurchase: {
		prefix:     "BC",
		collection: "purchases",
		policy:     totals.Policy{Strategy: totals.StrategyOnSubtotal},
		statuses:   []Status{StatusDraft, StatusSent, StatusConfirmed, StatusReceived, StatusCancelled},
		purchase:   true,
	},
	KindReceipt: {
		prefix:     "BR",
		collection: "receipts",
		policy:     totals.Policy{Strategy: totals.StrategyOnSubtotal},
		statuses:   []Status{StatusPending, StatusCompleted, StatusCancelled},
		purchase:   true,
	},
	KindReturn: {
		prefix:     "RET",
		collection: "returns",
		policy:     totals.Policy{Strategy: totals.StrategyOnSubtotal},
		statuses:   []Status{StatusPending, StatusProcessed, StatusCancelled},
		purchase:   true,
	},
}

var kindOrder = []Kind{KindInvoice, KindQuote, KindDelivery, KindCredit, KindPurchase, KindReceipt, KindReturn}

// Kinds returns every document kind in a stable order.
func Kinds() []Kind {
	out := make([]Kind, len(kindOrder))
	copy(out, kindOrder)
	return out
}

// ParseKind accepts a kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := registry[k]; !ok {
		return "", apperror.NewUnknownDocumentType(s)
	}
	return k, nil
}

// KindByPrefix resolves a reference prefix back to its kind.
func KindByPrefix(prefix string) (Kind, error) {
	for _, k := range kindOrder {
		if registry[k].prefix == prefix {
			return k, nil
		}
	}
	return "", apperror.NewUnknownDocumentType(prefix)
}

func (k Kind) info() (kindInfo, error) {
	info, ok := registry[k]
	if !ok {
		return kindInfo{}, apperror.NewUnknownDocumentType(string(k))
	}
	return info, nil
}

// Valid reports whether k is a registered kind.
func (k Kind) Valid() bool {
	_, ok := registry[k]
	return ok
}

func (k Kind) String() string { return string(k) }

// Prefix returns the reference prefix (FAC, DEV, ...).
func (k Kind) Prefix() (string, error) {
	info, err := k.info()
	if err != nil {
		return "", err
	}
	return info.prefix, nil
}

// Collection returns the storage collection name.
func (k Kind) Collection() (string, error) {
	info, err := k.info()
	if err != nil {
		return "", err
	}
	return info.collection, nil
}

// Policy returns the default totals policy for the kind.
func (k Kind) Policy() (totals.Policy, error) {
	info, err := k.info()
	if err != nil {
		return totals.Policy{}, err
	}
	return info.policy, nil
}

// Statuses returns the statuses a document of this kind may hold.
// The first one is the initial status.
func (k Kind) Statuses() []Status {
	info, ok := registry[k]
	if !ok {
		return nil
	}
	out := make([]Status, len(info.statuses))
	copy(out, info.statuses)
	return out
}

// InitialStatus is the status a new document starts in.
func (k Kind) InitialStatus() Status {
	if info, ok := registry[k]; ok {
		return info.statuses[0]
	}
	return ""
}

// AllowsStatus reports whether s is valid for k.
func (k Kind) AllowsStatus(s Status) bool {
	for _, allowed := range registry[k].statuses {
		if allowed == s {
			return true
		}
	}
	return false
}

// IsPurchase reports whether k belongs to the supplier side (order, receipt, return).
func (k Kind) IsPurchase() bool {
	return registry[k].purchase
}

// NumeratorConfig returns the numbering layout for k.
func (k Kind) NumeratorConfig(reset numerator.ResetPeriod) (numerator.Config, error) {
	prefix, err := k.Prefix()
	if err != nil {
		return numerator.Config{}, err
	}
	cfg := numerator.DefaultConfig(prefix)
	cfg.ResetPeriod = reset
	return cfg, nil
}

// FormatReference renders "{prefix}{year}-{sequence:04}", e.g. FAC2024-0001.
func FormatReference(kind Kind, sequence int64, year int) (string, error) {
	cfg, err := kind.NumeratorConfig(numerator.ResetNever)
	if err != nil {
		return "", err
	}
	return numerator.Format(cfg, sequence, year), nil
}

// ParseReference splits a reference into kind, year and sequence.
func ParseReference(ref string) (Kind, int, int64, error) {
	parsed, ok := numerator.Parse(ref)
	if !ok {
		return "", 0, 0, apperror.NewValidation("malformed document reference").
			WithDetail("reference", ref)
	}
	kind, err := KindByPrefix(parsed.Prefix)
	if err != nil {
		return "", 0, 0, err
	}
	return kind, parsed.Year, parsed.Sequence, nil
}
