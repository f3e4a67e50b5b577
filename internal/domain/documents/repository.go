package documents

import (
	"context"
	"sort"
	"strings"
	"time"

	"gestcom/internal/domain"
)

// ListFilter narrows a document listing.
type ListFilter struct {
	domain.ListFilter

	PartyID string
	Status  Status

	// From and To bound the document date, both inclusive
	From *time.Time
	To   *time.Time
}

// DefaultListFilter returns the newest documents first.
func DefaultListFilter() ListFilter {
	return ListFilter{ListFilter: domain.DefaultListFilter()}
}

// Matches reports whether d passes every filter criterion except pagination.
func (f ListFilter) Matches(d *Document) bool {
	if f.PartyID != "" && d.PartyID != f.PartyID {
		return false
	}
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.From != nil && d.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && d.Date.After(*f.To) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		hay := strings.ToLower(d.ID + " " + d.PartyID + " " + d.Notes)
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

// SortDocuments orders docs by the filter's OrderBy (date, id, total, status).
// Ties fall back to the reference so the order is stable.
func SortDocuments(docs []*Document, orderBy string) {
	f := domain.ListFilter{OrderBy: orderBy}
	field, desc := f.SortField()

	less := func(a, b *Document) int {
		switch field {
		case "id", "reference":
			return strings.Compare(a.ID, b.ID)
		case "total":
			return a.Totals.Total.Cmp(b.Totals.Total)
		case "status":
			return strings.Compare(string(a.Status), string(b.Status))
		default:
			return a.Date.Compare(b.Date)
		}
	}

	sort.SliceStable(docs, func(i, j int) bool {
		c := less(docs[i], docs[j])
		if c == 0 {
			c = strings.Compare(docs[i].ID, docs[j].ID)
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// Repository is the document store contract. Implementations key documents
// by kind and reference.
type Repository interface {
	// List returns documents of kind matching filter.
	List(ctx context.Context, kind Kind, filter ListFilter) (domain.ListResult[*Document], error)

	// GetByID returns apperror NOT_FOUND when absent.
	GetByID(ctx context.Context, kind Kind, id string) (*Document, error)

	// Insert stores a new document. An existing reference yields apperror
	// DUPLICATE_ENTRY and leaves the stored document untouched.
	Insert(ctx context.Context, kind Kind, doc *Document) (*Document, error)

	// Upsert inserts the document or replaces the one with the same reference.
	Upsert(ctx context.Context, kind Kind, doc *Document) (*Document, error)

	// DeleteByID reports whether a document was removed.
	DeleteByID(ctx context.Context, kind Kind, id string) (bool, error)
}
