package reports

import (
	"context"

	"gestcom/internal/domain"
	"gestcom/internal/domain/documents"
)

// Source lists documents; documents.Repository satisfies it.
type Source interface {
	List(ctx context.Context, kind documents.Kind, filter documents.ListFilter) (domain.ListResult[*documents.Document], error)
}
