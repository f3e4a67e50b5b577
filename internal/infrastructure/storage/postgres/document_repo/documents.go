// Package document_repo provides the PostgreSQL document store. All kinds
// share one table partitioned by collection.
package document_repo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gestcom/internal/core/apperror"
	"gestcom/internal/domain"
	"gestcom/internal/domain/documents"
	"gestcom/internal/infrastructure/storage/postgres"
)

const tableName = "documents"

// columns is derived once from the row struct tags.
var columns = postgres.ExtractDBColumns[documentRow]()

// orderColumns maps public sort fields onto columns.
var orderColumns = map[string]string{
	"date":      "date",
	"id":        "id",
	"reference": "id",
	"total":     "total",
	"status":    "status",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// DocumentRepo implements documents.Repository.
type DocumentRepo struct {
	txManager *postgres.TxManager
}

var _ documents.Repository = (*DocumentRepo)(nil)

// NewDocumentRepo creates a document repository.
func NewDocumentRepo(txManager *postgres.TxManager) *DocumentRepo {
	return &DocumentRepo{txManager: txManager}
}

// Builder returns a new squirrel builder.
func (r *DocumentRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *DocumentRepo) baseSelect(collection string) squirrel.SelectBuilder {
	return r.Builder().
		Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"collection": collection})
}

// List implements documents.Repository.
func (r *DocumentRepo) List(ctx context.Context, kind documents.Kind, filter documents.ListFilter) (domain.ListResult[*documents.Document], error) {
	result := domain.ListResult[*documents.Document]{
		Items:  []*documents.Document{},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	collection, err := kind.Collection()
	if err != nil {
		return result, err
	}

	q := applyFilter(r.baseSelect(collection), filter)

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, postgres.MapError("count "+collection, err)
	}

	q = q.OrderBy(orderBy(filter.OrderBy)...)
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	var rows []*documentRow
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return result, postgres.MapError("list "+collection, err)
	}

	for _, row := range rows {
		d, err := row.toDocument()
		if err != nil {
			return result, err
		}
		result.Items = append(result.Items, d)
	}
	return result, nil
}

func applyFilter(q squirrel.SelectBuilder, f documents.ListFilter) squirrel.SelectBuilder {
	if f.PartyID != "" {
		q = q.Where(squirrel.Eq{"party_id": f.PartyID})
	}
	if f.Status != "" {
		q = q.Where(squirrel.Eq{"status": string(f.Status)})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"date": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{"date": *f.To})
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + s + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"id": pattern},
			squirrel.ILike{"party_id": pattern},
			squirrel.ILike{"notes": pattern},
		})
	}
	return q
}

// orderBy resolves a sort field; unknown fields fall back to date. The
// reference breaks ties.
func orderBy(raw string) []string {
	f := domain.ListFilter{OrderBy: raw}
	field, desc := f.SortField()

	col, ok := orderColumns[field]
	if !ok {
		col = "date"
	}
	direction := "ASC"
	if desc {
		direction = "DESC"
	}
	if col == "id" {
		return []string{"id " + direction}
	}
	return []string{col + " " + direction, "id " + direction}
}

// GetByID implements documents.Repository.
func (r *DocumentRepo) GetByID(ctx context.Context, kind documents.Kind, id string) (*documents.Document, error) {
	collection, err := kind.Collection()
	if err != nil {
		return nil, err
	}

	sql, args, err := r.baseSelect(collection).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row documentRow
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(string(kind), id)
		}
		return nil, postgres.MapError("get "+collection, err)
	}
	return row.toDocument()
}

// Insert implements documents.Repository. An existing reference is a
// DUPLICATE_ENTRY; the row is never overwritten.
func (r *DocumentRepo) Insert(ctx context.Context, kind documents.Kind, doc *documents.Document) (*documents.Document, error) {
	collection, stored, row, err := prepareWrite(kind, doc)
	if err != nil {
		return nil, err
	}

	sql, args, err := r.writeSQL(row, false)
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, apperror.NewDuplicate(string(kind), "id", doc.ID).WithCause(err)
		}
		return nil, postgres.MapError("insert "+collection, err)
	}
	return stored, nil
}

// Upsert implements documents.Repository.
func (r *DocumentRepo) Upsert(ctx context.Context, kind documents.Kind, doc *documents.Document) (*documents.Document, error) {
	collection, stored, row, err := prepareWrite(kind, doc)
	if err != nil {
		return nil, err
	}

	sql, args, err := r.writeSQL(row, true)
	if err != nil {
		return nil, fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return nil, postgres.MapError("upsert "+collection, err)
	}
	return stored, nil
}

func prepareWrite(kind documents.Kind, doc *documents.Document) (string, *documents.Document, *documentRow, error) {
	collection, err := kind.Collection()
	if err != nil {
		return "", nil, nil, err
	}
	if doc.ID == "" {
		return "", nil, nil, apperror.NewValidation("document reference is required").WithDetail("field", "id")
	}

	stored := doc.Clone()
	stored.Kind = kind
	row, err := toRow(collection, stored)
	if err != nil {
		return "", nil, nil, err
	}
	return collection, stored, row, nil
}

// writeSQL builds the INSERT for row. With upsert set, a conflicting
// reference is overwritten except for its creation time.
func (r *DocumentRepo) writeSQL(row *documentRow, upsert bool) (string, []any, error) {
	data := postgres.StructToMap(row)
	q := r.Builder().Insert(tableName).SetMap(data)
	if !upsert {
		return q.ToSql()
	}

	updates := make([]string, 0, len(data))
	for col := range data {
		if col == "collection" || col == "id" || col == "created_at" {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	sort.Strings(updates)

	return q.Suffix("ON CONFLICT (collection, id) DO UPDATE SET " + strings.Join(updates, ", ")).ToSql()
}

// DeleteByID implements documents.Repository.
func (r *DocumentRepo) DeleteByID(ctx context.Context, kind documents.Kind, id string) (bool, error) {
	collection, err := kind.Collection()
	if err != nil {
		return false, err
	}

	sql, args, err := r.Builder().
		Delete(tableName).
		Where(squirrel.Eq{"collection": collection, "id": id}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, postgres.MapError("delete "+collection, err)
	}
	return tag.RowsAffected() > 0, nil
}
