// Package memory provides an injected in-memory store: documents keyed by
// collection, per-key atomic counters and settings. Each value owns its own
// state, so tests and processes never share a hidden global.
package memory

import (
	"context"
	"sync"

	"gestcom/internal/core/apperror"
	"gestcom/internal/domain"
	"gestcom/internal/domain/documents"
)

// DocumentStore implements documents.Repository.
type DocumentStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*documents.Document
}

// NewDocumentStore creates an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{collections: make(map[string]map[string]*documents.Document)}
}

var _ documents.Repository = (*DocumentStore)(nil)

func collectionOf(kind documents.Kind) (string, error) {
	return kind.Collection()
}

// List implements documents.Repository.
func (s *DocumentStore) List(ctx context.Context, kind documents.Kind, filter documents.ListFilter) (domain.ListResult[*documents.Document], error) {
	coll, err := collectionOf(kind)
	if err != nil {
		return domain.ListResult[*documents.Document]{}, err
	}

	s.mu.RLock()
	matched := make([]*documents.Document, 0, len(s.collections[coll]))
	for _, d := range s.collections[coll] {
		if filter.Matches(d) {
			matched = append(matched, d.Clone())
		}
	}
	s.mu.RUnlock()

	documents.SortDocuments(matched, filter.OrderBy)
	return domain.Page(matched, filter.ListFilter), nil
}

// GetByID implements documents.Repository.
func (s *DocumentStore) GetByID(ctx context.Context, kind documents.Kind, id string) (*documents.Document, error) {
	coll, err := collectionOf(kind)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	d, ok := s.collections[coll][id]
	s.mu.RUnlock()
	if !ok {
		return nil, apperror.NewNotFound(string(kind), id)
	}
	return d.Clone(), nil
}

// Insert implements documents.Repository.
func (s *DocumentStore) Insert(ctx context.Context, kind documents.Kind, doc *documents.Document) (*documents.Document, error) {
	coll, err := collectionOf(kind)
	if err != nil {
		return nil, err
	}
	if doc.ID == "" {
		return nil, apperror.NewValidation("document reference is required").WithDetail("field", "id")
	}

	stored := doc.Clone()
	stored.Kind = kind

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collections[coll] == nil {
		s.collections[coll] = make(map[string]*documents.Document)
	}
	if _, exists := s.collections[coll][doc.ID]; exists {
		return nil, apperror.NewDuplicate(string(kind), "id", doc.ID)
	}
	s.collections[coll][doc.ID] = stored

	return stored.Clone(), nil
}

// Upsert implements documents.Repository.
func (s *DocumentStore) Upsert(ctx context.Context, kind documents.Kind, doc *documents.Document) (*documents.Document, error) {
	coll, err := collectionOf(kind)
	if err != nil {
		return nil, err
	}
	if doc.ID == "" {
		return nil, apperror.NewValidation("document reference is required").WithDetail("field", "id")
	}

	stored := doc.Clone()
	stored.Kind = kind

	s.mu.Lock()
	if s.collections[coll] == nil {
		s.collections[coll] = make(map[string]*documents.Document)
	}
	s.collections[coll][doc.ID] = stored
	s.mu.Unlock()

	return stored.Clone(), nil
}

// DeleteByID implements documents.Repository.
func (s *DocumentStore) DeleteByID(ctx context.Context, kind documents.Kind, id string) (bool, error) {
	coll, err := collectionOf(kind)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[coll][id]; !ok {
		return false, nil
	}
	delete(s.collections[coll], id)
	return true, nil
}

// Count returns the number of stored documents of kind.
func (s *DocumentStore) Count(kind documents.Kind) int {
	coll, err := collectionOf(kind)
	if err != nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[coll])
}
