package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"gestcom/internal/core/apperror"
	"gestcom/internal/domain"
	"gestcom/internal/domain/documents"
	"gestcom/internal/infrastructure/http/v1/dto"
)

// DocumentService is the document use-case surface the handler needs.
type DocumentService interface {
	Create(ctx context.Context, doc *documents.Document) (*documents.Document, error)
	Update(ctx context.Context, doc *documents.Document) (*documents.Document, error)
	Get(ctx context.Context, kind documents.Kind, id string) (*documents.Document, error)
	List(ctx context.Context, kind documents.Kind, filter documents.ListFilter) (domain.ListResult[*documents.Document], error)
	Delete(ctx context.Context, kind documents.Kind, id string) (bool, error)
	Preview(ctx context.Context, doc *documents.Document) (*documents.Document, error)
	PeekReference(ctx context.Context, kind documents.Kind, at time.Time) (int64, string, error)
}

// DocumentHandler serves /documents/:kind for every document kind.
type DocumentHandler struct {
	*BaseHandler
	service DocumentService
	history documents.HistoryReader
}

// NewDocumentHandler creates a document handler. history may be nil.
func NewDocumentHandler(base *BaseHandler, service DocumentService, history documents.HistoryReader) *DocumentHandler {
	return &DocumentHandler{BaseHandler: base, service: service, history: history}
}

// RegisterRoutes registers document routes on rg.
func (h *DocumentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:kind", h.List)
	rg.POST("/:kind", h.Create)
	rg.POST("/:kind/preview", h.Preview)
	rg.GET("/:kind/next-sequence", h.NextSequence)
	rg.GET("/:kind/:id", h.Get)
	rg.PUT("/:kind/:id", h.Update)
	rg.DELETE("/:kind/:id", h.Delete)
	if h.history != nil {
		rg.GET("/:kind/:id/history", h.History)
	}
}

// List handles GET /documents/:kind
func (h *DocumentHandler) List(c *gin.Context) {
	kind, ok := h.Kind(c)
	if !ok {
		return
	}

	var q dto.DocumentListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter := documents.DefaultListFilter()
	filter.Search = q.Search
	if q.OrderBy != "" {
		filter.OrderBy = q.OrderBy
	}
	if q.Limit > 0 {
		filter.Limit = q.Limit
	}
	filter.Offset = q.Offset
	filter.PartyID = q.PartyID
	filter.Status = documents.Status(q.Status)

	for _, bound := range []struct {
		raw   string
		field string
		dst   **time.Time
	}{{q.From, "from", &filter.From}, {q.To, "to", &filter.To}} {
		if bound.raw == "" {
			continue
		}
		t, err := dto.ParseDate(bound.raw)
		if err != nil {
			h.Error(c, apperror.NewValidation(err.Error()).WithDetail("field", bound.field))
			return
		}
		*bound.dst = &t
	}

	result, err := h.service.List(c.Request.Context(), kind, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.ListResponse[dto.DocumentResponse]{
		Items:      make([]dto.DocumentResponse, len(result.Items)),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	}
	for i, d := range result.Items {
		resp.Items[i] = dto.FromDocument(d)
	}
	h.OK(c, resp)
}

// bindDocument reads the body into a domain document of the path kind.
func (h *DocumentHandler) bindDocument(c *gin.Context) (*documents.Document, bool) {
	kind, ok := h.Kind(c)
	if !ok {
		return nil, false
	}

	var req dto.DocumentRequest
	if !h.BindJSON(c, &req) {
		return nil, false
	}

	doc, err := req.ToDocument(kind, h.now())
	if err != nil {
		h.Error(c, err)
		return nil, false
	}
	return doc, true
}

// Create handles POST /documents/:kind
func (h *DocumentHandler) Create(c *gin.Context) {
	doc, ok := h.bindDocument(c)
	if !ok {
		return
	}

	saved, err := h.service.Create(c.Request.Context(), doc)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromDocument(saved))
}

// Preview handles POST /documents/:kind/preview
func (h *DocumentHandler) Preview(c *gin.Context) {
	doc, ok := h.bindDocument(c)
	if !ok {
		return
	}

	computed, err := h.service.Preview(c.Request.Context(), doc)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromDocument(computed))
}

// NextSequence handles GET /documents/:kind/next-sequence?date=
// It shows the next reference without reserving it.
func (h *DocumentHandler) NextSequence(c *gin.Context) {
	kind, ok := h.Kind(c)
	if !ok {
		return
	}

	at := h.now()
	if raw := c.Query("date"); raw != "" {
		t, err := dto.ParseDate(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation(err.Error()).WithDetail("field", "date"))
			return
		}
		at = t
	}

	seq, ref, err := h.service.PeekReference(c.Request.Context(), kind, at)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NextSequenceResponse{Kind: string(kind), Sequence: seq, Reference: ref})
}

// Get handles GET /documents/:kind/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	kind, ok := h.Kind(c)
	if !ok {
		return
	}

	doc, err := h.service.Get(c.Request.Context(), kind, c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromDocument(doc))
}

// Update handles PUT /documents/:kind/:id
func (h *DocumentHandler) Update(c *gin.Context) {
	doc, ok := h.bindDocument(c)
	if !ok {
		return
	}
	if doc.ID != "" && doc.ID != c.Param("id") {
		h.Error(c, apperror.NewValidation("id in body does not match path").WithDetail("field", "id"))
		return
	}
	doc.ID = c.Param("id")

	saved, err := h.service.Update(c.Request.Context(), doc)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromDocument(saved))
}

// Delete handles DELETE /documents/:kind/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	kind, ok := h.Kind(c)
	if !ok {
		return
	}

	removed, err := h.service.Delete(c.Request.Context(), kind, c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.DeleteResponse{Deleted: removed})
}

// History handles GET /documents/:kind/:id/history
// Snapshots outlive the document, so a deleted reference still has history.
func (h *DocumentHandler) History(c *gin.Context) {
	kind, ok := h.Kind(c)
	if !ok {
		return
	}
	var q dto.HistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}

	entries, err := h.history.History(c.Request.Context(), kind, c.Param("id"), q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	if len(entries) == 0 {
		h.Error(c, apperror.NewNotFound(string(kind), c.Param("id")))
		return
	}
	h.OK(c, dto.FromHistory(entries))
}
