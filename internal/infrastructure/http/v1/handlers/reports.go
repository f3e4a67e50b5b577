package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"gestcom/internal/core/apperror"
	"gestcom/internal/domain/reports"
	"gestcom/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// RegisterRoutes registers report routes on rg.
func (h *ReportsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/sales", h.GetSales)
	rg.GET("/document-types", h.GetDocumentTypeSummary)
}

// period parses the inclusive from/to query. A plain "to" date covers the whole day.
func (h *ReportsHandler) period(c *gin.Context) (dto.ReportPeriodQuery, time.Time, time.Time, bool) {
	var req dto.ReportPeriodQuery
	if !h.BindQuery(c, &req) {
		return req, time.Time{}, time.Time{}, false
	}

	from, err := dto.ParseDate(req.From)
	if err != nil {
		h.Error(c, apperror.NewValidation(err.Error()).WithDetail("field", "from"))
		return req, time.Time{}, time.Time{}, false
	}
	to, err := dto.ParseDate(req.To)
	if err != nil {
		h.Error(c, apperror.NewValidation(err.Error()).WithDetail("field", "to"))
		return req, time.Time{}, time.Time{}, false
	}
	if len(req.To) == len("2006-01-02") {
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	return req, from, to, true
}

// GetSales handles GET /reports/sales
func (h *ReportsHandler) GetSales(c *gin.Context) {
	req, from, to, ok := h.period(c)
	if !ok {
		return
	}

	report, err := h.service.Sales(c.Request.Context(), reports.SalesReportFilter{
		From:     from,
		To:       to,
		ClientID: req.ClientID,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSalesReport(report))
}

// GetDocumentTypeSummary handles GET /reports/document-types
func (h *ReportsHandler) GetDocumentTypeSummary(c *gin.Context) {
	_, from, to, ok := h.period(c)
	if !ok {
		return
	}

	items, err := h.service.DocumentTypeSummary(c.Request.Context(), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromDocumentTypeSummaries(items))
}
