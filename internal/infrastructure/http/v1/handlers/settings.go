package handlers

import (
	"github.com/gin-gonic/gin"

	"gestcom/internal/core/apperror"
	"gestcom/internal/domain/settings"
	"gestcom/internal/infrastructure/http/v1/dto"
)

// SettingsHandler serves VAT rates, fiscal stamps, discount rules and product margins.
type SettingsHandler struct {
	*BaseHandler
	service *settings.Service
}

// NewSettingsHandler creates a settings handler.
func NewSettingsHandler(base *BaseHandler, service *settings.Service) *SettingsHandler {
	return &SettingsHandler{BaseHandler: base, service: service}
}

// RegisterRoutes registers settings routes on rg.
func (h *SettingsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/vat-rates", h.ListVATRates)
	rg.POST("/vat-rates", h.SaveVATRate)
	rg.GET("/fiscal-stamps", h.ListFiscalStamps)
	rg.POST("/fiscal-stamps", h.SaveFiscalStamp)
	rg.GET("/discount-rules", h.ListDiscountRules)
	rg.POST("/discount-rules", h.SaveDiscountRule)
	rg.POST("/discount-rules/match", h.MatchDiscountRules)
	rg.GET("/margins", h.ListProductMargins)
	rg.POST("/margins", h.SaveProductMargin)
	rg.POST("/margins/check", h.CheckMargin)
	rg.GET("/resolve", h.Resolve)
}

// ListVATRates handles GET /settings/vat-rates
func (h *SettingsHandler) ListVATRates(c *gin.Context) {
	items, err := h.service.ListVATRates(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, items)
}

// SaveVATRate handles POST /settings/vat-rates
func (h *SettingsHandler) SaveVATRate(c *gin.Context) {
	var rate settings.VATRate
	if !h.BindJSON(c, &rate) {
		return
	}
	if err := h.service.SaveVATRate(c.Request.Context(), &rate); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, rate)
}

// ListFiscalStamps handles GET /settings/fiscal-stamps
func (h *SettingsHandler) ListFiscalStamps(c *gin.Context) {
	items, err := h.service.ListFiscalStamps(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, items)
}

// SaveFiscalStamp handles POST /settings/fiscal-stamps
func (h *SettingsHandler) SaveFiscalStamp(c *gin.Context) {
	var stamp settings.FiscalStamp
	if !h.BindJSON(c, &stamp) {
		return
	}
	if err := h.service.SaveFiscalStamp(c.Request.Context(), &stamp); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, stamp)
}

// ListDiscountRules handles GET /settings/discount-rules
func (h *SettingsHandler) ListDiscountRules(c *gin.Context) {
	items, err := h.service.ListDiscountRules(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, items)
}

// SaveDiscountRule handles POST /settings/discount-rules
func (h *SettingsHandler) SaveDiscountRule(c *gin.Context) {
	var rule settings.DiscountRule
	if !h.BindJSON(c, &rule) {
		return
	}
	if err := h.service.SaveDiscountRule(c.Request.Context(), &rule); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, rule)
}

// ListProductMargins handles GET /settings/margins
func (h *SettingsHandler) ListProductMargins(c *gin.Context) {
	items, err := h.service.ListProductMargins(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, items)
}

// SaveProductMargin handles POST /settings/margins
func (h *SettingsHandler) SaveProductMargin(c *gin.Context) {
	var margin settings.ProductMargin
	if !h.BindJSON(c, &margin) {
		return
	}
	if err := h.service.SaveProductMargin(c.Request.Context(), &margin); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, margin)
}

// CheckMargin handles POST /settings/margins/check
// It compares a cost/price pair with the margin bounds of its category.
func (h *SettingsHandler) CheckMargin(c *gin.Context) {
	var req dto.MarginCheckRequest
	if !h.BindJSON(c, &req) {
		return
	}
	margin, err := h.service.MarginFor(c.Request.Context(), req.Category)
	if err != nil {
		h.Error(c, err)
		return
	}
	if margin == nil {
		h.Error(c, apperror.NewNotFound("product margin", req.Category))
		return
	}
	h.OK(c, dto.NewMarginCheckResponse(margin, req.Cost, req.Price))
}

// MatchDiscountRules handles POST /settings/discount-rules/match
func (h *SettingsHandler) MatchDiscountRules(c *gin.Context) {
	var req dto.DiscountMatchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	dc := req.Context(h.now())

	rules, err := h.service.MatchDiscountRules(c.Request.Context(), dc)
	if err != nil {
		h.Error(c, err)
		return
	}
	best, amount, err := h.service.BestDiscount(c.Request.Context(), dc)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.DiscountMatchResponse{Rules: rules}
	if best != nil {
		resp.Best = &dto.BestDiscountResponse{
			RuleID:   best.ID,
			Name:     best.Name,
			Discount: dto.Amount(amount),
		}
	}
	h.OK(c, resp)
}

// Resolve handles GET /settings/resolve?date=
// It reports the VAT rate and fiscal stamp a document dated date would use.
func (h *SettingsHandler) Resolve(c *gin.Context) {
	at := h.now()
	if raw := c.Query("date"); raw != "" {
		t, err := dto.ParseDate(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation(err.Error()).WithDetail("field", "date"))
			return
		}
		at = t
	}

	ctx := c.Request.Context()
	rate, err := h.service.ResolveVATRate(ctx, at)
	if err != nil {
		h.Error(c, err)
		return
	}
	stamp, err := h.service.ResolveFiscalStamp(ctx, at)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ResolvedRatesResponse{
		At:          at,
		VATRate:     rate.String(),
		FiscalStamp: dto.Amount(stamp),
	})
}
