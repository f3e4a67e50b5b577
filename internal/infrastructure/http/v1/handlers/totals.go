package handlers

import (
	"github.com/gin-gonic/gin"

	"gestcom/internal/domain/documents"
	"gestcom/internal/domain/totals"
	"gestcom/internal/infrastructure/http/v1/dto"
)

// PolicyResolver returns the totals policy in force for a kind.
type PolicyResolver interface {
	Policy(kind documents.Kind) (totals.Policy, error)
}

// TotalsHandler exposes the totals engine without storing anything.
type TotalsHandler struct {
	*BaseHandler
	policies PolicyResolver
}

// NewTotalsHandler creates a totals handler.
func NewTotalsHandler(base *BaseHandler, policies PolicyResolver) *TotalsHandler {
	return &TotalsHandler{BaseHandler: base, policies: policies}
}

// RegisterRoutes registers totals routes on rg.
func (h *TotalsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/line", h.Line)
	rg.POST("/document", h.Document)
}

// Line handles POST /totals/line
func (h *TotalsHandler) Line(c *gin.Context) {
	var req dto.LineAmountsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rate := totals.DefaultVATRate
	if req.VATRate != nil {
		rate = *req.VATRate
	}
	if err := totals.ValidateRate(rate); err != nil {
		h.Error(c, err)
		return
	}

	amounts, err := totals.ComputeLine(req.Input(), rate)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromLineAmounts(amounts))
}

// Document handles POST /totals/document
func (h *TotalsHandler) Document(c *gin.Context) {
	var req dto.DocumentTotalsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	policy := totals.Policy{
		Strategy:         totals.Strategy(req.Strategy),
		ApplyFiscalStamp: req.ApplyFiscalStamp,
		VATExempt:        req.VATExempt,
	}
	if policy.Strategy == "" {
		policy.Strategy = totals.StrategyPerLine
	}
	if req.Kind != "" {
		kind, err := documents.ParseKind(req.Kind)
		if err != nil {
			h.Error(c, err)
			return
		}
		if policy, err = h.policies.Policy(kind); err != nil {
			h.Error(c, err)
			return
		}
		if req.VATExempt {
			policy = policy.Exempt()
		}
	}

	rate := totals.DefaultVATRate
	if req.VATRate != nil {
		rate = *req.VATRate
	}
	stamp := totals.DefaultFiscalStamp
	if req.FiscalStamp != nil {
		stamp = *req.FiscalStamp
	}

	inputs := make([]totals.LineInput, len(req.Lines))
	for i, l := range req.Lines {
		inputs[i] = l.Input()
	}

	lines, docTotals, err := totals.ComputeDocument(inputs, policy, rate, stamp)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.DocumentTotalsResponse{
		Lines:  make([]dto.LineAmountsResponse, len(lines)),
		Totals: dto.FromTotals(docTotals),
	}
	for i, l := range lines {
		resp.Lines[i] = dto.FromLineAmounts(l)
	}
	h.OK(c, resp)
}
