package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	quotationdomain "github.com/smallbiznis/brokerage/internal/quotation/domain"
	"github.com/smallbiznis/brokerage/pkg/validation"
)

type updatePremiumRequest struct {
	TotalPremium *decimal.Decimal `json:"total_premium"`
}

func (s *Server) CreateQuotation(c *gin.Context) {
	var req quotationdomain.CreateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.quotationSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "quotation.create", "quotation", resp.ID.String(), map[string]any{
		"code":       resp.Code,
		"asset_id":   resp.AssetID.String(),
		"insurer_id": resp.InsurerID.String(),
	})

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListQuotations(c *gin.Context) {
	var query struct {
		AssetID   string `form:"asset_id"`
		InsurerID string `form:"insurer_id"`
		Kind      string `form:"kind"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.quotationSvc.List(c.Request.Context(), quotationdomain.ListQuotationRequest{
		AssetID:   strings.TrimSpace(query.AssetID),
		InsurerID: strings.TrimSpace(query.InsurerID),
		Kind:      strings.TrimSpace(query.Kind),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetQuotationByID(c *gin.Context) {
	resp, err := s.quotationSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateQuotationPremium(c *gin.Context) {
	var req updatePremiumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.TotalPremium == nil {
		AbortWithError(c, validation.Required("total_premium"))
		return
	}

	resp, err := s.quotationSvc.UpdatePremium(c.Request.Context(), strings.TrimSpace(c.Param("id")), *req.TotalPremium)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "quotation.premium_update", "quotation", resp.ID.String(), map[string]any{
		"total_premium": req.TotalPremium.StringFixed(2),
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteQuotation(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.quotationSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "quotation.delete", "quotation", id, nil)

	c.Status(http.StatusNoContent)
}

// SimulateQuotation prices insured values without persisting a quotation.
func (s *Server) SimulateQuotation(c *gin.Context) {
	var req quotationdomain.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.quotationSvc.Simulate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
