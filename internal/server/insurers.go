package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	insurerdomain "github.com/smallbiznis/brokerage/internal/insurer/domain"
)

func (s *Server) CreateInsurer(c *gin.Context) {
	var req insurerdomain.InsurerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.insurerSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "insurer.create", "insurer", resp.ID.String(), map[string]any{"name": resp.Name})

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListInsurers(c *gin.Context) {
	resp, err := s.insurerSvc.List(c.Request.Context(), strings.TrimSpace(c.Query("name")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInsurerByID(c *gin.Context) {
	resp, err := s.insurerSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateInsurer(c *gin.Context) {
	var req insurerdomain.InsurerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.insurerSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "insurer.update", "insurer", resp.ID.String(), nil)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteInsurer(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.insurerSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "insurer.delete", "insurer", id, nil)

	c.Status(http.StatusNoContent)
}

// GetInsurerTemplates returns the deductibles, coverages and financing plans
// an agent can attach to a quotation of the given kind.
func (s *Server) GetInsurerTemplates(c *gin.Context) {
	resp, err := s.insurerSvc.Templates(c.Request.Context(), strings.TrimSpace(c.Param("id")), strings.TrimSpace(c.Query("kind")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateDeductible(c *gin.Context) {
	var req insurerdomain.DeductibleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.insurerSvc.CreateDeductible(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "insurer.deductible_create", "insurer", id, map[string]any{
		"deductible_id": resp.ID.String(),
		"kind":          string(resp.Kind),
	})

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) CreateCoverage(c *gin.Context) {
	var req insurerdomain.CoverageInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.insurerSvc.CreateCoverage(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "insurer.coverage_create", "insurer", id, map[string]any{
		"coverage_id": resp.ID.String(),
		"kind":        string(resp.Kind),
	})

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) CreateFinancing(c *gin.Context) {
	var req insurerdomain.FinancingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.insurerSvc.CreateFinancing(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "insurer.financing_create", "insurer", id, map[string]any{
		"financing_plan_id": resp.ID.String(),
		"monthly_rate":      resp.MonthlyRate.String(),
	})

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}
