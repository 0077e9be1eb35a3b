package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/brokerage/internal/clock"
	"github.com/smallbiznis/brokerage/internal/document"
	policydomain "github.com/smallbiznis/brokerage/internal/policy/domain"
	"github.com/smallbiznis/brokerage/pkg/validation"
)

type updateCarteraRequest struct {
	CarteraStatus string `json:"cartera_status"`
}

type cancelPolicyRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) CreatePolicy(c *gin.Context) {
	var req policydomain.CreatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.policySvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPolicies(c *gin.Context) {
	var query struct {
		CarteraStatus string `form:"cartera_status"`
		From          string `form:"from"`
		To            string `form:"to"`
		ActiveOnly    string `form:"active_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	activeOnly, err := parseOptionalBool(query.ActiveOnly)
	if err != nil {
		AbortWithError(c, validation.New("active_only", "invalid_active_only", "invalid active_only"))
		return
	}

	resp, err := s.policySvc.List(c.Request.Context(), policydomain.ListPolicyRequest{
		CarteraStatus: strings.TrimSpace(query.CarteraStatus),
		From:          strings.TrimSpace(query.From),
		To:            strings.TrimSpace(query.To),
		ActiveOnly:    activeOnly != nil && *activeOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPolicyByID(c *gin.Context) {
	resp, err := s.policySvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPolicyByCode(c *gin.Context) {
	resp, err := s.policySvc.GetByCode(c.Request.Context(), strings.TrimSpace(c.Param("code")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdatePolicyCartera(c *gin.Context) {
	var req updateCarteraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.policySvc.UpdateCarteraStatus(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.CarteraStatus)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RegisterPayment(c *gin.Context) {
	number, err := strconv.Atoi(strings.TrimSpace(c.Param("number")))
	if err != nil || number < 1 {
		AbortWithError(c, validation.New("number", "invalid_number", "installment number must be a positive integer"))
		return
	}

	// The body is optional: amount defaults to the amount due.
	var req policydomain.RegisterPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.PolicyID = strings.TrimSpace(c.Param("id"))
	req.Number = number

	resp, err := s.policySvc.RegisterPayment(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelPolicy(c *gin.Context) {
	var req cancelPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.policySvc.Cancel(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPolicySchedule(c *gin.Context) {
	doc, err := s.documents.Schedule(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeDocument(c, doc)
}

func (s *Server) ArchivePolicySchedule(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	obj, err := s.documents.Archive(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "policy.schedule_archive", "policy", id, map[string]any{"key": obj.Key})

	c.JSON(http.StatusCreated, gin.H{"data": obj})
}

// ListOverdueInstallments reports past-due installments without writing.
// Stored statuses move only through ReclassifyOverdueInstallments or the
// scheduler.
func (s *Server) ListOverdueInstallments(c *gin.Context) {
	resp, err := s.policySvc.ListOverdue(c.Request.Context(), clock.Today(s.clock))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ReclassifyOverdueInstallments(c *gin.Context) {
	resp, err := s.policySvc.ReclassifyOverdue(c.Request.Context(), clock.Today(s.clock))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if resp.Reclassified > 0 {
		s.audit(c, "installment.reclassify", "installment", "", map[string]any{
			"reclassified": resp.Reclassified,
			"as_of":        resp.AsOf.Format(dateOnlyLayout),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCarteraReport(c *gin.Context) {
	resp, err := s.policySvc.PortfolioReport(c.Request.Context(), clock.Today(s.clock))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp, "policies": resp.Policies})
}

func (s *Server) ExportCarteraReport(c *gin.Context) {
	doc, err := s.documents.Portfolio(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writeDocument(c, doc)
}

func writeDocument(c *gin.Context, doc document.Document) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}
