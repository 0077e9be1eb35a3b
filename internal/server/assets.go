package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	assetdomain "github.com/smallbiznis/brokerage/internal/asset/domain"
	"github.com/smallbiznis/brokerage/pkg/db/pagination"
)

func (s *Server) CreateAsset(c *gin.Context) {
	var req assetdomain.CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.assetSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "asset.create", "asset", resp.ID.String(), map[string]any{
		"kind": string(resp.Kind),
	})

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListAssets(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Kind     string `form:"kind"`
		ClientID string `form:"client_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.assetSvc.List(c.Request.Context(), assetdomain.ListAssetRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
		Kind:      strings.TrimSpace(query.Kind),
		ClientID:  strings.TrimSpace(query.ClientID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Assets, "page_info": resp.PageInfo})
}

func (s *Server) GetAssetByID(c *gin.Context) {
	resp, err := s.assetSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateAsset(c *gin.Context) {
	var req assetdomain.UpdateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.assetSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "asset.update", "asset", resp.ID.String(), nil)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteAsset(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.assetSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "asset.delete", "asset", id, nil)

	c.Status(http.StatusNoContent)
}

func (s *Server) AssignAssetClient(c *gin.Context) {
	assetID := strings.TrimSpace(c.Param("id"))
	clientID := strings.TrimSpace(c.Param("client_id"))
	resp, err := s.assetSvc.AssignClient(c.Request.Context(), assetID, clientID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "asset.client_assign", "asset", assetID, map[string]any{"client_id": clientID})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UnassignAssetClient(c *gin.Context) {
	assetID := strings.TrimSpace(c.Param("id"))
	clientID := strings.TrimSpace(c.Param("client_id"))
	if err := s.assetSvc.UnassignClient(c.Request.Context(), assetID, clientID); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "asset.client_unassign", "asset", assetID, map[string]any{"client_id": clientID})

	c.Status(http.StatusNoContent)
}

func (s *Server) ListAssetQuotations(c *gin.Context) {
	resp, err := s.quotationSvc.ListByAsset(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
