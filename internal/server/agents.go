package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	agentdomain "github.com/smallbiznis/brokerage/internal/agent/domain"
	"github.com/smallbiznis/brokerage/pkg/db/pagination"
)

func (s *Server) CreateAgent(c *gin.Context) {
	var req agentdomain.CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.agentSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "agent.create", "agent", resp.ID.String(), map[string]any{
		"username": resp.Username,
		"role":     string(resp.Role),
	})

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListAgents(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Role   string `form:"role"`
		Active string `form:"active"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := agentdomain.ListAgentRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
		Role:      strings.TrimSpace(query.Role),
	}
	if raw := strings.TrimSpace(query.Active); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		req.Active = &active
	}

	resp, err := s.agentSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Agents, "page_info": resp.PageInfo})
}

func (s *Server) GetAgentByID(c *gin.Context) {
	resp, err := s.agentSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateAgent(c *gin.Context) {
	var req agentdomain.UpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.agentSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "agent.update", "agent", id, map[string]any{
		"role":   string(resp.Role),
		"active": resp.Active,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteAgent(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.agentSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "agent.delete", "agent", id, nil)

	c.Status(http.StatusNoContent)
}

func (s *Server) ListAgentClients(c *gin.Context) {
	resp, err := s.agentSvc.ListClients(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListClientAgents(c *gin.Context) {
	resp, err := s.agentSvc.ListByClient(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AssignAgentClient(c *gin.Context) {
	agentID := strings.TrimSpace(c.Param("id"))
	clientID := strings.TrimSpace(c.Param("client_id"))
	resp, err := s.agentSvc.AssignClient(c.Request.Context(), agentID, clientID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "agent.client_assign", "agent", agentID, map[string]any{"client_id": clientID})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UnassignAgentClient(c *gin.Context) {
	agentID := strings.TrimSpace(c.Param("id"))
	clientID := strings.TrimSpace(c.Param("client_id"))
	if err := s.agentSvc.UnassignClient(c.Request.Context(), agentID, clientID); err != nil {
		AbortWithError(c, err)
		return
	}

	s.audit(c, "agent.client_unassign", "agent", agentID, map[string]any{"client_id": clientID})

	c.Status(http.StatusNoContent)
}
