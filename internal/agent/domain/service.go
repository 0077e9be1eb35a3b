package domain

import (
	"context"
	"errors"

	clientdomain "github.com/smallbiznis/brokerage/internal/client/domain"
	"github.com/smallbiznis/brokerage/pkg/db/pagination"
)

type CreateAgentRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Active   *bool  `json:"active,omitempty"`
}

// UpdateAgentRequest changes only the fields that are set.
type UpdateAgentRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Username *string `json:"username,omitempty"`
	Role     *string `json:"role,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

type ListAgentRequest struct {
	PageToken string
	PageSize  int
	Role      string
	Active    *bool
}

type ListAgentFilter struct {
	Role   Role
	Active *bool
}

type ListAgentResponse struct {
	pagination.PageInfo
	Agents []Agent `json:"agents"`
}

type Service interface {
	Create(context.Context, CreateAgentRequest) (Agent, error)
	GetByID(ctx context.Context, id string) (Agent, error)
	List(context.Context, ListAgentRequest) (ListAgentResponse, error)
	Update(ctx context.Context, id string, req UpdateAgentRequest) (Agent, error)
	Delete(ctx context.Context, id string) error

	AssignClient(ctx context.Context, agentID, clientID string) (AgentClient, error)
	UnassignClient(ctx context.Context, agentID, clientID string) error
	ListClients(ctx context.Context, agentID string) ([]clientdomain.Client, error)
	ListByClient(ctx context.Context, clientID string) ([]Agent, error)
}

var (
	ErrInvalidID    = errors.New("invalid_agent_id")
	ErrInvalidRole  = errors.New("invalid_agent_role")
	ErrNotFound     = errors.New("agent_not_found")
	ErrLinkNotFound = errors.New("agent_client_link_not_found")
)
