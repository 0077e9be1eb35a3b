package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/smallbiznis/brokerage/internal/client/domain"
	"github.com/smallbiznis/brokerage/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, agent *Agent) error
	Update(ctx context.Context, db *gorm.DB, agent *Agent) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Agent, error)
	List(ctx context.Context, db *gorm.DB, filter ListAgentFilter, page pagination.Pagination) ([]*Agent, error)

	FindClientLink(ctx context.Context, db *gorm.DB, agentID, clientID snowflake.ID) (*AgentClient, error)
	InsertClientLink(ctx context.Context, db *gorm.DB, link *AgentClient) error
	DeleteClientLink(ctx context.Context, db *gorm.DB, agentID, clientID snowflake.ID) (int64, error)
	ListClients(ctx context.Context, db *gorm.DB, agentID snowflake.ID) ([]clientdomain.Client, error)
	ListByClient(ctx context.Context, db *gorm.DB, clientID snowflake.ID) ([]Agent, error)
}
