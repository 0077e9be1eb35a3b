package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/brokerage/internal/agent/domain"
	clientdomain "github.com/smallbiznis/brokerage/internal/client/domain"
	"github.com/smallbiznis/brokerage/pkg/db/option"
	"github.com/smallbiznis/brokerage/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, agent *domain.Agent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO agents (id, name, email, username, role, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		agent.ID,
		agent.Name,
		agent.Email,
		agent.Username,
		agent.Role,
		agent.Active,
		agent.CreatedAt,
		agent.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, agent *domain.Agent) error {
	return db.WithContext(ctx).Exec(
		`UPDATE agents SET name = ?, email = ?, username = ?, role = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		agent.Name,
		agent.Email,
		agent.Username,
		agent.Role,
		agent.Active,
		agent.UpdatedAt,
		agent.ID,
	).Error
}

// Delete drops the agent's client links before the agent row. Callers run it
// inside a transaction.
func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	if err := db.WithContext(ctx).Exec(`DELETE FROM agent_clients WHERE agent_id = ?`, id).Error; err != nil {
		return 0, err
	}
	result := db.WithContext(ctx).Exec(`DELETE FROM agents WHERE id = ?`, id)
	return result.RowsAffected, result.Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Agent, error) {
	var agent domain.Agent
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, username, role, active, created_at, updated_at
		 FROM agents WHERE id = ?`,
		id,
	).Scan(&agent).Error
	if err != nil {
		return nil, err
	}
	if agent.ID == 0 {
		return nil, nil
	}
	return &agent, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListAgentFilter, page pagination.Pagination) ([]*domain.Agent, error) {
	var agents []*domain.Agent
	stmt := db.WithContext(ctx).Model(&domain.Agent{})
	if filter.Role != "" {
		stmt = stmt.Where("role = ?", filter.Role)
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	if err := stmt.Order("id desc").Find(&agents).Error; err != nil {
		return nil, err
	}
	return agents, nil
}

func (r *repo) FindClientLink(ctx context.Context, db *gorm.DB, agentID, clientID snowflake.ID) (*domain.AgentClient, error) {
	var link domain.AgentClient
	err := db.WithContext(ctx).Raw(
		`SELECT agent_id, client_id, created_at FROM agent_clients WHERE agent_id = ? AND client_id = ?`,
		agentID,
		clientID,
	).Scan(&link).Error
	if err != nil {
		return nil, err
	}
	if link.AgentID == 0 {
		return nil, nil
	}
	return &link, nil
}

func (r *repo) InsertClientLink(ctx context.Context, db *gorm.DB, link *domain.AgentClient) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO agent_clients (agent_id, client_id, created_at) VALUES (?, ?, ?)`,
		link.AgentID,
		link.ClientID,
		link.CreatedAt,
	).Error
}

func (r *repo) DeleteClientLink(ctx context.Context, db *gorm.DB, agentID, clientID snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM agent_clients WHERE agent_id = ? AND client_id = ?`,
		agentID,
		clientID,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) ListClients(ctx context.Context, db *gorm.DB, agentID snowflake.ID) ([]clientdomain.Client, error) {
	clients := []clientdomain.Client{}
	err := db.WithContext(ctx).Raw(
		`SELECT c.id, c.name, c.document_type, c.document_number, c.email, c.phone, c.client_type, c.created_at, c.updated_at
		 FROM clients c JOIN agent_clients l ON l.client_id = c.id
		 WHERE l.agent_id = ? ORDER BY l.created_at, c.id`,
		agentID,
	).Scan(&clients).Error
	return clients, err
}

func (r *repo) ListByClient(ctx context.Context, db *gorm.DB, clientID snowflake.ID) ([]domain.Agent, error) {
	agents := []domain.Agent{}
	err := db.WithContext(ctx).Raw(
		`SELECT a.id, a.name, a.email, a.username, a.role, a.active, a.created_at, a.updated_at
		 FROM agents a JOIN agent_clients l ON l.agent_id = a.id
		 WHERE l.client_id = ? ORDER BY l.created_at, a.id`,
		clientID,
	).Scan(&agents).Error
	return agents, err
}
