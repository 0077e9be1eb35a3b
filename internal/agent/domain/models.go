package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleAgent      Role = "agente"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleAgent:
		return true
	}
	return false
}

func ParseRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if !role.Valid() {
		return "", ErrInvalidRole
	}
	return role, nil
}

// Agent is a brokerage staff member clients can be assigned to. Email and
// username are unique. Credentials live with the auth provider, not here.
type Agent struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Email     string       `gorm:"not null;uniqueIndex:ux_agents_email" json:"email"`
	Username  string       `gorm:"not null;uniqueIndex:ux_agents_username" json:"username"`
	Role      Role         `gorm:"not null" json:"role"`
	Active    bool         `gorm:"not null" json:"active"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (Agent) TableName() string { return "agents" }

// AgentClient assigns a client to an agent's book.
type AgentClient struct {
	AgentID   snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"agent_id"`
	ClientID  snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"client_id"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

func (AgentClient) TableName() string { return "agent_clients" }
