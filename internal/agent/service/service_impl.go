package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/brokerage/internal/agent/domain"
	clientdomain "github.com/smallbiznis/brokerage/internal/client/domain"
	"github.com/smallbiznis/brokerage/internal/clock"
	"github.com/smallbiznis/brokerage/pkg/db/option"
	"github.com/smallbiznis/brokerage/pkg/db/pagination"
	"github.com/smallbiznis/brokerage/pkg/validation"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	ClientRepo clientdomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	clientRepo clientdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("agent.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		clientRepo: p.ClientRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateAgentRequest) (domain.Agent, error) {
	agent := domain.Agent{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Username: strings.TrimSpace(req.Username),
		Active:   true,
	}
	if req.Active != nil {
		agent.Active = *req.Active
	}

	var v validation.Error
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		v.Add("role", "invalid_value", "role must be super_admin, admin or agente")
	}
	agent.Role = role
	validate(&v, agent)
	if err := v.Err(); err != nil {
		return domain.Agent{}, err
	}

	now := s.clock.Now().UTC()
	agent.ID = s.genID.Generate()
	agent.CreatedAt = now
	agent.UpdatedAt = now
	if err := s.repo.Insert(ctx, s.db, &agent); err != nil {
		return domain.Agent{}, fmt.Errorf("insert agent: %w", err)
	}
	return agent, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Agent, error) {
	agentID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return domain.Agent{}, err
	}
	agent, err := s.repo.FindByID(ctx, s.db, agentID)
	if err != nil {
		return domain.Agent{}, err
	}
	if agent == nil {
		return domain.Agent{}, domain.ErrNotFound
	}
	return *agent, nil
}

func (s *Service) List(ctx context.Context, req domain.ListAgentRequest) (domain.ListAgentResponse, error) {
	filter := domain.ListAgentFilter{Active: req.Active}
	if strings.TrimSpace(req.Role) != "" {
		role, err := domain.ParseRole(req.Role)
		if err != nil {
			return domain.ListAgentResponse{}, validation.New("role", "invalid_value", "role must be super_admin, admin or agente")
		}
		filter.Role = role
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize})
	if err != nil {
		return domain.ListAgentResponse{}, err
	}
	items, pageInfo := pagination.Trim(items, option.PageSize(req.PageSize), func(a *domain.Agent) string {
		return a.ID.String()
	})

	agents := make([]domain.Agent, 0, len(items))
	for _, item := range items {
		agents = append(agents, *item)
	}
	return domain.ListAgentResponse{PageInfo: pageInfo, Agents: agents}, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateAgentRequest) (domain.Agent, error) {
	agentID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return domain.Agent{}, err
	}

	var agent domain.Agent
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, agentID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		agent = *existing

		var v validation.Error
		if req.Name != nil {
			agent.Name = strings.TrimSpace(*req.Name)
		}
		if req.Email != nil {
			agent.Email = strings.ToLower(strings.TrimSpace(*req.Email))
		}
		if req.Username != nil {
			agent.Username = strings.TrimSpace(*req.Username)
		}
		if req.Role != nil {
			role, err := domain.ParseRole(*req.Role)
			if err != nil {
				v.Add("role", "invalid_value", "role must be super_admin, admin or agente")
			}
			agent.Role = role
		}
		if req.Active != nil {
			agent.Active = *req.Active
		}
		validate(&v, agent)
		if err := v.Err(); err != nil {
			return err
		}

		agent.UpdatedAt = s.clock.Now().UTC()
		return s.repo.Update(ctx, tx, &agent)
	})
	if err != nil {
		return domain.Agent{}, err
	}
	return agent, nil
}

// Delete removes the agent and every client assignment it holds.
func (s *Service) Delete(ctx context.Context, id string) error {
	agentID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed, err := s.repo.Delete(ctx, tx, agentID)
		if err != nil {
			return err
		}
		if removed == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// AssignClient adds a client to the agent's book. Assigning an existing link
// returns it unchanged.
func (s *Service) AssignClient(ctx context.Context, agentID, clientID string) (domain.AgentClient, error) {
	aID, err := parseID(agentID, domain.ErrInvalidID)
	if err != nil {
		return domain.AgentClient{}, err
	}
	cID, err := parseID(clientID, clientdomain.ErrInvalidID)
	if err != nil {
		return domain.AgentClient{}, err
	}

	var link domain.AgentClient
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		agent, err := s.repo.FindByID(ctx, tx, aID)
		if err != nil {
			return err
		}
		if agent == nil {
			return domain.ErrNotFound
		}
		client, err := s.clientRepo.FindByID(ctx, tx, cID)
		if err != nil {
			return err
		}
		if client == nil {
			return clientdomain.ErrNotFound
		}

		existing, err := s.repo.FindClientLink(ctx, tx, aID, cID)
		if err != nil {
			return err
		}
		if existing != nil {
			link = *existing
			return nil
		}

		link = domain.AgentClient{AgentID: aID, ClientID: cID, CreatedAt: s.clock.Now().UTC()}
		return s.repo.InsertClientLink(ctx, tx, &link)
	})
	if err != nil {
		return domain.AgentClient{}, err
	}
	return link, nil
}

func (s *Service) UnassignClient(ctx context.Context, agentID, clientID string) error {
	aID, err := parseID(agentID, domain.ErrInvalidID)
	if err != nil {
		return err
	}
	cID, err := parseID(clientID, clientdomain.ErrInvalidID)
	if err != nil {
		return err
	}

	removed, err := s.repo.DeleteClientLink(ctx, s.db, aID, cID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return domain.ErrLinkNotFound
	}
	return nil
}

func (s *Service) ListClients(ctx context.Context, agentID string) ([]clientdomain.Client, error) {
	aID, err := parseID(agentID, domain.ErrInvalidID)
	if err != nil {
		return nil, err
	}
	agent, err := s.repo.FindByID(ctx, s.db, aID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, domain.ErrNotFound
	}
	return s.repo.ListClients(ctx, s.db, aID)
}

func (s *Service) ListByClient(ctx context.Context, clientID string) ([]domain.Agent, error) {
	cID, err := parseID(clientID, clientdomain.ErrInvalidID)
	if err != nil {
		return nil, err
	}
	client, err := s.clientRepo.FindByID(ctx, s.db, cID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, clientdomain.ErrNotFound
	}
	return s.repo.ListByClient(ctx, s.db, cID)
}

func validate(v *validation.Error, agent domain.Agent) {
	if agent.Name == "" {
		v.Add("name", "required", "name is required")
	}
	if agent.Email == "" {
		v.Add("email", "required", "email is required")
	} else if _, err := mail.ParseAddress(agent.Email); err != nil {
		v.Add("email", "invalid_format", "email is not a valid address")
	}
	if agent.Username == "" {
		v.Add("username", "required", "username is required")
	}
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}
