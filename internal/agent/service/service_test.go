package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/brokerage/internal/agent/domain"
	"github.com/smallbiznis/brokerage/internal/agent/repository"
	clientdomain "github.com/smallbiznis/brokerage/internal/client/domain"
	clientrepository "github.com/smallbiznis/brokerage/internal/client/repository"
	"github.com/smallbiznis/brokerage/internal/clock"
	"github.com/smallbiznis/brokerage/pkg/db"
	"github.com/smallbiznis/brokerage/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	svc   domain.Service
}

func setup(t *testing.T) fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&clientdomain.Client{}, &domain.Agent{}, &domain.AgentClient{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2025, time.March, 10, 14, 30, 0, 0, time.UTC))
	return fixture{
		db:    conn,
		node:  node,
		clock: clk,
		svc: New(Params{
			DB:         conn,
			Log:        zap.NewNop(),
			GenID:      node,
			Clock:      clk,
			Repo:       repository.Provide(),
			ClientRepo: clientrepository.Provide(),
		}),
	}
}

func (f fixture) client(t *testing.T, doc string) clientdomain.Client {
	t.Helper()
	now := f.clock.Now().UTC()
	client := clientdomain.Client{
		ID:             f.node.Generate(),
		Name:           "Cliente " + doc,
		DocumentType:   "CC",
		DocumentNumber: doc,
		ClientType:     clientdomain.ClientTypeNatural,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, clientrepository.Provide().Insert(context.Background(), f.db, &client))
	return client
}

func (f fixture) agent(t *testing.T, username string) domain.Agent {
	t.Helper()
	agent, err := f.svc.Create(context.Background(), domain.CreateAgentRequest{
		Name:     "Agente " + username,
		Email:    username + "@corredores.example.com",
		Username: username,
		Role:     "agente",
	})
	require.NoError(t, err)
	return agent
}

func TestCreateAndGetAgent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, domain.CreateAgentRequest{
		Name:     " Juan Pérez ",
		Email:    "Juan.Perez@Corredores.example.com",
		Username: "juan.perez",
		Role:     "ADMIN",
	})
	require.NoError(t, err)
	assert.Equal(t, "Juan Pérez", created.Name)
	assert.Equal(t, "juan.perez@corredores.example.com", created.Email)
	assert.Equal(t, domain.RoleAdmin, created.Role)
	assert.True(t, created.Active)
	assert.Equal(t, f.clock.Now(), created.CreatedAt)

	got, err := f.svc.GetByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.Username, got.Username)
	assert.True(t, got.Active)

	_, err = f.svc.GetByID(ctx, "12345")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.GetByID(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestCreateAgentValidation(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(context.Background(), domain.CreateAgentRequest{Email: "nope", Role: "gerente"})
	vErr, ok := validation.As(err)
	require.True(t, ok)
	for _, field := range []string{"name", "email", "username", "role"} {
		assert.True(t, vErr.Has(field), field)
	}
}

func TestCreateAgentDuplicateUsername(t *testing.T) {
	f := setup(t)
	f.agent(t, "ana")

	_, err := f.svc.Create(context.Background(), domain.CreateAgentRequest{
		Name:     "Ana Dos",
		Email:    "ana.dos@corredores.example.com",
		Username: "ana",
		Role:     "agente",
	})
	require.Error(t, err)
	assert.True(t, db.IsDuplicateKeyErr(err))
}

func TestUpdateAgentChangesOnlyGivenFields(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	agent := f.agent(t, "luis")

	inactive := false
	role := "super_admin"
	f.clock.Advance(time.Hour)
	updated, err := f.svc.Update(ctx, agent.ID.String(), domain.UpdateAgentRequest{Role: &role, Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, updated.Role)
	assert.False(t, updated.Active)
	assert.Equal(t, agent.Email, updated.Email)
	assert.True(t, updated.UpdatedAt.After(agent.UpdatedAt))

	active := true
	list, err := f.svc.List(ctx, domain.ListAgentRequest{Active: &active})
	require.NoError(t, err)
	assert.Empty(t, list.Agents)

	list, err = f.svc.List(ctx, domain.ListAgentRequest{Role: "super_admin"})
	require.NoError(t, err)
	require.Len(t, list.Agents, 1)
	assert.False(t, list.Agents[0].Active)

	bad := "gerente"
	_, err = f.svc.Update(ctx, agent.ID.String(), domain.UpdateAgentRequest{Role: &bad})
	vErr, ok := validation.As(err)
	require.True(t, ok)
	assert.True(t, vErr.Has("role"))

	_, err = f.svc.Update(ctx, "12345", domain.UpdateAgentRequest{Role: &role})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAssignClientIsIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	agent := f.agent(t, "marta")
	client := f.client(t, "1020304050")

	first, err := f.svc.AssignClient(ctx, agent.ID.String(), client.ID.String())
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	again, err := f.svc.AssignClient(ctx, agent.ID.String(), client.ID.String())
	require.NoError(t, err)
	assert.True(t, first.CreatedAt.Equal(again.CreatedAt))

	var count int64
	require.NoError(t, f.db.Model(&domain.AgentClient{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	clients, err := f.svc.ListClients(ctx, agent.ID.String())
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, client.ID, clients[0].ID)

	agents, err := f.svc.ListByClient(ctx, client.ID.String())
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, agent.ID, agents[0].ID)

	_, err = f.svc.AssignClient(ctx, agent.ID.String(), "12345")
	assert.ErrorIs(t, err, clientdomain.ErrNotFound)
	_, err = f.svc.AssignClient(ctx, "12345", client.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUnassignClient(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	agent := f.agent(t, "pedro")
	client := f.client(t, "900123456")

	_, err := f.svc.AssignClient(ctx, agent.ID.String(), client.ID.String())
	require.NoError(t, err)

	require.NoError(t, f.svc.UnassignClient(ctx, agent.ID.String(), client.ID.String()))
	assert.ErrorIs(t, f.svc.UnassignClient(ctx, agent.ID.String(), client.ID.String()), domain.ErrLinkNotFound)

	clients, err := f.svc.ListClients(ctx, agent.ID.String())
	require.NoError(t, err)
	assert.Empty(t, clients)
}

func TestDeleteAgentDropsAssignments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	agent := f.agent(t, "sofia")
	client := f.client(t, "5566")

	_, err := f.svc.AssignClient(ctx, agent.ID.String(), client.ID.String())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, agent.ID.String()))
	assert.ErrorIs(t, f.svc.Delete(ctx, agent.ID.String()), domain.ErrNotFound)

	var links int64
	require.NoError(t, f.db.Model(&domain.AgentClient{}).Count(&links).Error)
	assert.Zero(t, links)

	agents, err := f.svc.ListByClient(ctx, client.ID.String())
	require.NoError(t, err)
	assert.Empty(t, agents)
}
