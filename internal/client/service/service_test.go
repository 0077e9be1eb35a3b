package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/brokerage/internal/client/domain"
	"github.com/smallbiznis/brokerage/internal/client/repository"
	"github.com/smallbiznis/brokerage/internal/clock"
	"github.com/smallbiznis/brokerage/pkg/db"
	"github.com/smallbiznis/brokerage/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) domain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Client{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewSystemClock(),
		Repo:  repository.Provide(),
	})
}

func TestCreateAndGetClient(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateClientRequest{
		Name:           " Laura Gómez ",
		DocumentType:   "cc",
		DocumentNumber: "1020304050",
		Email:          "laura@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Laura Gómez", created.Name)
	assert.Equal(t, "CC", created.DocumentType)
	assert.Equal(t, domain.ClientTypeNatural, created.ClientType)

	got, err := svc.GetByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.DocumentNumber, got.DocumentNumber)

	_, err = svc.GetByID(ctx, "12345")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetByID(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestCreateClientReportsEveryInvalidField(t *testing.T) {
	svc := setupService(t)

	_, err := svc.Create(context.Background(), domain.CreateClientRequest{
		Email:      "not-an-email",
		ClientType: "EMPRESA",
	})
	vErr, ok := validation.As(err)
	require.True(t, ok)
	for _, field := range []string{"name", "document_type", "document_number", "email", "client_type"} {
		assert.True(t, vErr.Has(field), field)
	}
}

func TestCreateClientDuplicateDocument(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	req := domain.CreateClientRequest{Name: "Acme SAS", DocumentType: "NIT", DocumentNumber: "900123456", ClientType: domain.ClientTypeJuridical}
	_, err := svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = svc.Create(ctx, req)
	require.Error(t, err)
	assert.True(t, db.IsDuplicateKeyErr(err))

	req.DocumentType = "CC"
	_, err = svc.Create(ctx, req)
	assert.NoError(t, err)
}

func TestListClientsPaginates(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, domain.CreateClientRequest{
			Name:           fmt.Sprintf("Cliente %d", i),
			DocumentType:   "CC",
			DocumentNumber: fmt.Sprintf("10%d", i),
		})
		require.NoError(t, err)
	}

	first, err := svc.List(ctx, domain.ListClientRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Clients, 2)
	assert.True(t, first.HasMore)

	second, err := svc.List(ctx, domain.ListClientRequest{PageSize: 2, PageToken: first.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.Clients, 1)
	assert.False(t, second.HasMore)

	filtered, err := svc.List(ctx, domain.ListClientRequest{Name: "cliente 1"})
	require.NoError(t, err)
	assert.Len(t, filtered.Clients, 1)
}
