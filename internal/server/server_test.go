package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	agentdomain "github.com/smallbiznis/brokerage/internal/agent/domain"
	agentrepository "github.com/smallbiznis/brokerage/internal/agent/repository"
	agentservice "github.com/smallbiznis/brokerage/internal/agent/service"
	assetdomain "github.com/smallbiznis/brokerage/internal/asset/domain"
	auditdomain "github.com/smallbiznis/brokerage/internal/audit/domain"
	auditrepository "github.com/smallbiznis/brokerage/internal/audit/repository"
	auditservice "github.com/smallbiznis/brokerage/internal/audit/service"
	authservice "github.com/smallbiznis/brokerage/internal/auth/service"
	"github.com/smallbiznis/brokerage/internal/authorization"
	clientdomain "github.com/smallbiznis/brokerage/internal/client/domain"
	clientrepository "github.com/smallbiznis/brokerage/internal/client/repository"
	clientservice "github.com/smallbiznis/brokerage/internal/client/service"
	"github.com/smallbiznis/brokerage/internal/clock"
	"github.com/smallbiznis/brokerage/internal/config"
	insurerdomain "github.com/smallbiznis/brokerage/internal/insurer/domain"
	"github.com/smallbiznis/brokerage/internal/observability"
	policydomain "github.com/smallbiznis/brokerage/internal/policy/domain"
	quotationdomain "github.com/smallbiznis/brokerage/internal/quotation/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	viewerKey = "brk_view_0a1b"
	agentKey  = "brk_live_7c1e9f2a"
	adminKey  = "brk_ops_55aa"
)

type fakePolicyService struct {
	policydomain.Service

	cancelErr   error
	lastPayment policydomain.RegisterPaymentRequest
	sweptOn     time.Time
	listedOn    time.Time
}

func (f *fakePolicyService) Cancel(ctx context.Context, id string, reason string) (policydomain.Policy, error) {
	if f.cancelErr != nil {
		return policydomain.Policy{}, f.cancelErr
	}
	return policydomain.Policy{Code: "2025-04-POL-CANCELED", CarteraStatus: policydomain.CarteraCancelled}, nil
}

func (f *fakePolicyService) RegisterPayment(ctx context.Context, req policydomain.RegisterPaymentRequest) (policydomain.Policy, error) {
	f.lastPayment = req
	return policydomain.Policy{Code: "2025-04-POL-PAIDPAID"}, nil
}

func (f *fakePolicyService) ListOverdue(ctx context.Context, today time.Time) (policydomain.OverdueReport, error) {
	f.listedOn = today
	return policydomain.OverdueReport{AsOf: today, Count: 1}, nil
}

func (f *fakePolicyService) ReclassifyOverdue(ctx context.Context, today time.Time) (policydomain.OverdueReport, error) {
	f.sweptOn = today
	return policydomain.OverdueReport{AsOf: today, Reclassified: 2, Count: 2}, nil
}

type testServer struct {
	server   *Server
	db       *gorm.DB
	policies *fakePolicyService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&clientdomain.Client{}, &agentdomain.Agent{}, &agentdomain.AgentClient{}, &auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC))
	log := zap.NewNop()

	cfg := config.Config{
		APIKeys: map[string]string{
			viewerKey: authorization.RoleViewer,
			agentKey:  authorization.RoleAgent,
			adminKey:  authorization.RoleAdmin,
		},
	}

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    conn,
		Log:   log,
		GenID: node,
		Clock: clk,
		Repo:  auditrepository.Provide(),
	})
	enforcer, err := authorization.NewEnforcer(conn)
	require.NoError(t, err)

	policies := &fakePolicyService{}
	srv := NewServer(ServerParams{
		Gin:      NewEngine(observability.Config{}, nil),
		Cfg:      cfg,
		Log:      log,
		Clock:    clk,
		AuthSvc:  authservice.New(authservice.Params{Log: log, Config: cfg, Clock: clk}),
		AuthzSvc: authorization.NewService(authorization.Params{Log: log, Enforcer: enforcer}),
		AuditSvc: auditSvc,
		ClientSvc: clientservice.New(clientservice.Params{
			DB:    conn,
			Log:   log,
			GenID: node,
			Clock: clk,
			Repo:  clientrepository.Provide(),
		}),
		AgentSvc: agentservice.New(agentservice.Params{
			DB:         conn,
			Log:        log,
			GenID:      node,
			Clock:      clk,
			Repo:       agentrepository.Provide(),
			ClientRepo: clientrepository.Provide(),
		}),
		AssetSvc:     struct{ assetdomain.Service }{},
		InsurerSvc:   struct{ insurerdomain.Service }{},
		QuotationSvc: struct{ quotationdomain.Service }{},
		PolicySvc:    policies,
	})

	return &testServer{server: srv, db: conn, policies: policies}
}

func (ts *testServer) do(t *testing.T, method, path, key string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	w := httptest.NewRecorder()
	ts.server.Engine().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIRequiresCredentials(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/clients", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decodeError(t, w).Type)

	w = ts.do(t, http.MethodGet, "/api/clients", "brk_unknown_key", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestViewerCannotCreateClient(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/clients", viewerKey, map[string]any{
		"name":            "Andrés Pardo",
		"document_type":   "CC",
		"document_number": "79111222",
	})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", decodeError(t, w).Type)

	w = ts.do(t, http.MethodGet, "/api/clients", viewerKey, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClientLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	payload := map[string]any{
		"name":            "Andrés Pardo",
		"document_type":   "CC",
		"document_number": "79111222",
		"email":           "andres@example.com",
	}

	w := ts.do(t, http.MethodPost, "/api/clients", agentKey, payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Data clientdomain.Client `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Andrés Pardo", created.Data.Name)

	w = ts.do(t, http.MethodGet, "/api/clients/"+created.Data.ID.String(), viewerKey, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/api/clients", agentKey, payload)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "integrity_violation", decodeError(t, w).Type)

	var logs []auditdomain.AuditLog
	require.NoError(t, ts.db.Where("action = ?", "client.create").Find(&logs).Error)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].ActorID)
	assert.Equal(t, "api_key:brk_live_****9f2a", *logs[0].ActorID)
	assert.Equal(t, string(auditdomain.ActorTypeAPIKey), logs[0].ActorType)
}

func TestAgentAssignmentOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/clients", agentKey, map[string]any{
		"name":            "Andrés Pardo",
		"document_type":   "CC",
		"document_number": "79111222",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var client struct {
		Data clientdomain.Client `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &client))

	agentPayload := map[string]any{
		"name":     "Juan Pérez",
		"email":    "juan.perez@corredores.example.com",
		"username": "juan.perez",
		"role":     "agente",
	}
	w = ts.do(t, http.MethodPost, "/api/agents", agentKey, agentPayload)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodPost, "/api/agents", adminKey, agentPayload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var agent struct {
		Data agentdomain.Agent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &agent))
	assert.True(t, agent.Data.Active)

	assignPath := "/api/agents/" + agent.Data.ID.String() + "/clients/" + client.Data.ID.String()
	w = ts.do(t, http.MethodPost, assignPath, agentKey, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	for i := 0; i < 2; i++ {
		w = ts.do(t, http.MethodPost, assignPath, adminKey, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = ts.do(t, http.MethodGet, "/api/clients/"+client.Data.ID.String()+"/agents", viewerKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var agents struct {
		Data []agentdomain.Agent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &agents))
	require.Len(t, agents.Data, 1)
	assert.Equal(t, agent.Data.ID, agents.Data[0].ID)

	w = ts.do(t, http.MethodGet, "/api/agents?active=maybe", viewerKey, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodDelete, assignPath, adminKey, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = ts.do(t, http.MethodDelete, assignPath, adminKey, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var logs int64
	require.NoError(t, ts.db.Model(&auditdomain.AuditLog{}).Where("action = ?", "agent.client_assign").Count(&logs).Error)
	assert.Equal(t, int64(2), logs)
}

func TestValidationErrorsListEveryField(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/clients", agentKey, map[string]any{"email": "nope"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	payload := decodeError(t, w)
	assert.Equal(t, "validation_error", payload.Type)
	fields := make([]string, 0, len(payload.Errors))
	for _, e := range payload.Errors {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"name", "document_type", "document_number", "email"}, fields)

	w = ts.do(t, http.MethodGet, "/api/clients/not-an-id", viewerKey, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "id", decodeError(t, w).Errors[0].Field)

	w = ts.do(t, http.MethodGet, "/api/clients/12345", viewerKey, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterPaymentRoute(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/policies/42/installments/x/pay", agentKey, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "number", decodeError(t, w).Errors[0].Field)

	w = ts.do(t, http.MethodPost, "/api/policies/42/installments/3/pay", agentKey, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "42", ts.policies.lastPayment.PolicyID)
	assert.Equal(t, 3, ts.policies.lastPayment.Number)
	assert.Nil(t, ts.policies.lastPayment.Amount)

	w = ts.do(t, http.MethodPost, "/api/policies/42/installments/1/pay", agentKey, map[string]any{
		"amount":    "150000.50",
		"reference": "TRX-881",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, ts.policies.lastPayment.Amount)
	assert.Equal(t, "150000.5", ts.policies.lastPayment.Amount.String())
	assert.Equal(t, "TRX-881", ts.policies.lastPayment.Reference)
}

func TestCancelPolicyMapsConflicts(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/policies/42/cancel", agentKey, map[string]any{"reason": "sold"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	ts.policies.cancelErr = fmt.Errorf("cancel policy 42: %w", policydomain.ErrPolicyNotCancellable)
	w = ts.do(t, http.MethodPost, "/api/policies/42/cancel", adminKey, map[string]any{"reason": "sold"})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", decodeError(t, w).Type)

	ts.policies.cancelErr = nil
	w = ts.do(t, http.MethodPost, "/api/policies/42/cancel", adminKey, map[string]any{"reason": "sold"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOverdueListingIsReadOnly(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/installments/overdue", viewerKey, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), ts.policies.listedOn)
	assert.True(t, ts.policies.sweptOn.IsZero())

	w = ts.do(t, http.MethodPost, "/api/installments/overdue/reclassify", viewerKey, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = ts.do(t, http.MethodPost, "/api/installments/overdue/reclassify", agentKey, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.True(t, ts.policies.sweptOn.IsZero())
}

func TestOverdueReclassifySweepsAsOfToday(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/installments/overdue/reclassify", adminKey, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), ts.policies.sweptOn)

	var count int64
	require.NoError(t, ts.db.Model(&auditdomain.AuditLog{}).Where("action = ?", "installment.reclassify").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Type)
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{policydomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{fmt.Errorf("pay: %w", policydomain.ErrInstallmentNotPayable), http.StatusConflict, "conflict"},
		{quotationdomain.ErrHasPolicy, http.StatusConflict, "conflict"},
		{assetdomain.ErrInvalidKind, http.StatusBadRequest, "validation_error"},
		{authorization.ErrForbidden, http.StatusForbidden, "forbidden"},
		{ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{fmt.Errorf("pay: %w", &pgconn.PgError{Code: "40001"}), http.StatusConflict, "conflict"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		status, payload := mapError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.kind, payload.Type, tc.err.Error())
	}
}
