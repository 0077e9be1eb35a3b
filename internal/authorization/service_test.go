package authorization

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupService(t *testing.T) Service {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	enforcer, err := NewEnforcer(conn)
	require.NoError(t, err)

	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func TestAuthorizeByRole(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	cases := []struct {
		role    string
		object  string
		action  string
		allowed bool
	}{
		{RoleViewer, ObjectPolicy, ActionPolicyView, true},
		{RoleViewer, ObjectPolicy, ActionPolicyPay, false},
		{RoleAgent, ObjectPolicy, ActionPolicyView, true},
		{RoleAgent, ObjectPolicy, ActionPolicyPay, true},
		{RoleAgent, ObjectPolicy, ActionPolicyCancel, false},
		{RoleAgent, ObjectInsurer, ActionInsurerCreate, false},
		{RoleAdmin, ObjectPolicy, ActionPolicyCancel, true},
		{RoleAdmin, ObjectPolicy, ActionPolicyPay, true},
		{RoleAdmin, ObjectQuotation, ActionQuotationSimulate, true},
		{RoleSystem, ObjectInstallment, ActionInstallmentReclassify, true},
		{RoleSystem, ObjectPolicy, ActionPolicyPay, false},
		{RoleViewer, ObjectAgent, ActionAgentView, true},
		{RoleAgent, ObjectAgent, ActionAgentAssign, false},
		{RoleAdmin, ObjectAgent, ActionAgentAssign, true},
	}

	for _, tc := range cases {
		actor := "api_key:" + tc.role
		err := svc.Authorize(ctx, actor, tc.role, tc.object, tc.action)
		if tc.allowed {
			assert.NoError(t, err, "%s %s", tc.role, tc.action)
		} else {
			assert.ErrorIs(t, err, ErrForbidden, "%s %s", tc.role, tc.action)
		}
	}
}

func TestAuthorizeFollowsRoleChange(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	actor := "api_key:brk_****a1b2"
	require.NoError(t, svc.Authorize(ctx, actor, RoleAdmin, ObjectPolicy, ActionPolicyCancel))
	assert.ErrorIs(t, svc.Authorize(ctx, actor, RoleViewer, ObjectPolicy, ActionPolicyCancel), ErrForbidden)
}

func TestAuthorizeRejectsInvalidInput(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, "", RoleAdmin, ObjectPolicy, ActionPolicyView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, "api_key:x", "owner", ObjectPolicy, ActionPolicyView), ErrInvalidRole)
	assert.ErrorIs(t, svc.Authorize(ctx, "api_key:x", RoleAdmin, "", ActionPolicyView), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, "api_key:x", RoleAdmin, ObjectPolicy, " "), ErrInvalidAction)
}
