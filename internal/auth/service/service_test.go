package service

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/brokerage/internal/auth/domain"
	"github.com/smallbiznis/brokerage/internal/clock"
	"github.com/smallbiznis/brokerage/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, secret string) (domain.Service, *clock.FakeClock) {
	t.Helper()

	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	svc := New(Params{
		Log: zap.NewNop(),
		Config: config.Config{
			APIKeys: map[string]string{
				"brk_live_7c1e9f2a": "agent",
				"brk_ops_55aa":      "admin",
			},
			JWTSecret: secret,
		},
		Clock: clk,
	})
	return svc, clk
}

func TestAuthenticateAPIKey(t *testing.T) {
	svc, _ := newTestService(t, "")

	principal, err := svc.Authenticate(context.Background(), " brk_live_7c1e9f2a ")
	require.NoError(t, err)
	assert.Equal(t, "api_key:brk_live_****9f2a", principal.Actor)
	assert.Equal(t, "agent", principal.Role)
	assert.Equal(t, domain.MethodAPIKey, principal.Method)

	principal, err = svc.Authenticate(context.Background(), "brk_ops_55aa")
	require.NoError(t, err)
	assert.Equal(t, "api_key:brk_ops_****", principal.Actor)
	assert.Equal(t, "admin", principal.Role)

	_, err = svc.Authenticate(context.Background(), "brk_live_unknown")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
}

func TestIssueAndAuthenticateToken(t *testing.T) {
	svc, clk := newTestService(t, "s3cret")

	token, err := svc.IssueToken("laura", "Viewer", time.Hour)
	require.NoError(t, err)

	principal, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user:laura", principal.Actor)
	assert.Equal(t, "viewer", principal.Role)
	assert.Equal(t, domain.MethodToken, principal.Method)

	clk.Advance(2 * time.Hour)
	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestTokenSignedWithOtherSecretIsRejected(t *testing.T) {
	other, _ := newTestService(t, "other-secret")
	token, err := other.IssueToken("laura", "admin", time.Hour)
	require.NoError(t, err)

	svc, _ := newTestService(t, "s3cret")
	_, err = svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestTokensDisabledWithoutSecret(t *testing.T) {
	svc, _ := newTestService(t, "")

	_, err := svc.IssueToken("laura", "admin", time.Hour)
	assert.ErrorIs(t, err, domain.ErrTokensDisabled)

	_, err = svc.Authenticate(context.Background(), "a.b.c")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "brk_live_****9f2a", maskKey("brk_live_7c1e9f2a"))
	assert.Equal(t, "****", maskKey("abcd"))
	assert.Equal(t, "****wxyz", maskKey("abcdefwxyz"))
}
