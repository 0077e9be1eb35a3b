package events

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/brokerage/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestNewEvent(t *testing.T) {
	first := New(TypePolicyIssued, map[string]any{"policy_code": "2025-01-POL-ABCDEF12"})
	second := New(TypePolicyIssued, nil)

	_, err := ulid.Parse(first.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, TypePolicyIssued, first.Type)
	assert.False(t, first.OccurredAt.IsZero())
}

func TestNewPublisherWithoutBrokerIsNoop(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	publisher, err := NewPublisher(lc, config.Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, NoopPublisher{}, publisher)
	assert.NoError(t, publisher.Publish(context.Background(), New(TypeInstallmentPaid, nil)))
}
