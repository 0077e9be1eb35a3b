package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsHighCardinalityLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("asset_kind", "VEHICULO"),
		attribute.String("policy_id", "123"),
		attribute.String("client_id", "456"),
		attribute.String("frequency", "monthly"),
	)
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.Key("asset_kind"), attrs[0].Key)
	assert.Equal(t, attribute.Key("frequency"), attrs[1].Key)
}

func TestRecordersWithNoopProvider(t *testing.T) {
	m, err := New(Config{}, noop.NewMeterProvider())
	require.NoError(t, err)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordQuotationCreated(ctx, "HOGAR")
		m.RecordUnderwritingWarning(ctx, "VEHICULO", "vehicle_liability_floor")
		m.RecordPolicyIssued(ctx, "monthly")
		m.RecordPaymentRegistered(ctx, "PSE")
		m.RecordInstallmentsOverdue(ctx, 2)
		m.RecordPolicyCancelled(ctx)
	})

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.RecordPolicyCancelled(ctx) })
}
