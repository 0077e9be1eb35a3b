package tracing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

func TestSafeAttributesDropsURLs(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.url", "/pay/1?token=secret"),
		attribute.String("http.route", "/api/policies/:id"),
	)
	assert.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
}

func TestSafeErrorHidesMessage(t *testing.T) {
	assert.Nil(t, SafeError(nil))
	err := SafeError(errors.New("client 1020304050 not found"))
	assert.NotContains(t, err.Error(), "1020304050")
}

func TestDisabledProviderBuilds(t *testing.T) {
	tp, err := NewProvider(nil, Config{ServiceName: "brokerage"}, zap.NewNop())
	assert.NoError(t, err)
	assert.NotNil(t, tp)
}
