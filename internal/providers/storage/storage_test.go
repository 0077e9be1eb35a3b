package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/smallbiznis/brokerage/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScheduleKey(t *testing.T) {
	at := time.Date(2025, time.March, 10, 14, 30, 5, 0, time.UTC)

	assert.Equal(t,
		"schedules/seguros-bolivar/2025-03-POL-ABCD1234/20250310143005.pdf",
		ScheduleKey("Seguros Bolívar", "2025-03-POL-ABCD1234", at),
	)
	assert.True(t, strings.HasPrefix(ScheduleKey("", "X", at), "schedules/unknown/"))
}

func TestNewStoreDisabledWithoutEndpoint(t *testing.T) {
	store, err := NewStore(config.Config{}, zap.NewNop())
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "k", strings.NewReader("x"), 1, "text/plain")
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = store.PresignedURL(context.Background(), "k", time.Minute)
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestNewStoreWithEndpoint(t *testing.T) {
	store, err := NewStore(config.Config{Storage: config.StorageConfig{
		Endpoint:  "http://localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "policy-documents",
	}}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &MinioStore{}, store)
}
