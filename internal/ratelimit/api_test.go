package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilLimiterAllows(t *testing.T) {
	var l *APILimiter
	res, err := l.Allow(context.Background(), "api_key:brk_live_****9f2a")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.False(t, l.Enabled())
}

func TestTokenBucketRequiresClient(t *testing.T) {
	assert.Nil(t, NewTokenBucket(nil))

	var b *TokenBucket
	_, err := b.Allow(context.Background(), "k", 1, 1)
	assert.Error(t, err)
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 4*time.Second, bucketTTL(10, 20))
	assert.Equal(t, time.Second, bucketTTL(100, 1))
}

func TestScriptValueParsing(t *testing.T) {
	assert.Equal(t, int64(1), toInt(int64(1)))
	assert.Equal(t, int64(0), toInt(nil))
	assert.Equal(t, 0.5, toFloat("0.5"))
	assert.Equal(t, 3.0, toFloat(int64(3)))
}
