package ratelimit

import (
	"context"
	"errors"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/brokerage/internal/config"
	"go.uber.org/fx"
)

const keyAPICaller = "api:caller:"

// APILimiter throttles API requests per authenticated caller. A nil limiter
// allows everything.
type APILimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

// NewAPILimiter returns nil unless rate limiting is enabled.
func NewAPILimiter(lc fx.Lifecycle, cfg config.Config) (*APILimiter, error) {
	if !cfg.RateLimit.Enabled {
		return nil, nil
	}
	if !cfg.Redis.Enabled() {
		return nil, errors.New("rate limit requires REDIS_ADDR")
	}
	if cfg.RateLimit.Rate <= 0 || cfg.RateLimit.Burst <= 0 {
		return nil, errors.New("rate limit rate and burst must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     strings.TrimSpace(cfg.Redis.Addr),
		Password: strings.TrimSpace(cfg.Redis.Password),
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return NewRedisAPILimiter(client, cfg.RateLimit.Rate, cfg.RateLimit.Burst), nil
}

func NewRedisAPILimiter(client *redis.Client, rate float64, burst int) *APILimiter {
	return &APILimiter{
		bucket: NewTokenBucket(client),
		rate:   rate,
		burst:  burst,
	}
}

func (l *APILimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *APILimiter) Allow(ctx context.Context, actor string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, keyAPICaller+strings.TrimSpace(actor), l.rate, l.burst)
}
