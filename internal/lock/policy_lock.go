package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/brokerage/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyPolicyLock = "policy:%s"

var ErrNotAcquired = errors.New("policy_lock_not_acquired")

// PolicyLock serializes payment and cancellation per policy across API
// replicas. Without Redis it is disabled and every call proceeds.
type PolicyLock struct {
	enabled bool
	locker  *Locker
	ttl     time.Duration
	log     *zap.Logger
}

// NewPolicyLock returns a disabled lock when no Redis address is configured.
func NewPolicyLock(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*PolicyLock, error) {
	if !cfg.Redis.Enabled() {
		return &PolicyLock{log: log.Named("policy.lock")}, nil
	}
	if cfg.Redis.LockTTLSeconds <= 0 {
		return nil, errors.New("policy lock ttl must be positive")
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

	return NewRedisPolicyLock(client, time.Duration(cfg.Redis.LockTTLSeconds)*time.Second, log), nil
}

func NewRedisPolicyLock(client *redis.Client, ttl time.Duration, log *zap.Logger) *PolicyLock {
	return &PolicyLock{
		enabled: client != nil,
		locker:  NewLocker(client),
		ttl:     ttl,
		log:     log.Named("policy.lock"),
	}
}

func (l *PolicyLock) Enabled() bool {
	return l != nil && l.enabled
}

// Do runs fn while holding the lock for policyID. ErrNotAcquired means
// another request holds it.
func (l *PolicyLock) Do(ctx context.Context, policyID string, fn func() error) error {
	if !l.Enabled() {
		return fn()
	}

	key := fmt.Sprintf(keyPolicyLock, strings.TrimSpace(policyID))
	token, ok, err := l.locker.TryLock(ctx, key, l.ttl)
	if err != nil {
		return fmt.Errorf("acquire policy lock: %w", err)
	}
	if !ok {
		return ErrNotAcquired
	}
	defer func() {
		if err := l.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			l.log.Warn("failed to release policy lock", zap.String("key", key), zap.Error(err))
		}
	}()
	return fn()
}
