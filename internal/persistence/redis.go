package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/lead-crm/internal/config"
)

const revokedTokenPrefix = "revoked_token:"

// Redis wraps the go-redis client. It backs the token revocation list
// consulted on every authenticated request; hierarchy scope is never
// cached here.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// RevokeToken denylists a token id until its natural expiry.
func (r *Redis) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	if ttl <= 0 {
		return nil
	}
	return r.Client.Set(ctx, revokedTokenPrefix+tokenID, "1", ttl).Err()
}

// IsTokenRevoked reports whether a token id has been denylisted.
func (r *Redis) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	if r == nil || r.Client == nil {
		// Without redis every issued token stays valid until expiry.
		return false, nil
	}
	_, err := r.Client.Get(ctx, revokedTokenPrefix+tokenID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
