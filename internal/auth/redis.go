package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "littlelemon:revoked:"

// RedisRevoker хранит отозванные токены в Redis до истечения их срока действия.
type RedisRevoker struct {
	client *redis.Client
}

// NewRedisRevoker подключается к Redis и проверяет соединение.
func NewRedisRevoker(ctx context.Context, addr string) (*RedisRevoker, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisRevoker{client: client}, nil
}

// Revoke помечает токен отозванным.
func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err()
}

// IsRevoked сообщает, был ли токен отозван.
func (r *RedisRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close закрывает соединение с Redis.
func (r *RedisRevoker) Close() error {
	return r.client.Close()
}
