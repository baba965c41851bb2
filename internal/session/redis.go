package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisRevoker keeps revoked token IDs in Redis. Keys expire together with
// the token they revoke.
type RedisRevoker struct {
	Client *redis.Client
	Prefix string
}

// NewRedisRevoker connects to the Redis server at addr.
func NewRedisRevoker(addr string) *RedisRevoker {
	return &RedisRevoker{
		Client: redis.NewClient(&redis.Options{Addr: addr}),
		Prefix: "trznica:revoked:",
	}
}

// Revoke records jti until expiresAt.
func (r *RedisRevoker) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := r.Client.Set(ctx, r.Prefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

// IsRevoked reports whether jti has been revoked.
func (r *RedisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.Client.Exists(ctx, r.Prefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return n > 0, nil
}

// Ping checks the connection.
func (r *RedisRevoker) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// Close closes the client.
func (r *RedisRevoker) Close() error {
	return r.Client.Close()
}
